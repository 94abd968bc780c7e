package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/medminder/go-mas/internal/domain/medicine"
	"github.com/medminder/go-mas/internal/domain/reminder"
	"github.com/medminder/go-mas/internal/observability/metrics"
	"github.com/medminder/go-mas/internal/ocr"
)

// Store persists prescription records
type Store interface {
	Save(ctx context.Context, p *Prescription) error
}

// ReminderStore persists the reminders synthesized from a scan
type ReminderStore interface {
	Save(ctx context.Context, rem *reminder.Reminder, events ...*reminder.Event) error
}

// Service runs the scan pipeline: recognize, extract, synthesize reminders.
type Service struct {
	store     Store
	reminders ReminderStore
	ocr       ocr.Client
	logger    *zap.Logger
	tracer    trace.Tracer
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewService creates a new scan pipeline service. The OCR client may be nil
// when callers always submit pre-recognized text.
func NewService(store Store, reminders ReminderStore, ocrClient ocr.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		reminders: reminders,
		ocr:       ocrClient,
		logger:    logger,
		tracer:    otel.Tracer("prescription-service"),
		now:       time.Now,
	}
}

// WithClock overrides the wall clock, for tests
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithMetrics attaches application metrics
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// ScanRequest carries a scan submission. Text takes precedence over ImageURL.
type ScanRequest struct {
	UserID               string `json:"user_id"`
	ImageURL             string `json:"image_url,omitempty"`
	Text                 string `json:"text,omitempty"`
	DoctorName           string `json:"doctor_name,omitempty"`
	DoctorSpecialization string `json:"doctor_specialization,omitempty"`
}

// ScanResult is the outcome of a processed scan
type ScanResult struct {
	Prescription *Prescription        `json:"prescription"`
	Reminders    []*reminder.Reminder `json:"reminders"`
}

// ProcessScan recognizes text when only an image was submitted, extracts
// medicines, and synthesizes one reminder per medicine. An empty extraction
// is not an error: the prescription is stored with zero confidence and no
// reminders.
func (s *Service) ProcessScan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	ctx, span := s.tracer.Start(ctx, "process_scan",
		trace.WithAttributes(attribute.String("user_id", req.UserID)))
	defer span.End()

	var completed bool
	if s.metrics != nil {
		started := time.Now()
		defer func() {
			s.metrics.ScanDuration.Observe(time.Since(started).Seconds())
			if completed {
				s.metrics.ScansProcessed.Inc()
			} else {
				s.metrics.ScansFailed.Inc()
			}
		}()
	}

	text := req.Text
	if text == "" && req.ImageURL != "" {
		if s.ocr == nil {
			return nil, fmt.Errorf("image submitted but no ocr client configured")
		}
		recognized, err := s.ocr.Recognize(ctx, req.ImageURL)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("recognize image: %w", err)
		}
		text = recognized
	}

	now := s.now().UTC()
	meds := medicine.Extract(text)
	confidence := medicine.Confidence(meds, text)

	p := &Prescription{
		ID:                   uuid.New().String(),
		UserID:               req.UserID,
		ImageURL:             req.ImageURL,
		OriginalText:         text,
		Medicines:            meds,
		DoctorName:           req.DoctorName,
		DoctorSpecialization: req.DoctorSpecialization,
		Status:               StatusActive,
		IsProcessed:          true,
		Confidence:           confidence,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	rems, err := reminder.FromMedicines(meds, req.UserID, p.ID, now)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("synthesize reminders: %w", err)
	}

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save prescription: %w", err)
	}

	for _, rem := range rems {
		event, err := reminder.NewEvent(rem, reminder.EventReminderCreated, reminder.ReminderCreatedData{
			ReminderID:   rem.ID,
			MedicineName: rem.MedicineName,
			SlotCount:    len(rem.Schedule.Times),
			NextDue:      rem.NextDue,
		}, now)
		if err != nil {
			return nil, fmt.Errorf("build created event: %w", err)
		}
		if err := s.reminders.Save(ctx, rem, event); err != nil {
			return nil, fmt.Errorf("save reminder %s: %w", rem.MedicineName, err)
		}
	}

	completed = true
	if s.metrics != nil {
		s.metrics.MedicinesExtracted.Add(float64(len(meds)))
		s.metrics.RemindersCreated.Add(float64(len(rems)))
	}

	span.SetAttributes(
		attribute.Int("medicines_extracted", len(meds)),
		attribute.Int("confidence", confidence),
	)
	s.logger.Info("processed prescription scan",
		zap.String("prescription_id", p.ID),
		zap.String("user_id", req.UserID),
		zap.Int("medicines", len(meds)),
		zap.Int("confidence", confidence))

	return &ScanResult{Prescription: p, Reminders: rems}, nil
}
