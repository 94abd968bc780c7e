package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medminder/go-mas/internal/domain/appointment"
	"github.com/medminder/go-mas/internal/observability/metrics"
)

// maxRecurringOccurrences bounds expansion of patterns without an end date.
const maxRecurringOccurrences = 52

// AppointmentHandler handles appointment endpoints
type AppointmentHandler struct {
	repo    *appointment.Repository
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewAppointmentHandler creates a new handler
func NewAppointmentHandler(repo *appointment.Repository, logger *zap.Logger) *AppointmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentHandler{repo: repo, logger: logger, now: time.Now}
}

// WithClock overrides the wall clock, for tests
func (h *AppointmentHandler) WithClock(now func() time.Time) *AppointmentHandler {
	h.now = now
	return h
}

// WithMetrics attaches application metrics
func (h *AppointmentHandler) WithMetrics(m *metrics.Metrics) *AppointmentHandler {
	h.metrics = m
	return h
}

// Routes returns the handler routes
func (h *AppointmentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/cancel", h.Cancel)
	r.Patch("/{id}/reschedule", h.Reschedule)
	r.Delete("/{id}", h.Delete)
	return r
}

// CreateAppointmentRequest is the body for scheduling an appointment
type CreateAppointmentRequest struct {
	DoctorName           string                         `json:"doctor_name"`
	DoctorSpecialization string                         `json:"doctor_specialization,omitempty"`
	Hospital             appointment.Hospital           `json:"hospital"`
	Date                 time.Time                      `json:"date"`
	Time                 string                         `json:"time"`
	Duration             int                            `json:"duration,omitempty"`
	Type                 appointment.Type               `json:"type,omitempty"`
	Reason               string                         `json:"reason,omitempty"`
	Notes                string                         `json:"notes,omitempty"`
	Location             appointment.Location           `json:"location"`
	IsRecurring          bool                           `json:"is_recurring,omitempty"`
	Pattern              *appointment.RecurrencePattern `json:"recurring_pattern,omitempty"`
}

// Create handles POST /appointments. Recurring roots are expanded into
// child occurrences up front and stored together.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	uid := userID(r)
	if uid == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.DoctorName == "" || req.Time == "" || req.Date.IsZero() {
		jsonError(w, "doctor_name, date and time are required", http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		req.Type = appointment.TypeConsultation
	}
	if req.Duration <= 0 {
		req.Duration = 30
	}
	if req.IsRecurring && req.Pattern == nil {
		jsonError(w, "recurring_pattern is required for recurring appointments", http.StatusBadRequest)
		return
	}

	now := h.now().UTC()
	root := &appointment.Appointment{
		ID:                   uuid.New().String(),
		UserID:               uid,
		DoctorName:           req.DoctorName,
		DoctorSpecialization: req.DoctorSpecialization,
		Hospital:             req.Hospital,
		Date:                 req.Date,
		Time:                 req.Time,
		Duration:             req.Duration,
		Type:                 req.Type,
		Status:               appointment.StatusScheduled,
		Reason:               req.Reason,
		Notes:                req.Notes,
		Reminders:            appointment.DefaultRemindersConfig(),
		Location:             req.Location,
		IsRecurring:          req.IsRecurring,
		Pattern:              req.Pattern,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	children, err := appointment.ExpandRecurrence(root, maxRecurringOccurrences, now)
	if err != nil {
		if errors.Is(err, appointment.ErrRecurrenceUnbounded) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("recurrence expansion failed", zap.Error(err))
		jsonError(w, "invalid recurrence pattern", http.StatusBadRequest)
		return
	}

	if err := h.repo.SaveWithChildren(ctx, root, children); err != nil {
		h.logger.Error("save appointment failed", zap.Error(err))
		jsonError(w, "failed to save appointment", http.StatusInternalServerError)
		return
	}
	if h.metrics != nil {
		h.metrics.OccurrencesGenerated.Add(float64(len(children)))
	}

	h.logger.Info("appointment scheduled",
		zap.String("id", root.ID),
		zap.String("user_id", uid),
		zap.Int("occurrences", len(children)))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"appointment": root,
		"occurrences": len(children),
	})
}

// List handles GET /appointments
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.repo.ListByUser(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("list appointments failed", zap.Error(err))
		jsonError(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appointments == nil {
		appointments = []*appointment.Appointment{}
	}
	writeJSON(w, http.StatusOK, appointments)
}

// Get handles GET /appointments/{id}
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Cancel handles PATCH /appointments/{id}/cancel. Cancelling a recurring
// root cancels every child occurrence.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appt, err := h.repo.Get(ctx, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	}

	changes := appointment.CancelCascade(appt)
	if err := h.repo.ApplyStatusChanges(ctx, appt, changes); err != nil {
		h.logger.Error("cancel cascade failed", zap.String("id", appt.ID), zap.Error(err))
		jsonError(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        appt.ID,
		"status":    appointment.StatusCancelled,
		"cancelled": len(changes),
	})
}

// RescheduleRequest is the body for moving an appointment
type RescheduleRequest struct {
	Date   time.Time `json:"date"`
	Time   string    `json:"time"`
	Reason string    `json:"reason,omitempty"`
}

// Reschedule handles PATCH /appointments/{id}/reschedule
func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Date.IsZero() || req.Time == "" {
		jsonError(w, "date and time are required", http.StatusBadRequest)
		return
	}

	appt, err := h.repo.Get(ctx, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	}

	appointment.Reschedule(appt, req.Date, req.Time, req.Reason, h.now().UTC())
	if err := h.repo.Update(ctx, appt); err != nil {
		h.logger.Error("reschedule failed", zap.String("id", appt.ID), zap.Error(err))
		jsonError(w, "failed to reschedule appointment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, appt)
}

// Delete handles DELETE /appointments/{id}. Deleting a recurring root
// removes every child occurrence.
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appt, err := h.repo.Get(ctx, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	}

	ids := appointment.DeleteCascade(appt)
	if err := h.repo.DeleteCascaded(ctx, ids); err != nil {
		h.logger.Error("delete cascade failed", zap.String("id", appt.ID), zap.Error(err))
		jsonError(w, "failed to delete appointment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      appt.ID,
		"deleted": len(ids),
	})
}
