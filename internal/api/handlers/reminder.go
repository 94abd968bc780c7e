package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/medminder/go-mas/internal/domain/medicine"
	"github.com/medminder/go-mas/internal/domain/reminder"
	"github.com/medminder/go-mas/internal/observability/metrics"
)

// ReminderHandler handles medication reminder endpoints
type ReminderHandler struct {
	repo    *reminder.Repository
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewReminderHandler creates a new handler
func NewReminderHandler(repo *reminder.Repository, logger *zap.Logger) *ReminderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderHandler{repo: repo, logger: logger, now: time.Now}
}

// WithClock overrides the wall clock, for tests
func (h *ReminderHandler) WithClock(now func() time.Time) *ReminderHandler {
	h.now = now
	return h
}

// WithMetrics attaches application metrics
func (h *ReminderHandler) WithMetrics(m *metrics.Metrics) *ReminderHandler {
	h.metrics = m
	return h
}

// Routes returns the handler routes
func (h *ReminderHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/taken", h.MarkTaken)
	r.Post("/{id}/missed", h.MarkMissed)
	r.Patch("/{id}/toggle", h.Toggle)
	r.Delete("/{id}", h.Delete)
	return r
}

// CreateReminderRequest is the body for manually adding a reminder
type CreateReminderRequest struct {
	MedicineName string             `json:"medicine_name"`
	Dosage       medicine.Dosage    `json:"dosage"`
	TimesPerDay  int                `json:"times_per_day"`
	Duration     *medicine.Duration `json:"duration,omitempty"`
	Instructions string             `json:"instructions,omitempty"`
}

// Create handles POST /reminders for medicines entered by hand rather than
// scanned. It runs the same synthesis as the scan pipeline.
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	uid := userID(r)
	if uid == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.MedicineName == "" {
		jsonError(w, "medicine_name is required", http.StatusBadRequest)
		return
	}
	if req.TimesPerDay < 1 {
		req.TimesPerDay = 1
	}

	med := medicine.Medicine{
		Name:         req.MedicineName,
		Dosage:       req.Dosage,
		Frequency:    medicine.Frequency{Times: req.TimesPerDay, Period: "daily"},
		Duration:     req.Duration,
		Instructions: req.Instructions,
	}

	now := h.now().UTC()
	rems, err := reminder.FromMedicines([]medicine.Medicine{med}, uid, "", now)
	if err != nil {
		h.logger.Error("reminder synthesis failed", zap.Error(err))
		jsonError(w, "failed to create reminder", http.StatusInternalServerError)
		return
	}
	rem := rems[0]

	event, err := reminder.NewEvent(rem, reminder.EventReminderCreated, reminder.ReminderCreatedData{
		ReminderID:   rem.ID,
		MedicineName: rem.MedicineName,
		SlotCount:    len(rem.Schedule.Times),
		NextDue:      rem.NextDue,
	}, now)
	if err != nil {
		jsonError(w, "failed to create reminder", http.StatusInternalServerError)
		return
	}

	if err := h.repo.Save(ctx, rem, event); err != nil {
		h.logger.Error("save reminder failed", zap.Error(err))
		jsonError(w, "failed to save reminder", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, rem)
}

// List handles GET /reminders
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.repo.ListByUser(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("list reminders failed", zap.Error(err))
		jsonError(w, "failed to list reminders", http.StatusInternalServerError)
		return
	}
	if reminders == nil {
		reminders = []*reminder.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

// Get handles GET /reminders/{id}
func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	rem, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		jsonError(w, "reminder not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

// MarkTakenRequest is the body for confirming a dose
type MarkTakenRequest struct {
	At string `json:"at,omitempty"` // HH:MM, defaults to the current time
}

// MarkTaken handles POST /reminders/{id}/taken
func (h *ReminderHandler) MarkTaken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MarkTakenRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	rem, err := h.repo.Get(ctx, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		jsonError(w, "reminder not found", http.StatusNotFound)
		return
	}

	now := h.now().UTC()
	if err := reminder.MarkTaken(rem, now, req.At); err != nil {
		h.logger.Error("mark taken failed", zap.String("id", rem.ID), zap.Error(err))
		jsonError(w, "reminder schedule is invalid", http.StatusConflict)
		return
	}

	event, err := reminder.NewEvent(rem, reminder.EventDoseTaken, reminder.DoseTakenData{
		ReminderID:   rem.ID,
		MedicineName: rem.MedicineName,
		TakenAt:      rem.LastTaken.Time,
		NextDue:      rem.NextDue,
	}, now)
	if err != nil {
		jsonError(w, "failed to record dose", http.StatusInternalServerError)
		return
	}

	if err := h.repo.Update(ctx, rem, event); err != nil {
		h.logger.Error("update reminder failed", zap.Error(err))
		jsonError(w, "failed to record dose", http.StatusInternalServerError)
		return
	}
	if h.metrics != nil {
		h.metrics.DosesTaken.Inc()
	}

	writeJSON(w, http.StatusOK, rem)
}

// MarkMissedRequest is the body for reporting a missed dose
type MarkMissedRequest struct {
	Reason string `json:"reason,omitempty"`
}

// MarkMissed handles POST /reminders/{id}/missed
func (h *ReminderHandler) MarkMissed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MarkMissedRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	rem, err := h.repo.Get(ctx, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		jsonError(w, "reminder not found", http.StatusNotFound)
		return
	}

	now := h.now().UTC()
	missedSlot := ""
	if rem.NextDue != nil {
		missedSlot = rem.NextDue.Time
	}
	if err := reminder.MarkMissed(rem, now, req.Reason); err != nil {
		h.logger.Error("mark missed failed", zap.String("id", rem.ID), zap.Error(err))
		jsonError(w, "reminder schedule is invalid", http.StatusConflict)
		return
	}

	reason := req.Reason
	if len(rem.MissedDoses) > 0 {
		reason = rem.MissedDoses[len(rem.MissedDoses)-1].Reason
	}
	event, err := reminder.NewEvent(rem, reminder.EventDoseMissed, reminder.DoseMissedData{
		ReminderID:   rem.ID,
		MedicineName: rem.MedicineName,
		MissedSlot:   missedSlot,
		Reason:       reason,
		NextDue:      rem.NextDue,
	}, now)
	if err != nil {
		jsonError(w, "failed to record missed dose", http.StatusInternalServerError)
		return
	}

	if err := h.repo.Update(ctx, rem, event); err != nil {
		h.logger.Error("update reminder failed", zap.Error(err))
		jsonError(w, "failed to record missed dose", http.StatusInternalServerError)
		return
	}
	if h.metrics != nil {
		h.metrics.DosesMissed.Inc()
	}

	writeJSON(w, http.StatusOK, rem)
}

// Toggle handles PATCH /reminders/{id}/toggle, flipping between active and
// paused. Completed and cancelled reminders are left alone.
func (h *ReminderHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rem, err := h.repo.Get(ctx, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		jsonError(w, "reminder not found", http.StatusNotFound)
		return
	}

	if rem.Status != reminder.StatusActive && rem.Status != reminder.StatusPaused {
		jsonError(w, "reminder is in a terminal state", http.StatusConflict)
		return
	}

	now := h.now().UTC()
	status := reminder.Toggle(rem, now)

	eventType := reminder.EventReminderPaused
	if status == reminder.StatusActive {
		eventType = reminder.EventReminderResumed
	}
	event, err := reminder.NewEvent(rem, eventType, map[string]string{
		"reminder_id": rem.ID,
		"status":      string(status),
	}, now)
	if err != nil {
		jsonError(w, "failed to toggle reminder", http.StatusInternalServerError)
		return
	}

	if err := h.repo.Update(ctx, rem, event); err != nil {
		h.logger.Error("update reminder failed", zap.Error(err))
		jsonError(w, "failed to toggle reminder", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":     rem.ID,
		"status": string(status),
	})
}

// Delete handles DELETE /reminders/{id}
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id"), userID(r)); err != nil {
		jsonError(w, "reminder not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
