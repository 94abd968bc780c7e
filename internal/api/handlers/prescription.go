// Package handlers provides HTTP handlers for the adherence API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/medminder/go-mas/internal/api/middleware"
	"github.com/medminder/go-mas/internal/domain/prescription"
	"github.com/medminder/go-mas/internal/domain/reminder"
)

// PrescriptionHandler handles prescription scan endpoints
type PrescriptionHandler struct {
	service   *prescription.Service
	repo      *prescription.Repository
	reminders *reminder.Repository
	logger    *zap.Logger
}

// NewPrescriptionHandler creates a new handler
func NewPrescriptionHandler(service *prescription.Service, repo *prescription.Repository, reminders *reminder.Repository, logger *zap.Logger) *PrescriptionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrescriptionHandler{
		service:   service,
		repo:      repo,
		reminders: reminders,
		logger:    logger,
	}
}

// Routes returns the handler routes
func (h *PrescriptionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	return r
}

// Create handles POST /prescriptions. The body carries either pre-recognized
// text or an image URL for the OCR collaborator; the scan pipeline produces
// the prescription record and its reminders in one shot.
func (h *PrescriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("prescription-handler")
	ctx, span := tracer.Start(ctx, "create_prescription")
	defer span.End()

	var req prescription.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		req.UserID = userID(r)
	}
	if req.UserID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.Text == "" && req.ImageURL == "" {
		jsonError(w, "text or image_url is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.ProcessScan(ctx, req)
	if err != nil {
		h.logger.Error("scan processing failed", zap.Error(err))
		jsonError(w, "failed to process prescription", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(
		attribute.String("prescription_id", result.Prescription.ID),
		attribute.Int("reminders", len(result.Reminders)),
	)
	h.logger.Info("prescription scanned",
		zap.String("id", result.Prescription.ID),
		zap.String("request_id", middleware.GetRequestID(ctx)),
		zap.Int("medicines", len(result.Prescription.Medicines)),
	)

	writeJSON(w, http.StatusCreated, result)
}

// Get handles GET /prescriptions/{id}
func (h *PrescriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		jsonError(w, "prescription not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// List handles GET /prescriptions
func (h *PrescriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	prescriptions, err := h.repo.ListByUser(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("list prescriptions failed", zap.Error(err))
		jsonError(w, "failed to list prescriptions", http.StatusInternalServerError)
		return
	}
	if prescriptions == nil {
		prescriptions = []*prescription.Prescription{}
	}
	writeJSON(w, http.StatusOK, prescriptions)
}

// Delete handles DELETE /prescriptions/{id}. The prescription's reminders
// are removed with it.
func (h *PrescriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(ctx, id, userID(r)); err != nil {
		jsonError(w, "prescription not found", http.StatusNotFound)
		return
	}

	removed, err := h.reminders.DeleteByPrescription(ctx, id)
	if err != nil {
		h.logger.Error("reminder cascade failed",
			zap.String("prescription_id", id),
			zap.Error(err))
		jsonError(w, "failed to delete reminders", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":                id,
		"reminders_deleted": removed,
	})
}

// userID resolves the acting user from the request. The mobile client sends
// it as a header; query param is kept for manual testing.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("user_id")
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}
