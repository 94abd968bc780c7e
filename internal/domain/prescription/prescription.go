// Package prescription implements the prescription scan record and the
// scan processing pipeline that turns recognized text into reminders.
package prescription

import (
	"time"

	"github.com/medminder/go-mas/internal/domain/medicine"
)

// Status represents prescription status
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Prescription represents a scanned prescription and its extraction result
type Prescription struct {
	ID                   string              `json:"id"`
	UserID               string              `json:"user_id"`
	ImageURL             string              `json:"image_url,omitempty"`
	OriginalText         string              `json:"original_text"`
	Medicines            []medicine.Medicine `json:"medicines"`
	DoctorName           string              `json:"doctor_name,omitempty"`
	DoctorSpecialization string              `json:"doctor_specialization,omitempty"`
	Status               Status              `json:"status"`
	IsProcessed          bool                `json:"is_processed"`
	Confidence           int                 `json:"processing_confidence"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}
