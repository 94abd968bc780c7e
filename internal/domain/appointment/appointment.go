// Package appointment implements appointments and recurring appointment
// expansion.
package appointment

import (
	"fmt"
	"time"
)

// Status represents appointment status
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
)

// Type represents the kind of visit
type Type string

const (
	TypeConsultation Type = "consultation"
	TypeFollowUp     Type = "follow-up"
	TypeEmergency    Type = "emergency"
	TypeRoutine      Type = "routine"
)

// Frequency represents how often a recurring appointment repeats
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// RecurrencePattern describes how a root appointment expands into future
// occurrences.
type RecurrencePattern struct {
	Frequency Frequency  `json:"frequency"`
	Interval  int        `json:"interval"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Hospital identifies the facility for a visit
type Hospital struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Location is where the visit takes place
type Location struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// RemindersConfig holds appointment reminder preferences
type RemindersConfig struct {
	Enabled       bool        `json:"enabled"`
	AdvanceNotice []int       `json:"advance_notice"` // hours before
	Sent          []time.Time `json:"sent,omitempty"`
}

// DefaultRemindersConfig returns the default appointment reminder settings
func DefaultRemindersConfig() RemindersConfig {
	return RemindersConfig{Enabled: true, AdvanceNotice: []int{24, 2, 1}}
}

// Appointment is a patient-owned visit record. A child generated from a
// recurring root always carries a ParentID back-reference; cancelling or
// deleting a root cascades to all children.
type Appointment struct {
	ID                   string             `json:"id"`
	UserID               string             `json:"user_id"`
	DoctorName           string             `json:"doctor_name"`
	DoctorSpecialization string             `json:"doctor_specialization,omitempty"`
	Hospital             Hospital           `json:"hospital"`
	Date                 time.Time          `json:"date"`
	Time                 string             `json:"time"`
	Duration             int                `json:"duration"` // minutes
	Type                 Type               `json:"type"`
	Status               Status             `json:"status"`
	Reason               string             `json:"reason,omitempty"`
	Notes                string             `json:"notes,omitempty"`
	Reminders            RemindersConfig    `json:"reminders"`
	Location             Location           `json:"location"`
	IsRecurring          bool               `json:"is_recurring"`
	Pattern              *RecurrencePattern `json:"recurring_pattern,omitempty"`
	ParentID             string             `json:"parent_appointment,omitempty"`
	ChildIDs             []string           `json:"child_appointments,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// Reschedule moves an appointment to a new date and time, keeping an audit
// trail in the notes.
func Reschedule(a *Appointment, newDate time.Time, newTime, reason string, now time.Time) {
	oldDate, oldTime := a.Date, a.Time
	a.Date = newDate
	a.Time = newTime
	a.Status = StatusRescheduled
	if reason != "" {
		a.Notes = fmt.Sprintf("%s\nRescheduled from %s %s to %s %s. Reason: %s",
			a.Notes, oldDate.Format("2006-01-02"), oldTime,
			newDate.Format("2006-01-02"), newTime, reason)
	}
	a.UpdatedAt = now
}

// IsUpcoming reports whether a scheduled appointment is still in the future.
func IsUpcoming(a *Appointment, now time.Time) bool {
	if a.Status != StatusScheduled && a.Status != StatusConfirmed {
		return false
	}
	return startOf(a).After(now)
}

// IsOverdue reports whether a scheduled appointment's start has passed
// without confirmation or completion.
func IsOverdue(a *Appointment, now time.Time) bool {
	return a.Status == StatusScheduled && startOf(a).Before(now)
}

func startOf(a *Appointment) time.Time {
	at, err := time.Parse("15:04", a.Time)
	if err != nil {
		return a.Date
	}
	return a.Date.Add(time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute)
}
