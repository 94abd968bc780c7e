// Package reminder implements medication reminders and their adherence
// lifecycle.
package reminder

import (
	"time"

	"github.com/medminder/go-mas/internal/domain/medicine"
	"github.com/medminder/go-mas/internal/domain/schedule"
)

// Status represents reminder status
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Notifications holds delivery preferences for a reminder
type Notifications struct {
	Voice         bool `json:"voice"`
	Text          bool `json:"text"`
	Push          bool `json:"push"`
	AdvanceNotice int  `json:"advance_notice"` // minutes
}

// DefaultNotifications returns the default delivery preferences
func DefaultNotifications() Notifications {
	return Notifications{Voice: true, Text: true, Push: true, AdvanceNotice: 5}
}

// LastTaken records the most recent confirmed dose
type LastTaken struct {
	Date      time.Time `json:"date"`
	Time      string    `json:"time"`
	Confirmed bool      `json:"confirmed"`
}

// MissedDose records a dose the patient reported missing
type MissedDose struct {
	Date   time.Time `json:"date"`
	Time   string    `json:"time"`
	Reason string    `json:"reason"`
}

// RefillAlert holds refill alerting state
type RefillAlert struct {
	Enabled   bool       `json:"enabled"`
	Threshold int        `json:"threshold"`
	LastAlert *time.Time `json:"last_alert,omitempty"`
}

// Reminder is a recurring dosing obligation for one medicine. NextDue is
// always the earliest future slot consistent with the schedule, or nil when
// the schedule is exhausted or inactive; every mutation that can move the
// due time goes through Recompute to keep that invariant.
type Reminder struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	PrescriptionID string            `json:"prescription_id,omitempty"`
	MedicineName   string            `json:"medicine_name"`
	Dosage         medicine.Dosage   `json:"dosage"`
	Instructions   string            `json:"instructions"`
	Schedule       schedule.Schedule `json:"schedule"`
	Notifications  Notifications     `json:"notifications"`
	Status         Status            `json:"status"`
	LastTaken      *LastTaken        `json:"last_taken,omitempty"`
	NextDue        *schedule.DueTime `json:"next_due,omitempty"`
	MissedDoses    []MissedDose      `json:"missed_doses,omitempty"`
	RefillAlert    RefillAlert       `json:"refill_alert"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Recompute refreshes the reminder's next due time from its schedule and
// the current moment. It is a free function taking now explicitly so the
// logic can be replayed deterministically in tests.
func Recompute(r *Reminder, now time.Time) error {
	due, err := schedule.NextDue(r.Schedule, now)
	if err != nil {
		return err
	}
	r.NextDue = due
	r.UpdatedAt = now
	return nil
}

// MarkTaken records a confirmed dose and recomputes the next due time. An
// empty at falls back to the current time of day.
func MarkTaken(r *Reminder, now time.Time, at string) error {
	if at == "" {
		at = now.Format("15:04")
	}
	r.LastTaken = &LastTaken{Date: now, Time: at, Confirmed: true}
	return Recompute(r, now)
}

// MarkMissed records a missed dose against the currently due slot and
// recomputes the next due time.
func MarkMissed(r *Reminder, now time.Time, reason string) error {
	if reason == "" {
		reason = "Forgot to take"
	}
	missed := MissedDose{Date: now, Reason: reason}
	if r.NextDue != nil {
		missed.Time = r.NextDue.Time
	}
	r.MissedDoses = append(r.MissedDoses, missed)
	return Recompute(r, now)
}

// Toggle flips a reminder between active and paused. Completed and
// cancelled reminders are terminal and unchanged.
func Toggle(r *Reminder, now time.Time) Status {
	switch r.Status {
	case StatusActive:
		r.Status = StatusPaused
	case StatusPaused:
		r.Status = StatusActive
	}
	r.UpdatedAt = now
	return r.Status
}

// IsDue reports whether the reminder's due time has arrived.
func IsDue(r *Reminder, now time.Time) bool {
	if r.Status != StatusActive || !r.Schedule.IsActive || r.NextDue == nil {
		return false
	}
	at, err := time.Parse("15:04", r.NextDue.Time)
	if err != nil {
		return false
	}
	due := r.NextDue.Date.Add(time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute)
	return !now.Before(due)
}
