package reminder

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/medminder/go-mas/internal/domain/schedule"
)

// EventType represents the type of adherence event
type EventType string

const (
	EventReminderCreated   EventType = "ReminderCreated"
	EventDoseTaken         EventType = "DoseTaken"
	EventDoseMissed        EventType = "DoseMissed"
	EventReminderPaused    EventType = "ReminderPaused"
	EventReminderResumed   EventType = "ReminderResumed"
	EventReminderCancelled EventType = "ReminderCancelled"
)

// Event is an adherence event published through the outbox
type Event struct {
	ID          string          `json:"id"`
	ReminderID  string          `json:"reminder_id"`
	UserID      string          `json:"user_id"`
	EventType   EventType       `json:"event_type"`
	EventData   json.RawMessage `json:"event_data"`
	Timestamp   time.Time       `json:"timestamp"`
}

// NewEvent creates a new adherence event
func NewEvent(r *Reminder, eventType EventType, data interface{}, now time.Time) (*Event, error) {
	eventData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:         uuid.New().String(),
		ReminderID: r.ID,
		UserID:     r.UserID,
		EventType:  eventType,
		EventData:  eventData,
		Timestamp:  now,
	}, nil
}

// ReminderCreatedData describes a newly created reminder
type ReminderCreatedData struct {
	ReminderID   string            `json:"reminder_id"`
	MedicineName string            `json:"medicine_name"`
	SlotCount    int               `json:"slot_count"`
	NextDue      *schedule.DueTime `json:"next_due,omitempty"`
}

// DoseTakenData describes a confirmed dose
type DoseTakenData struct {
	ReminderID   string            `json:"reminder_id"`
	MedicineName string            `json:"medicine_name"`
	TakenAt      string            `json:"taken_at"`
	NextDue      *schedule.DueTime `json:"next_due,omitempty"`
}

// DoseMissedData describes a reported missed dose
type DoseMissedData struct {
	ReminderID   string            `json:"reminder_id"`
	MedicineName string            `json:"medicine_name"`
	MissedSlot   string            `json:"missed_slot"`
	Reason       string            `json:"reason"`
	NextDue      *schedule.DueTime `json:"next_due,omitempty"`
}
