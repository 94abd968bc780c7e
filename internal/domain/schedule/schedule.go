// Package schedule implements dosing schedule synthesis and next-due
// computation for medication reminders.
package schedule

import (
	"time"

	"github.com/medminder/go-mas/internal/domain/medicine"
)

// Type represents the schedule kind
type Type string

const (
	TypeDaily  Type = "daily"
	TypeWeekly Type = "weekly"
	TypeCustom Type = "custom"
)

// TimeSlot is a time-of-day dosing slot
type TimeSlot struct {
	Time  string `json:"time"`
	Label string `json:"label"`
}

// Schedule is the set of time slots and active date range governing when a
// reminder is due. Slots are unique by time-of-day and the set is non-empty
// whenever IsActive is true.
type Schedule struct {
	Type      Type       `json:"type"`
	Times     []TimeSlot `json:"times"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// slotTable is the canonical slot set per times-per-day, ascending by time.
var slotTable = map[int][]TimeSlot{
	1: {{Time: "08:00", Label: "morning"}},
	2: {{Time: "08:00", Label: "morning"}, {Time: "20:00", Label: "evening"}},
	3: {{Time: "08:00", Label: "morning"}, {Time: "14:00", Label: "afternoon"}, {Time: "20:00", Label: "evening"}},
	4: {{Time: "06:00", Label: "early morning"}, {Time: "12:00", Label: "noon"}, {Time: "18:00", Label: "evening"}, {Time: "22:00", Label: "night"}},
}

// SlotsFor returns the canonical time slots for a dosing frequency. Any
// value outside 1-4 falls back to the single morning slot.
func SlotsFor(timesPerDay int) []TimeSlot {
	slots, ok := slotTable[timesPerDay]
	if !ok {
		slots = slotTable[1]
	}
	out := make([]TimeSlot, len(slots))
	copy(out, slots)
	return out
}

// EndDateFor converts a course duration into an absolute end date relative
// to now. Returns nil when no duration is given. An unrecognized unit
// defaults to seven days.
func EndDateFor(d *medicine.Duration, now time.Time) *time.Time {
	if d == nil || d.Value == 0 {
		return nil
	}
	var end time.Time
	switch d.Unit {
	case "days":
		end = now.AddDate(0, 0, d.Value)
	case "weeks":
		end = now.AddDate(0, 0, d.Value*7)
	case "months":
		end = now.AddDate(0, d.Value, 0)
	default:
		end = now.AddDate(0, 0, 7)
	}
	return &end
}
