package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrScheduleInvalid indicates a schedule whose slot set is empty or
// malformed reached the due-time computation. A silently defaulted dosing
// time is a safety issue, so this is surfaced rather than recovered.
var ErrScheduleInvalid = errors.New("schedule is invalid: empty or malformed time slots")

// DueTime is a concrete (date, time-of-day) at which a dose is expected.
// Date is truncated to midnight in its location.
type DueTime struct {
	Date time.Time `json:"date"`
	Time string    `json:"time"`
}

// NextDue computes the earliest future due time for a schedule relative to
// now: the first slot whose time-of-day is strictly later than now, or the
// first slot of the next day when all of today's slots have passed. It
// returns (nil, nil) for an inactive schedule or one whose end date has
// passed; callers must not notify in that case. The computation is a pure
// function of the schedule and now, so repeated calls with the same inputs
// yield the same result.
func NextDue(s Schedule, now time.Time) (*DueTime, error) {
	if !s.IsActive {
		return nil, nil
	}
	if s.EndDate != nil {
		endOfDay := midnight(*s.EndDate).AddDate(0, 0, 1)
		if !now.Before(endOfDay) {
			return nil, nil
		}
	}
	if len(s.Times) == 0 {
		return nil, ErrScheduleInvalid
	}

	slots, err := sortedSlots(s.Times)
	if err != nil {
		return nil, err
	}

	today := midnight(now)
	for _, slot := range slots {
		if slot.at(today).After(now) {
			return &DueTime{Date: today, Time: slot.text}, nil
		}
	}
	// All of today's slots have passed: wrap to tomorrow's first slot.
	return &DueTime{Date: today.AddDate(0, 0, 1), Time: slots[0].text}, nil
}

type parsedSlot struct {
	text   string
	minute int
}

// at anchors the slot's time-of-day to a concrete date.
func (p parsedSlot) at(day time.Time) time.Time {
	return day.Add(time.Duration(p.minute) * time.Minute)
}

func sortedSlots(times []TimeSlot) ([]parsedSlot, error) {
	slots := make([]parsedSlot, 0, len(times))
	for _, t := range times {
		parsed, err := time.Parse("15:04", t.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %q", ErrScheduleInvalid, t.Time)
		}
		slots = append(slots, parsedSlot{text: t.Time, minute: parsed.Hour()*60 + parsed.Minute()})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].minute < slots[j].minute })
	return slots, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
