package schedule

import (
	"errors"
	"testing"
	"time"
)

func threeSlotSchedule() Schedule {
	return Schedule{
		Type:      TypeDaily,
		Times:     []TimeSlot{{Time: "08:00"}, {Time: "14:00"}, {Time: "20:00"}},
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
}

func TestNextDueMidDay(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	due, err := NextDue(threeSlotSchedule(), now)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	if due == nil {
		t.Fatal("expected due time")
	}
	if due.Time != "14:00" {
		t.Errorf("got %s, want 14:00", due.Time)
	}
	if !due.Date.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got date %v, want today", due.Date)
	}
}

func TestNextDueWrapsToTomorrow(t *testing.T) {
	now := time.Date(2024, 6, 10, 21, 0, 0, 0, time.UTC)

	due, err := NextDue(threeSlotSchedule(), now)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	if due == nil {
		t.Fatal("expected due time")
	}
	if due.Time != "08:00" {
		t.Errorf("got %s, want 08:00", due.Time)
	}
	if !due.Date.Equal(time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got date %v, want tomorrow", due.Date)
	}
}

func TestNextDueExactSlotTimeIsNotDue(t *testing.T) {
	// A slot is due only when strictly later than now, so at exactly 08:00
	// the next dose is the 14:00 slot.
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	due, err := NextDue(threeSlotSchedule(), now)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	if due.Time != "14:00" {
		t.Errorf("got %s, want 14:00", due.Time)
	}
}

func TestNextDueInactiveSchedule(t *testing.T) {
	s := threeSlotSchedule()
	s.IsActive = false

	due, err := NextDue(s, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	if due != nil {
		t.Errorf("inactive schedule produced due time %+v", due)
	}
}

func TestNextDuePastEndDate(t *testing.T) {
	s := threeSlotSchedule()
	end := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	s.EndDate = &end

	due, err := NextDue(s, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	if due != nil {
		t.Errorf("expired schedule produced due time %+v", due)
	}
}

func TestNextDueOnEndDateStillDue(t *testing.T) {
	// The end date itself is still a dosing day.
	s := threeSlotSchedule()
	end := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	s.EndDate = &end

	due, err := NextDue(s, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	if due == nil || due.Time != "14:00" {
		t.Errorf("got %+v, want 14:00 on the end date", due)
	}
}

func TestNextDueEmptySlots(t *testing.T) {
	s := threeSlotSchedule()
	s.Times = nil

	_, err := NextDue(s, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrScheduleInvalid) {
		t.Errorf("got %v, want ErrScheduleInvalid", err)
	}
}

func TestNextDueMalformedSlot(t *testing.T) {
	s := threeSlotSchedule()
	s.Times = []TimeSlot{{Time: "8 o'clock"}}

	_, err := NextDue(s, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrScheduleInvalid) {
		t.Errorf("got %v, want ErrScheduleInvalid", err)
	}
}

func TestNextDueUnorderedSlots(t *testing.T) {
	// Slot order in storage must not affect the result.
	s := threeSlotSchedule()
	s.Times = []TimeSlot{{Time: "20:00"}, {Time: "08:00"}, {Time: "14:00"}}

	due, err := NextDue(s, time.Date(2024, 6, 10, 21, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	if due.Time != "08:00" {
		t.Errorf("got %s, want 08:00 (earliest slot after wrap)", due.Time)
	}
}

func TestNextDueIdempotent(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	s := threeSlotSchedule()

	first, err := NextDue(s, now)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	second, err := NextDue(s, now)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}
	if first.Time != second.Time || !first.Date.Equal(second.Date) {
		t.Errorf("recompute not idempotent: %+v vs %+v", first, second)
	}
}
