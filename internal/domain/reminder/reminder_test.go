package reminder

import (
	"testing"
	"time"

	"github.com/medminder/go-mas/internal/domain/schedule"
)

func testReminder() *Reminder {
	return &Reminder{
		ID:           "rem-1",
		UserID:       "user-1",
		MedicineName: "Paracetamol",
		Schedule: schedule.Schedule{
			Type:      schedule.TypeDaily,
			Times:     []schedule.TimeSlot{{Time: "08:00"}, {Time: "14:00"}, {Time: "20:00"}},
			StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			IsActive:  true,
		},
		Notifications: DefaultNotifications(),
		Status:        StatusActive,
	}
}

func TestMarkTakenAdvancesNextDue(t *testing.T) {
	r := testReminder()
	now := time.Date(2024, 6, 10, 8, 30, 0, 0, time.UTC)

	if err := Recompute(r, now); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if r.NextDue == nil || r.NextDue.Time != "14:00" {
		t.Fatalf("next due = %+v, want 14:00", r.NextDue)
	}

	taken := time.Date(2024, 6, 10, 14, 5, 0, 0, time.UTC)
	if err := MarkTaken(r, taken, "14:05"); err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if r.LastTaken == nil || !r.LastTaken.Confirmed || r.LastTaken.Time != "14:05" {
		t.Errorf("last taken = %+v", r.LastTaken)
	}
	if r.NextDue == nil || r.NextDue.Time != "20:00" {
		t.Errorf("next due after taken = %+v, want 20:00", r.NextDue)
	}
}

func TestMarkTakenDefaultsTimeOfDay(t *testing.T) {
	r := testReminder()
	now := time.Date(2024, 6, 10, 9, 15, 0, 0, time.UTC)

	if err := MarkTaken(r, now, ""); err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if r.LastTaken.Time != "09:15" {
		t.Errorf("last taken time = %s, want 09:15", r.LastTaken.Time)
	}
}

func TestMarkMissedRecordsSlotAndAdvances(t *testing.T) {
	r := testReminder()
	now := time.Date(2024, 6, 10, 8, 30, 0, 0, time.UTC)
	if err := Recompute(r, now); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	// The 14:00 dose never happens; the patient reports it at 15:00.
	reported := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	if err := MarkMissed(r, reported, "asleep"); err != nil {
		t.Fatalf("MarkMissed: %v", err)
	}
	if len(r.MissedDoses) != 1 {
		t.Fatalf("missed doses = %d, want 1", len(r.MissedDoses))
	}
	if r.MissedDoses[0].Time != "14:00" || r.MissedDoses[0].Reason != "asleep" {
		t.Errorf("missed dose = %+v", r.MissedDoses[0])
	}
	if r.NextDue == nil || r.NextDue.Time != "20:00" {
		t.Errorf("next due after missed = %+v, want 20:00", r.NextDue)
	}
}

func TestMarkMissedDefaultReason(t *testing.T) {
	r := testReminder()
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	if err := Recompute(r, now); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if err := MarkMissed(r, now, ""); err != nil {
		t.Fatalf("MarkMissed: %v", err)
	}
	if r.MissedDoses[0].Reason != "Forgot to take" {
		t.Errorf("reason = %q", r.MissedDoses[0].Reason)
	}
}

func TestToggle(t *testing.T) {
	r := testReminder()
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	if got := Toggle(r, now); got != StatusPaused {
		t.Errorf("first toggle = %s, want paused", got)
	}
	if got := Toggle(r, now); got != StatusActive {
		t.Errorf("second toggle = %s, want active", got)
	}

	r.Status = StatusCancelled
	if got := Toggle(r, now); got != StatusCancelled {
		t.Errorf("cancelled reminder toggled to %s", got)
	}
}

func TestIsDue(t *testing.T) {
	r := testReminder()
	now := time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC)
	if err := Recompute(r, now); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	if IsDue(r, time.Date(2024, 6, 10, 13, 59, 0, 0, time.UTC)) {
		t.Error("due before the slot time")
	}
	if !IsDue(r, time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)) {
		t.Error("not due at the slot time")
	}

	r.Status = StatusPaused
	if IsDue(r, time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)) {
		t.Error("paused reminder reported due")
	}
}

func TestRecomputeClearsNextDueWhenExpired(t *testing.T) {
	r := testReminder()
	end := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	r.Schedule.EndDate = &end

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	if err := Recompute(r, now); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if r.NextDue == nil {
		t.Fatal("expected due time inside the active range")
	}

	after := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	if err := Recompute(r, after); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if r.NextDue != nil {
		t.Errorf("next due = %+v after schedule expiry, want nil", r.NextDue)
	}
}
