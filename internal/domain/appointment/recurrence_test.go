package appointment

import (
	"errors"
	"testing"
	"time"
)

func recurringRoot(freq Frequency, interval int, endDate *time.Time) *Appointment {
	return &Appointment{
		ID:          "root-1",
		UserID:      "user-1",
		DoctorName:  "Dr. Rao",
		Hospital:    Hospital{Name: "City Clinic"},
		Date:        time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Time:        "10:30",
		Duration:    30,
		Type:        TypeFollowUp,
		Status:      StatusScheduled,
		Reminders:   DefaultRemindersConfig(),
		IsRecurring: true,
		Pattern:     &RecurrencePattern{Frequency: freq, Interval: interval, EndDate: endDate},
	}
}

func TestExpandMonthlyClampsToMonthEnd(t *testing.T) {
	end := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
	root := recurringRoot(FrequencyMonthly, 1, &end)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	children, err := ExpandRecurrence(root, 0, now)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}

	want := []time.Time{
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), // leap-safe last day
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	if len(children) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(children), len(want))
	}
	for i, w := range want {
		if !children[i].Date.Equal(w) {
			t.Errorf("occurrence %d = %v, want %v", i, children[i].Date, w)
		}
	}
	for _, c := range children {
		if c.Date.Equal(root.Date) {
			t.Error("root date re-emitted as an occurrence")
		}
	}
}

func TestExpandWeeklyWindowExcludesOutOfRange(t *testing.T) {
	root := recurringRoot(FrequencyWeekly, 2, nil)
	end := root.Date.AddDate(0, 0, 10)
	root.Pattern.EndDate = &end
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	children, err := ExpandRecurrence(root, 0, now)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	// Step is 14 days; only... nothing fits a 10-day window.
	if len(children) != 0 {
		t.Fatalf("got %d occurrences, want 0 (14-day step > 10-day window)", len(children))
	}
}

func TestExpandWeekly(t *testing.T) {
	root := recurringRoot(FrequencyWeekly, 1, nil)
	end := root.Date.AddDate(0, 0, 21)
	root.Pattern.EndDate = &end
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	children, err := ExpandRecurrence(root, 0, now)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(children))
	}
	if !children[0].Date.Equal(root.Date.AddDate(0, 0, 7)) {
		t.Errorf("first occurrence = %v, want one step after root", children[0].Date)
	}
}

func TestExpandQuarterly(t *testing.T) {
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	root := recurringRoot(FrequencyQuarterly, 1, &end)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	children, err := ExpandRecurrence(root, 0, now)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	want := []time.Time{
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC),
	}
	if len(children) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(children), len(want))
	}
	for i, w := range want {
		if !children[i].Date.Equal(w) {
			t.Errorf("occurrence %d = %v, want %v", i, children[i].Date, w)
		}
	}
}

func TestExpandUnboundedFailsFast(t *testing.T) {
	root := recurringRoot(FrequencyMonthly, 1, nil)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	_, err := ExpandRecurrence(root, 0, now)
	if !errors.Is(err, ErrRecurrenceUnbounded) {
		t.Errorf("got %v, want ErrRecurrenceUnbounded", err)
	}
}

func TestExpandOccurrenceCap(t *testing.T) {
	root := recurringRoot(FrequencyMonthly, 1, nil)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	children, err := ExpandRecurrence(root, 5, now)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if len(children) != 5 {
		t.Errorf("got %d occurrences, want cap of 5", len(children))
	}
}

func TestExpandInvalidInterval(t *testing.T) {
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	root := recurringRoot(FrequencyMonthly, 0, &end)

	if _, err := ExpandRecurrence(root, 0, time.Now()); err == nil {
		t.Error("expected error for interval 0")
	}
}

func TestExpandNonRecurringRoot(t *testing.T) {
	root := recurringRoot(FrequencyMonthly, 1, nil)
	root.IsRecurring = false

	children, err := ExpandRecurrence(root, 10, time.Now())
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if children != nil {
		t.Errorf("non-recurring root produced %d occurrences", len(children))
	}
}

func TestChildCopiesDescriptiveFields(t *testing.T) {
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	root := recurringRoot(FrequencyMonthly, 1, &end)
	root.Reason = "BP review"
	root.Notes = "bring reports"
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	children, err := ExpandRecurrence(root, 0, now)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if len(children) == 0 {
		t.Fatal("expected occurrences")
	}
	c := children[0]
	if c.ParentID != root.ID {
		t.Errorf("parent = %s, want %s", c.ParentID, root.ID)
	}
	if c.ID == root.ID || c.ID == "" {
		t.Errorf("child ID = %q", c.ID)
	}
	if c.DoctorName != root.DoctorName || c.Hospital != root.Hospital ||
		c.Time != root.Time || c.Duration != root.Duration ||
		c.Type != root.Type || c.Reason != root.Reason || c.Notes != root.Notes {
		t.Error("descriptive fields not copied from root")
	}
	if c.IsRecurring || c.Pattern != nil {
		t.Error("child must not itself be recurring")
	}
	if c.Status != StatusScheduled {
		t.Errorf("child status = %s, want scheduled", c.Status)
	}
}

func TestCancelCascade(t *testing.T) {
	root := recurringRoot(FrequencyMonthly, 1, nil)
	root.ChildIDs = []string{"c1", "c2", "c3"}

	changes := CancelCascade(root)
	if len(changes) != 4 {
		t.Fatalf("got %d changes, want 4 (root + 3 children)", len(changes))
	}
	if changes[0].ID != root.ID {
		t.Errorf("first change %s, want root", changes[0].ID)
	}
	for _, ch := range changes {
		if ch.Status != StatusCancelled {
			t.Errorf("change %s status = %s, want cancelled", ch.ID, ch.Status)
		}
	}
}

func TestDeleteCascade(t *testing.T) {
	root := recurringRoot(FrequencyMonthly, 1, nil)
	root.ChildIDs = []string{"c1", "c2"}

	ids := DeleteCascade(root)
	if len(ids) != 3 {
		t.Fatalf("got %d ids, want 3", len(ids))
	}
	if ids[0] != root.ID {
		t.Errorf("first id %s, want root", ids[0])
	}
}

func TestReschedule(t *testing.T) {
	root := recurringRoot(FrequencyMonthly, 1, nil)
	now := time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)
	newDate := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

	Reschedule(root, newDate, "16:00", "clinic closed", now)
	if root.Status != StatusRescheduled {
		t.Errorf("status = %s, want rescheduled", root.Status)
	}
	if !root.Date.Equal(newDate) || root.Time != "16:00" {
		t.Errorf("moved to %v %s", root.Date, root.Time)
	}
	if root.Notes == "" {
		t.Error("expected audit note")
	}
}
