// Package integration exercises the scan-to-reminder pipeline end to end,
// without external collaborators.
package integration

import (
	"testing"
	"time"

	"github.com/medminder/go-mas/internal/domain/appointment"
	"github.com/medminder/go-mas/internal/domain/medicine"
	"github.com/medminder/go-mas/internal/domain/reminder"
	"github.com/medminder/go-mas/pkg/idempotency"
)

func TestScanToReminderPipeline(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	text := "Paracetamol 500mg\nIbuprofen 3 times daily\nAmoxicillin twice daily"

	meds := medicine.Extract(text)
	if len(meds) != 3 {
		t.Fatalf("extracted %d medicines, want 3", len(meds))
	}

	confidence := medicine.Confidence(meds, text)
	if confidence <= 0 || confidence > 100 {
		t.Fatalf("confidence = %d, want (0, 100]", confidence)
	}

	rems, err := reminder.FromMedicines(meds, "user-1", "rx-1", now)
	if err != nil {
		t.Fatalf("FromMedicines: %v", err)
	}
	if len(rems) != 3 {
		t.Fatalf("synthesized %d reminders, want 3", len(rems))
	}

	// Slot counts follow each medicine's daily frequency
	wantSlots := map[string]int{
		"Paracetamol": 1,
		"Ibuprofen":   3,
		"Amoxicillin": 2,
	}
	// At 09:00 the one-dose schedule's 08:00 slot is gone; multi-dose
	// schedules still have a slot later today.
	wantNextDue := map[string]string{
		"Paracetamol": "08:00", // tomorrow
		"Ibuprofen":   "14:00",
		"Amoxicillin": "20:00",
	}
	for _, rem := range rems {
		if got := len(rem.Schedule.Times); got != wantSlots[rem.MedicineName] {
			t.Errorf("%s: %d slots, want %d", rem.MedicineName, got, wantSlots[rem.MedicineName])
		}
		if rem.NextDue == nil {
			t.Errorf("%s: next due not computed", rem.MedicineName)
			continue
		}
		if rem.NextDue.Time != wantNextDue[rem.MedicineName] {
			t.Errorf("%s: next due %s, want %s", rem.MedicineName, rem.NextDue.Time, wantNextDue[rem.MedicineName])
		}
	}

	// Confirming the 14:00 dose advances to the 20:00 slot
	ibu := rems[1]
	if err := reminder.MarkTaken(ibu, now.Add(5*time.Hour+30*time.Minute), ""); err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if ibu.NextDue == nil || ibu.NextDue.Time != "20:00" {
		t.Errorf("after 14:30 dose next due = %+v, want 20:00", ibu.NextDue)
	}

	// Missing the evening dose wraps to tomorrow's first slot
	if err := reminder.MarkMissed(ibu, now.Add(13*time.Hour), "asleep"); err != nil {
		t.Fatalf("MarkMissed: %v", err)
	}
	if ibu.NextDue == nil || ibu.NextDue.Time != "08:00" {
		t.Errorf("after missing 20:00 slot next due = %+v, want 08:00", ibu.NextDue)
	}
	if !ibu.NextDue.Date.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("next due date = %v, want tomorrow", ibu.NextDue.Date)
	}
	if len(ibu.MissedDoses) != 1 || ibu.MissedDoses[0].Reason != "asleep" {
		t.Errorf("missed doses = %+v", ibu.MissedDoses)
	}
}

func TestRecurringAppointmentLifecycle(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	root := &appointment.Appointment{
		ID:          "appt-root",
		UserID:      "user-1",
		DoctorName:  "Dr. Rao",
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Time:        "10:30",
		Duration:    30,
		Type:        appointment.TypeFollowUp,
		Status:      appointment.StatusScheduled,
		IsRecurring: true,
		Pattern: &appointment.RecurrencePattern{
			Frequency: appointment.FrequencyMonthly,
			Interval:  1,
			EndDate:   &end,
		},
	}

	children, err := appointment.ExpandRecurrence(root, 52, now)
	if err != nil {
		t.Fatalf("ExpandRecurrence: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("got %d occurrences, want 2 (Feb 15, Mar 15)", len(children))
	}
	for _, c := range children {
		if c.ParentID != root.ID {
			t.Errorf("child %s has parent %q", c.ID, c.ParentID)
		}
	}
	root.ChildIDs = []string{children[0].ID, children[1].ID}

	changes := appointment.CancelCascade(root)
	if len(changes) != 3 {
		t.Fatalf("cancel cascade touched %d appointments, want 3", len(changes))
	}
	for _, ch := range changes {
		if ch.Status != appointment.StatusCancelled {
			t.Errorf("change %+v, want cancelled", ch)
		}
	}
}

func TestNotificationDeduplicationKey(t *testing.T) {
	day := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	key1 := idempotency.GenerateKey("user-1", "Paracetamol", "08:00", day)
	key2 := idempotency.GenerateKey("user-1", "paracetamol", "08:00", day.Add(6*time.Hour))
	key3 := idempotency.GenerateKey("user-1", "Paracetamol", "20:00", day)
	key4 := idempotency.GenerateKey("user-1", "Paracetamol", "08:00", day.AddDate(0, 0, 1))

	if key1 != key2 {
		t.Error("same user, medicine, slot and day should produce one key")
	}
	if key1 == key3 {
		t.Error("different slot should produce a different key")
	}
	if key1 == key4 {
		t.Error("different day should produce a different key")
	}
}
