package reminder

import (
	"testing"
	"time"

	"github.com/medminder/go-mas/internal/domain/medicine"
)

func TestFromMedicines(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	meds := []medicine.Medicine{
		{
			Name:         "Paracetamol",
			Dosage:       medicine.Dosage{Amount: "500", Unit: "mg"},
			Frequency:    medicine.Frequency{Times: 2, Period: "daily"},
			Duration:     &medicine.Duration{Value: 7, Unit: "days"},
			Instructions: "Take as prescribed",
		},
		{
			Name:      "Amoxicillin",
			Frequency: medicine.Frequency{Times: 3, Period: "daily"},
			Duration:  &medicine.Duration{Value: 5, Unit: "days"},
		},
	}

	reminders, err := FromMedicines(meds, "user-1", "rx-1", now)
	if err != nil {
		t.Fatalf("FromMedicines: %v", err)
	}
	if len(reminders) != 2 {
		t.Fatalf("got %d reminders, want 2", len(reminders))
	}

	first := reminders[0]
	if first.MedicineName != "Paracetamol" {
		t.Errorf("medicine name = %s", first.MedicineName)
	}
	if first.UserID != "user-1" || first.PrescriptionID != "rx-1" {
		t.Errorf("ownership = %s/%s", first.UserID, first.PrescriptionID)
	}
	if first.ID == "" {
		t.Error("expected generated ID")
	}
	if len(first.Schedule.Times) != 2 {
		t.Errorf("slot count = %d, want 2", len(first.Schedule.Times))
	}
	if first.Schedule.EndDate == nil || !first.Schedule.EndDate.Equal(now.AddDate(0, 0, 7)) {
		t.Errorf("end date = %v, want now+7d", first.Schedule.EndDate)
	}
	if !first.Schedule.IsActive || first.Status != StatusActive {
		t.Errorf("status = %s active = %v", first.Status, first.Schedule.IsActive)
	}
	if first.Notifications != DefaultNotifications() {
		t.Errorf("notifications = %+v", first.Notifications)
	}

	second := reminders[1]
	if len(second.Schedule.Times) != 3 {
		t.Errorf("slot count = %d, want 3", len(second.Schedule.Times))
	}
}

func TestFromMedicinesComputesNextDue(t *testing.T) {
	// 09:00: the 08:00 slot has passed, 20:00 is next.
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	meds := []medicine.Medicine{{
		Name:      "Metformin",
		Frequency: medicine.Frequency{Times: 2, Period: "daily"},
	}}

	reminders, err := FromMedicines(meds, "user-1", "", now)
	if err != nil {
		t.Fatalf("FromMedicines: %v", err)
	}
	r := reminders[0]
	if r.NextDue == nil {
		t.Fatal("reminder created without a next due time")
	}
	if r.NextDue.Time != "20:00" {
		t.Errorf("next due = %s, want 20:00", r.NextDue.Time)
	}
}

func TestFromMedicinesEmpty(t *testing.T) {
	reminders, err := FromMedicines(nil, "user-1", "rx-1", time.Now())
	if err != nil {
		t.Fatalf("FromMedicines: %v", err)
	}
	if len(reminders) != 0 {
		t.Errorf("got %d reminders from no medicines", len(reminders))
	}
}

func TestFromMedicinesFrequencyFallback(t *testing.T) {
	// Out-of-range frequencies fall back to the single morning slot.
	now := time.Date(2024, 6, 10, 5, 0, 0, 0, time.UTC)
	meds := []medicine.Medicine{{
		Name:      "Aspirin",
		Frequency: medicine.Frequency{Times: 9, Period: "daily"},
	}}

	reminders, err := FromMedicines(meds, "user-1", "", now)
	if err != nil {
		t.Fatalf("FromMedicines: %v", err)
	}
	if got := len(reminders[0].Schedule.Times); got != 1 {
		t.Errorf("slot count = %d, want fallback 1", got)
	}
	if reminders[0].NextDue.Time != "08:00" {
		t.Errorf("next due = %s, want 08:00", reminders[0].NextDue.Time)
	}
}
