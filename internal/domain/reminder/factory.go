package reminder

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medminder/go-mas/internal/domain/medicine"
	"github.com/medminder/go-mas/internal/domain/schedule"
)

// FromMedicines builds one reminder per extracted medicine, anchored to a
// patient and optionally to the source prescription. Each reminder gets a
// daily schedule with canonical slots for the medicine's dosing frequency,
// an end date derived from its course duration, and a freshly computed next
// due time: a reminder is never handed to persistence with a stale or
// absent NextDue.
func FromMedicines(meds []medicine.Medicine, userID, prescriptionID string, now time.Time) ([]*Reminder, error) {
	reminders := make([]*Reminder, 0, len(meds))
	for _, m := range meds {
		r := &Reminder{
			ID:             uuid.New().String(),
			UserID:         userID,
			PrescriptionID: prescriptionID,
			MedicineName:   m.Name,
			Dosage:         m.Dosage,
			Instructions:   m.Instructions,
			Schedule: schedule.Schedule{
				Type:      schedule.TypeDaily,
				Times:     schedule.SlotsFor(m.Frequency.Times),
				StartDate: now,
				EndDate:   schedule.EndDateFor(m.Duration, now),
				IsActive:  true,
			},
			Notifications: DefaultNotifications(),
			Status:        StatusActive,
			RefillAlert:   RefillAlert{Enabled: true, Threshold: 3},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := Recompute(r, now); err != nil {
			return nil, fmt.Errorf("reminder for %s: %w", m.Name, err)
		}
		reminders = append(reminders, r)
	}
	return reminders, nil
}
