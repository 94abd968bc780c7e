package appointment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRecurrenceUnbounded indicates a recurrence pattern with neither an end
// date nor an occurrence cap. Generation fails fast instead of looping.
var ErrRecurrenceUnbounded = errors.New("recurrence pattern has no end date and no occurrence cap")

// ExpandRecurrence produces the ordered future occurrences of a recurring
// root appointment. Occurrence n is the root date stepped forward n times
// (weekly: interval*7 days; monthly: interval months; quarterly: interval*3
// months); the root's own date is never re-emitted. Month steps are always
// taken from the root date and clamped to the last valid day of the target
// month, so a Jan 31 root yields Feb 29, Mar 31, Apr 30 rather than
// drifting to the 29th after February. Generation stops when the candidate
// date passes the pattern's end date or maxOccurrences children exist;
// at least one bound must be supplied.
func ExpandRecurrence(root *Appointment, maxOccurrences int, now time.Time) ([]*Appointment, error) {
	if !root.IsRecurring || root.Pattern == nil {
		return nil, nil
	}
	p := root.Pattern
	if p.Interval < 1 {
		return nil, fmt.Errorf("recurrence interval must be at least 1, got %d", p.Interval)
	}
	if p.EndDate == nil && maxOccurrences <= 0 {
		return nil, ErrRecurrenceUnbounded
	}

	var children []*Appointment
	for n := 1; maxOccurrences <= 0 || len(children) < maxOccurrences; n++ {
		next, err := occurrenceDate(root.Date, p, n)
		if err != nil {
			return nil, err
		}
		if p.EndDate != nil && next.After(*p.EndDate) {
			break
		}
		children = append(children, child(root, next, now))
	}
	return children, nil
}

func occurrenceDate(rootDate time.Time, p *RecurrencePattern, n int) (time.Time, error) {
	switch p.Frequency {
	case FrequencyWeekly:
		return rootDate.AddDate(0, 0, 7*p.Interval*n), nil
	case FrequencyMonthly:
		return addMonthsClamped(rootDate, p.Interval*n), nil
	case FrequencyQuarterly:
		return addMonthsClamped(rootDate, 3*p.Interval*n), nil
	default:
		return time.Time{}, fmt.Errorf("unknown recurrence frequency %q", p.Frequency)
	}
}

// addMonthsClamped adds months preserving calendar semantics: when the
// source day does not exist in the target month, the result lands on the
// target month's last day instead of overflowing.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := lastDayOfMonth(firstOfTarget); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// child copies the root's descriptive fields into a fresh occurrence.
func child(root *Appointment, date time.Time, now time.Time) *Appointment {
	return &Appointment{
		ID:                   uuid.New().String(),
		UserID:               root.UserID,
		DoctorName:           root.DoctorName,
		DoctorSpecialization: root.DoctorSpecialization,
		Hospital:             root.Hospital,
		Date:                 date,
		Time:                 root.Time,
		Duration:             root.Duration,
		Type:                 root.Type,
		Status:               StatusScheduled,
		Reason:               root.Reason,
		Notes:                root.Notes,
		Reminders:            root.Reminders,
		Location:             root.Location,
		ParentID:             root.ID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// StatusChange is one element of a cascade fan-out.
type StatusChange struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// CancelCascade returns the status changes that cancelling a root implies:
// the root itself and every child. The fan-out is returned rather than
// applied so persistence stays outside the core.
func CancelCascade(root *Appointment) []StatusChange {
	changes := make([]StatusChange, 0, len(root.ChildIDs)+1)
	changes = append(changes, StatusChange{ID: root.ID, Status: StatusCancelled})
	for _, childID := range root.ChildIDs {
		changes = append(changes, StatusChange{ID: childID, Status: StatusCancelled})
	}
	return changes
}

// DeleteCascade returns the IDs deleted when a root is deleted: the root
// and every child.
func DeleteCascade(root *Appointment) []string {
	ids := make([]string, 0, len(root.ChildIDs)+1)
	ids = append(ids, root.ID)
	ids = append(ids, root.ChildIDs...)
	return ids
}
