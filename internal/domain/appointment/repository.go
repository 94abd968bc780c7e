package appointment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/medminder/go-mas/internal/infrastructure/postgres"
)

// Repository provides appointment persistence over Postgres
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{pool: pool, logger: logger}
}

// SaveWithChildren inserts a root appointment and its generated occurrences
// in one transaction, recording the lifecycle event in the outbox.
func (r *Repository) SaveWithChildren(ctx context.Context, root *Appointment, children []*Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	root.ChildIDs = root.ChildIDs[:0]
	for _, c := range children {
		root.ChildIDs = append(root.ChildIDs, c.ID)
	}

	if err := insertAppointment(ctx, tx, root); err != nil {
		return err
	}
	for _, c := range children {
		if err := insertAppointment(ctx, tx, c); err != nil {
			return err
		}
	}

	if err := writeLifecycleEvent(ctx, tx, root, "AppointmentScheduled", map[string]interface{}{
		"appointment_id": root.ID,
		"occurrences":    len(children),
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get retrieves an appointment scoped to a user
func (r *Repository) Get(ctx context.Context, id, userID string) (*Appointment, error) {
	query := selectColumns + ` WHERE id = $1 AND user_id = $2`
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, fmt.Errorf("appointment not found: %s", id)
	}
	return appt, nil
}

// ListByUser retrieves all appointments for a user in calendar order
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*Appointment, error) {
	query := selectColumns + ` WHERE user_id = $1 ORDER BY date ASC, time ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}
	return appointments, rows.Err()
}

// Update persists a mutated appointment
func (r *Repository) Update(ctx context.Context, appt *Appointment) error {
	query := `
		UPDATE appointments
		SET doctor_name = $2, doctor_specialization = $3, hospital = $4,
		    date = $5, time = $6, duration = $7, type = $8, status = $9,
		    reason = $10, notes = $11, reminders = $12, location = $13,
		    child_ids = $14, updated_at = $15
		WHERE id = $1
	`
	hospital, location, reminders, childIDs, err := marshalParts(appt)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, query,
		appt.ID, appt.DoctorName, appt.DoctorSpecialization, hospital,
		appt.Date, appt.Time, appt.Duration, appt.Type, appt.Status,
		appt.Reason, appt.Notes, reminders, location, childIDs, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("appointment not found: %s", appt.ID)
	}
	return nil
}

// ApplyStatusChanges applies a cascade fan-out atomically, recording one
// lifecycle event for the root.
func (r *Repository) ApplyStatusChanges(ctx context.Context, root *Appointment, changes []StatusChange) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, ch := range changes {
		if _, err := tx.Exec(ctx,
			`UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`,
			ch.ID, ch.Status); err != nil {
			return fmt.Errorf("apply status change %s: %w", ch.ID, err)
		}
	}

	if err := writeLifecycleEvent(ctx, tx, root, "AppointmentCancelled", map[string]interface{}{
		"appointment_id": root.ID,
		"cascaded":       len(changes) - 1,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteCascaded removes a root and all of its children in one transaction.
func (r *Repository) DeleteCascaded(ctx context.Context, ids []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, id := range ids {
		if _, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete appointment %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertAppointment(ctx context.Context, tx pgx.Tx, appt *Appointment) error {
	query := `
		INSERT INTO appointments
		(id, user_id, doctor_name, doctor_specialization, hospital, date, time,
		 duration, type, status, reason, notes, reminders, location,
		 is_recurring, recurring_pattern, parent_id, child_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20)
	`
	hospital, location, reminders, childIDs, err := marshalParts(appt)
	if err != nil {
		return err
	}
	var pattern []byte
	if appt.Pattern != nil {
		if pattern, err = json.Marshal(appt.Pattern); err != nil {
			return fmt.Errorf("marshal recurrence pattern: %w", err)
		}
	}
	_, err = tx.Exec(ctx, query,
		appt.ID, appt.UserID, appt.DoctorName, appt.DoctorSpecialization,
		hospital, appt.Date, appt.Time, appt.Duration, appt.Type, appt.Status,
		appt.Reason, appt.Notes, reminders, location, appt.IsRecurring,
		pattern, nullable(appt.ParentID), childIDs, appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func writeLifecycleEvent(ctx context.Context, tx pgx.Tx, appt *Appointment, eventType string, data map[string]interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return postgres.WriteEntry(ctx, tx, &postgres.OutboxEntry{
		AggregateID:   appt.ID,
		AggregateType: "Appointment",
		EventType:     eventType,
		Payload:       payload,
		Topic:         "appointment.events",
		Key:           appt.UserID,
	})
}

const selectColumns = `
	SELECT id, user_id, doctor_name, COALESCE(doctor_specialization, ''),
	       hospital, date, time, duration, type, status, COALESCE(reason, ''),
	       COALESCE(notes, ''), reminders, location, is_recurring,
	       recurring_pattern, COALESCE(parent_id, ''), child_ids,
	       created_at, updated_at
	FROM appointments
`

func marshalParts(appt *Appointment) (hospital, location, reminders, childIDs []byte, err error) {
	if hospital, err = json.Marshal(appt.Hospital); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal hospital: %w", err)
	}
	if location, err = json.Marshal(appt.Location); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal location: %w", err)
	}
	if reminders, err = json.Marshal(appt.Reminders); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal reminders: %w", err)
	}
	if childIDs, err = json.Marshal(appt.ChildIDs); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal child ids: %w", err)
	}
	return hospital, location, reminders, childIDs, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	appt := &Appointment{}
	var hospital, reminders, location, pattern, childIDs []byte

	err := row.Scan(
		&appt.ID, &appt.UserID, &appt.DoctorName, &appt.DoctorSpecialization,
		&hospital, &appt.Date, &appt.Time, &appt.Duration, &appt.Type,
		&appt.Status, &appt.Reason, &appt.Notes, &reminders, &location,
		&appt.IsRecurring, &pattern, &appt.ParentID, &childIDs,
		&appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(hospital, &appt.Hospital); err != nil {
		return nil, fmt.Errorf("unmarshal hospital: %w", err)
	}
	if err := json.Unmarshal(reminders, &appt.Reminders); err != nil {
		return nil, fmt.Errorf("unmarshal reminders: %w", err)
	}
	if err := json.Unmarshal(location, &appt.Location); err != nil {
		return nil, fmt.Errorf("unmarshal location: %w", err)
	}
	if len(pattern) > 0 {
		appt.Pattern = &RecurrencePattern{}
		if err := json.Unmarshal(pattern, appt.Pattern); err != nil {
			return nil, fmt.Errorf("unmarshal recurring pattern: %w", err)
		}
	}
	if len(childIDs) > 0 {
		if err := json.Unmarshal(childIDs, &appt.ChildIDs); err != nil {
			return nil, fmt.Errorf("unmarshal child ids: %w", err)
		}
	}
	return appt, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
