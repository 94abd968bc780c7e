package reminder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/medminder/go-mas/internal/domain/schedule"
	"github.com/medminder/go-mas/internal/infrastructure/postgres"
)

// Repository provides reminder persistence over Postgres
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

// topicFor maps an adherence event to its outbox topic.
func topicFor(t EventType) string {
	switch t {
	case EventDoseTaken:
		return "dose.taken"
	case EventDoseMissed:
		return "dose.missed"
	default:
		return "reminder.events"
	}
}

// Save inserts a reminder and writes its events to the outbox in the same
// transaction.
func (r *Repository) Save(ctx context.Context, rem *Reminder, events ...*Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.insert(ctx, tx, rem); err != nil {
		return err
	}
	if err := r.writeEvents(ctx, tx, rem, events); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Update persists reminder mutations (taken/missed/toggle/edit) together
// with their events.
func (r *Repository) Update(ctx context.Context, rem *Reminder, events ...*Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE reminders
		SET medicine_name = $2, dosage = $3, instructions = $4, schedule = $5,
		    notifications = $6, status = $7, last_taken = $8, next_due = $9,
		    missed_doses = $10, refill_alert = $11, updated_at = $12
		WHERE id = $1
	`
	cols, err := marshalColumns(rem)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, query,
		rem.ID, rem.MedicineName, cols.dosage, rem.Instructions, cols.schedule,
		cols.notifications, rem.Status, cols.lastTaken, cols.nextDue,
		cols.missedDoses, cols.refillAlert, rem.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reminder not found: %s", rem.ID)
	}

	if err := r.writeEvents(ctx, tx, rem, events); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *Repository) insert(ctx context.Context, tx pgx.Tx, rem *Reminder) error {
	query := `
		INSERT INTO reminders
		(id, user_id, prescription_id, medicine_name, dosage, instructions,
		 schedule, notifications, status, last_taken, next_due, missed_doses,
		 refill_alert, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	cols, err := marshalColumns(rem)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query,
		rem.ID, rem.UserID, nullable(rem.PrescriptionID), rem.MedicineName,
		cols.dosage, rem.Instructions, cols.schedule, cols.notifications,
		rem.Status, cols.lastTaken, cols.nextDue, cols.missedDoses,
		cols.refillAlert, rem.CreatedAt, rem.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r *Repository) writeEvents(ctx context.Context, tx pgx.Tx, rem *Reminder, events []*Event) error {
	for _, evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		entry := &postgres.OutboxEntry{
			AggregateID:   rem.ID,
			AggregateType: "Reminder",
			EventType:     string(evt.EventType),
			Payload:       payload,
			Topic:         topicFor(evt.EventType),
			Key:           rem.UserID,
		}
		if err := postgres.WriteEntry(ctx, tx, entry); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a reminder by ID scoped to a user
func (r *Repository) Get(ctx context.Context, id, userID string) (*Reminder, error) {
	query := selectColumns + ` WHERE id = $1 AND user_id = $2`
	row := r.pool.QueryRow(ctx, query, id, userID)
	rem, err := scanReminder(row)
	if err != nil {
		return nil, fmt.Errorf("reminder not found: %s", id)
	}
	return rem, nil
}

// ListByUser retrieves all reminders for a user ordered by next due time
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*Reminder, error) {
	query := selectColumns + `
		WHERE user_id = $1
		ORDER BY next_due->>'date' ASC NULLS LAST, next_due->>'time' ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

// Delete removes a reminder scoped to a user
func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reminder not found: %s", id)
	}
	return nil
}

// DeleteByPrescription removes all reminders generated from a prescription
func (r *Repository) DeleteByPrescription(ctx context.Context, prescriptionID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reminders WHERE prescription_id = $1`, prescriptionID)
	if err != nil {
		return 0, fmt.Errorf("delete reminders for prescription: %w", err)
	}
	return tag.RowsAffected(), nil
}

const selectColumns = `
	SELECT id, user_id, COALESCE(prescription_id, ''), medicine_name, dosage,
	       instructions, schedule, notifications, status, last_taken, next_due,
	       missed_doses, refill_alert, created_at, updated_at
	FROM reminders
`

type jsonColumns struct {
	dosage        []byte
	schedule      []byte
	notifications []byte
	lastTaken     []byte
	nextDue       []byte
	missedDoses   []byte
	refillAlert   []byte
}

func marshalColumns(rem *Reminder) (*jsonColumns, error) {
	cols := &jsonColumns{}
	var err error
	if cols.dosage, err = json.Marshal(rem.Dosage); err != nil {
		return nil, fmt.Errorf("marshal dosage: %w", err)
	}
	if cols.schedule, err = json.Marshal(rem.Schedule); err != nil {
		return nil, fmt.Errorf("marshal schedule: %w", err)
	}
	if cols.notifications, err = json.Marshal(rem.Notifications); err != nil {
		return nil, fmt.Errorf("marshal notifications: %w", err)
	}
	if cols.missedDoses, err = json.Marshal(rem.MissedDoses); err != nil {
		return nil, fmt.Errorf("marshal missed doses: %w", err)
	}
	if cols.refillAlert, err = json.Marshal(rem.RefillAlert); err != nil {
		return nil, fmt.Errorf("marshal refill alert: %w", err)
	}
	if rem.LastTaken != nil {
		if cols.lastTaken, err = json.Marshal(rem.LastTaken); err != nil {
			return nil, fmt.Errorf("marshal last taken: %w", err)
		}
	}
	if rem.NextDue != nil {
		if cols.nextDue, err = json.Marshal(rem.NextDue); err != nil {
			return nil, fmt.Errorf("marshal next due: %w", err)
		}
	}
	return cols, nil
}

func scanReminder(row pgx.Row) (*Reminder, error) {
	rem := &Reminder{}
	var dosage, sched, notif, missed, refill []byte
	var lastTaken, nextDue []byte

	err := row.Scan(
		&rem.ID, &rem.UserID, &rem.PrescriptionID, &rem.MedicineName, &dosage,
		&rem.Instructions, &sched, &notif, &rem.Status, &lastTaken, &nextDue,
		&missed, &refill, &rem.CreatedAt, &rem.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dosage, &rem.Dosage); err != nil {
		return nil, fmt.Errorf("unmarshal dosage: %w", err)
	}
	if err := json.Unmarshal(sched, &rem.Schedule); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}
	if err := json.Unmarshal(notif, &rem.Notifications); err != nil {
		return nil, fmt.Errorf("unmarshal notifications: %w", err)
	}
	if len(missed) > 0 {
		if err := json.Unmarshal(missed, &rem.MissedDoses); err != nil {
			return nil, fmt.Errorf("unmarshal missed doses: %w", err)
		}
	}
	if len(refill) > 0 {
		if err := json.Unmarshal(refill, &rem.RefillAlert); err != nil {
			return nil, fmt.Errorf("unmarshal refill alert: %w", err)
		}
	}
	if len(lastTaken) > 0 {
		rem.LastTaken = &LastTaken{}
		if err := json.Unmarshal(lastTaken, rem.LastTaken); err != nil {
			return nil, fmt.Errorf("unmarshal last taken: %w", err)
		}
	}
	if len(nextDue) > 0 {
		rem.NextDue = &schedule.DueTime{}
		if err := json.Unmarshal(nextDue, rem.NextDue); err != nil {
			return nil, fmt.Errorf("unmarshal next due: %w", err)
		}
	}
	return rem, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
