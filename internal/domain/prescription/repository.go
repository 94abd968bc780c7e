package prescription

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Repository provides prescription persistence over Postgres
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

// Save inserts a prescription record
func (r *Repository) Save(ctx context.Context, p *Prescription) error {
	query := `
		INSERT INTO prescriptions
		(id, user_id, image_url, original_text, medicines, doctor_name,
		 doctor_specialization, status, is_processed, processing_confidence,
		 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	medicines, err := json.Marshal(p.Medicines)
	if err != nil {
		return fmt.Errorf("marshal medicines: %w", err)
	}
	_, err = r.pool.Exec(ctx, query,
		p.ID, p.UserID, p.ImageURL, p.OriginalText, medicines,
		p.DoctorName, p.DoctorSpecialization, p.Status, p.IsProcessed,
		p.Confidence, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

// Get retrieves a prescription scoped to a user
func (r *Repository) Get(ctx context.Context, id, userID string) (*Prescription, error) {
	query := selectColumns + ` WHERE id = $1 AND user_id = $2`
	p, err := scanPrescription(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, fmt.Errorf("prescription not found: %s", id)
	}
	return p, nil
}

// ListByUser retrieves all prescriptions for a user, newest first
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*Prescription, error) {
	query := selectColumns + ` WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prescriptions []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		prescriptions = append(prescriptions, p)
	}
	return prescriptions, rows.Err()
}

// Delete removes a prescription scoped to a user
func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM prescriptions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("prescription not found: %s", id)
	}
	return nil
}

const selectColumns = `
	SELECT id, user_id, COALESCE(image_url, ''), original_text, medicines,
	       COALESCE(doctor_name, ''), COALESCE(doctor_specialization, ''),
	       status, is_processed, processing_confidence, created_at, updated_at
	FROM prescriptions
`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	p := &Prescription{}
	var medicines []byte

	err := row.Scan(
		&p.ID, &p.UserID, &p.ImageURL, &p.OriginalText, &medicines,
		&p.DoctorName, &p.DoctorSpecialization, &p.Status, &p.IsProcessed,
		&p.Confidence, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(medicines) > 0 {
		if err := json.Unmarshal(medicines, &p.Medicines); err != nil {
			return nil, fmt.Errorf("unmarshal medicines: %w", err)
		}
	}
	return p, nil
}
