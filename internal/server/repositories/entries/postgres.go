package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cpdvault/internal/common"
	"github.com/dmitrijs2005/cpdvault/internal/dbx"
	"github.com/dmitrijs2005/cpdvault/internal/server/models"
)

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const entryColumns = `id, title, activity_type, duration_hours, activity_date,
	description, learning_outcomes, categories, evidence, transcript_text,
	starred, created_at, updated_at`

// Upsert inserts or updates an entry by ID for a specific user. If a
// conflicting row exists for another user, no row is updated and
// common.ErrorRemoteRejected is returned.
func (r *PostgresRepository) Upsert(ctx context.Context, entry *models.Entry) error {
	categories, err := json.Marshal(entry.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	evidence, err := json.Marshal(entry.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}

	query := `
		INSERT INTO entries (id, user_id, title, activity_type, duration_hours, activity_date,
			description, learning_outcomes, categories, evidence, transcript_text,
			starred, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id)
		DO UPDATE SET
			title = EXCLUDED.title,
			activity_type = EXCLUDED.activity_type,
			duration_hours = EXCLUDED.duration_hours,
			activity_date = EXCLUDED.activity_date,
			description = EXCLUDED.description,
			learning_outcomes = EXCLUDED.learning_outcomes,
			categories = EXCLUDED.categories,
			evidence = EXCLUDED.evidence,
			transcript_text = EXCLUDED.transcript_text,
			starred = EXCLUDED.starred,
			updated_at = EXCLUDED.updated_at
			WHERE entries.user_id = EXCLUDED.user_id;
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Title, entry.Type, entry.DurationHours, entry.Date,
		entry.Description, entry.LearningOutcomes, categories, evidence, entry.TranscriptText,
		entry.Starred, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorRemoteRejected
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE user_id=$1 AND id=$2`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	entry.UserID = userID
	return entry, nil
}

// ListByUser returns all entries for userID, newest activity date first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE user_id=$1
		ORDER BY activity_date DESC, updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entry.UserID = userID
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) ([]models.EvidenceRef, error) {
	query := `DELETE FROM entries WHERE user_id=$1 AND id=$2 RETURNING evidence`

	var evidenceRaw []byte
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(&evidenceRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	var refs []models.EvidenceRef
	if err := json.Unmarshal(evidenceRaw, &refs); err != nil {
		return nil, fmt.Errorf("unmarshal evidence: %w", err)
	}
	return refs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var entry models.Entry
	var categoriesRaw, evidenceRaw []byte

	if err := row.Scan(
		&entry.ID, &entry.Title, &entry.Type, &entry.DurationHours, &entry.Date,
		&entry.Description, &entry.LearningOutcomes, &categoriesRaw, &evidenceRaw,
		&entry.TranscriptText, &entry.Starred, &entry.CreatedAt, &entry.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(categoriesRaw, &entry.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	if err := json.Unmarshal(evidenceRaw, &entry.Evidence); err != nil {
		return nil, fmt.Errorf("unmarshal evidence: %w", err)
	}
	return &entry, nil
}
