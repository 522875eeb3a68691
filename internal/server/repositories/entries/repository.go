// Package entries provides PostgreSQL-backed persistence for hosted CPD
// entry rows.
package entries

import (
	"context"

	"github.com/dmitrijs2005/cpdvault/internal/server/models"
)

type Repository interface {
	// Upsert inserts or updates the row with entry.ID for entry.UserID. An
	// id already claimed by another user is rejected.
	Upsert(ctx context.Context, entry *models.Entry) error
	GetByID(ctx context.Context, userID, id string) (*models.Entry, error)
	// ListByUser returns the user's entries, newest activity date first.
	ListByUser(ctx context.Context, userID string) ([]*models.Entry, error)
	// Delete removes the row and reports the evidence refs it held so the
	// caller can clean up object storage. A missing row is not an error and
	// yields no refs.
	Delete(ctx context.Context, userID, id string) ([]models.EvidenceRef, error)
}
