package records

import (
	"context"

	"github.com/dmitrijs2005/notesync/internal/models"
)

// Repository describes persistence of individual records. Implementations
// are backed by a local SQLite database and keep soft-deleted tombstones
// until the sync engine hard-deletes them.
type Repository interface {
	// Upsert inserts a new record or fully replaces an existing one by ID.
	Upsert(ctx context.Context, rec *models.Record) error

	// GetByID returns the record or (nil, nil) when it does not exist.
	GetByID(ctx context.Context, id string) (*models.Record, error)

	// GetByIDs returns the records that exist for the given IDs, in no
	// particular order. Missing IDs are simply absent from the result.
	GetByIDs(ctx context.Context, ids []string) ([]models.Record, error)

	// GetAll lists records, excluding tombstones unless includeDeleted.
	GetAll(ctx context.Context, includeDeleted bool) ([]models.Record, error)

	// GetByWorshipType lists records with the given worship type, excluding
	// tombstones.
	GetByWorshipType(ctx context.Context, worshipType string) ([]models.Record, error)

	// Delete removes the row entirely. Deleting an absent ID is a no-op.
	Delete(ctx context.Context, id string) error
}
