// Package remote defines the contract of the authoritative record service
// and its HTTP implementation. The sync engine consumes exactly these four
// operations; everything else about the server is out of its sight.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/notesync/internal/models"
)

var (
	// ErrNotFound means the remote side does not know the record, e.g. an
	// update of an ID that was deleted remotely.
	ErrNotFound = errors.New("remote record not found")

	// ErrUnavailable wraps transport and server failures. A pull hitting
	// it aborts the whole run; a push hitting it skips that one record.
	ErrUnavailable = errors.New("remote service unavailable")
)

// CreateResult is the server's answer to a create: the confirmed ID that
// replaces the tentative one, plus server-assigned timestamps.
type CreateResult struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateResult carries the server timestamp assigned to an update.
type UpdateResult struct {
	UpdatedAt time.Time `json:"updated_at"`
}

// Service is the remote record store, the single source of truth for
// confirmed IDs and server timestamps.
type Service interface {
	// FetchUpdatedSince returns every record (including tombstones) whose
	// server UpdatedAt is after the cursor, for the caller's namespace.
	FetchUpdatedSince(ctx context.Context, since time.Time) ([]models.Record, error)

	// Create stores a new record and assigns it a confirmed ID.
	Create(ctx context.Context, rec models.Record) (*CreateResult, error)

	// Update replaces the record's payload. Fails with ErrNotFound when
	// the ID does not exist remotely.
	Update(ctx context.Context, rec models.Record) (*UpdateResult, error)

	// Delete removes the record. Idempotent: deleting an absent ID is
	// not an error.
	Delete(ctx context.Context, id string) error
}
