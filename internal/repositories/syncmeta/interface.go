package syncmeta

import (
	"context"
	"time"
)

// Repository persists the sync ledger: the pull cursor and the set of
// record IDs with unsynced local changes.
type Repository interface {
	// LastSyncTime returns the pull cursor, or the zero time when no sync
	// has completed yet.
	LastSyncTime(ctx context.Context) (time.Time, error)

	// SetLastSyncTime advances the pull cursor.
	SetLastSyncTime(ctx context.Context, t time.Time) error

	// Register adds an ID to the pending set. It reports whether the ID
	// was newly added; registering an already-pending ID is a no-op.
	Register(ctx context.Context, id string) (bool, error)

	// Deregister removes an ID from the pending set, reporting whether it
	// was present.
	Deregister(ctx context.Context, id string) (bool, error)

	// PendingIDs lists the pending set.
	PendingIDs(ctx context.Context) ([]string, error)

	// PendingCount returns the size of the pending set.
	PendingCount(ctx context.Context) (int, error)
}
