// Package syncer implements the bidirectional reconciliation engine:
// pull remote changes newer than the cursor, push every pending local
// record, promote tentative IDs, propagate tombstones, advance the cursor.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/models"
	"github.com/dmitrijs2005/notesync/internal/remote"
	"github.com/dmitrijs2005/notesync/internal/repositories/syncmeta"
	"github.com/dmitrijs2005/notesync/internal/store"
)

// ErrSyncInProgress is returned when Sync is invoked while another run is
// in flight for the same namespace. The caller retries later; overlapping
// runs would race on the same ledger snapshot.
var ErrSyncInProgress = errors.New("sync already in progress")

// Engine orchestrates sync runs for one namespace. It never retries by
// itself; a failed run is simply re-invoked by the caller.
//
// Conflict policy: last writer by sync order. A record dirty on both
// sides keeps the local version — the pull leaves locally-dirty records
// untouched and the push that follows overwrites the server. This is a
// whole-record policy; there is no field-level merge.
type Engine struct {
	store   *store.Store
	ledger  syncmeta.Repository
	remote  remote.Service
	status  *Status
	log     logging.Logger
	now     func() time.Time
	syncing atomic.Bool

	cbMu       sync.Mutex
	onComplete []func(error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(st *store.Store, ledger syncmeta.Repository, svc remote.Service, status *Status, log logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		ledger: ledger,
		remote: svc,
		status: status,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnComplete registers a callback invoked at the end of every run with
// the run's result.
func (e *Engine) OnComplete(fn func(error)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onComplete = append(e.onComplete, fn)
}

// Sync performs one pull-then-push run. A second invocation while a run
// is in flight fails with ErrSyncInProgress.
//
// A pull failure aborts the run before any push. Push failures are
// per-record: the run continues, the failed records stay in the ledger,
// and the aggregate error distinguishes "some synced" from "nothing
// synced". The cursor advances (to the run's start time) only when every
// push succeeded, so a failed window is re-pulled by the next run.
func (e *Engine) Sync(ctx context.Context) error {
	if !e.syncing.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer e.syncing.Store(false)

	e.status.setSyncing(true)
	start := e.now().UTC()

	runErr := e.run(ctx, start)

	pending, err := e.store.PendingCount(ctx)
	if err != nil && runErr == nil {
		runErr = err
	}
	last, err := e.ledger.LastSyncTime(ctx)
	if err != nil && runErr == nil {
		runErr = err
	}
	e.status.finish(pending, last, runErr)

	e.cbMu.Lock()
	callbacks := e.onComplete
	e.cbMu.Unlock()
	for _, cb := range callbacks {
		cb(runErr)
	}

	return runErr
}

func (e *Engine) run(ctx context.Context, start time.Time) error {
	cursor, err := e.ledger.LastSyncTime(ctx)
	if err != nil {
		return err
	}

	if err := e.pull(ctx, cursor); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}

	// Snapshot the pending set once; records dirtied from here on belong
	// to the next run.
	pending, err := e.store.PendingRecords(ctx)
	if err != nil {
		return err
	}

	var pushErrs []error
	for _, rec := range pending {
		if err := e.push(ctx, rec); err != nil {
			e.log.Error(ctx, "push failed", "id", rec.ID, "error", err)
			pushErrs = append(pushErrs, fmt.Errorf("%s: %w", rec.ID, err))
		}
	}
	if len(pushErrs) > 0 {
		return fmt.Errorf("%d of %d pushes failed: %w",
			len(pushErrs), len(pending), errors.Join(pushErrs...))
	}

	if err := e.ledger.SetLastSyncTime(ctx, start); err != nil {
		return err
	}

	e.log.Info(ctx, "sync finished", "pushed", len(pending), "cursor", start)
	return nil
}

func (e *Engine) pull(ctx context.Context, cursor time.Time) error {
	pulled, err := e.remote.FetchUpdatedSince(ctx, cursor)
	if err != nil {
		return err
	}
	e.log.Info(ctx, "pulled remote changes", "count", len(pulled), "cursor", cursor)

	dirty, err := e.dirtySet(ctx)
	if err != nil {
		return err
	}

	now := e.now().UTC()
	for _, rec := range pulled {
		// A locally-dirty record is about to be pushed; the push is the
		// later writer and wins over the pulled copy.
		if _, ok := dirty[rec.ID]; ok {
			e.log.Debug(ctx, "skipping pulled record with pending local changes", "id", rec.ID)
			continue
		}

		if rec.Metadata.Deleted {
			// Deletion already confirmed remotely; finish it locally.
			if err := e.store.HardDelete(ctx, rec.ID); err != nil {
				return err
			}
			continue
		}

		in := store.PutFromRecord(rec)
		syncedAt := now
		in.SyncedAt = &syncedAt
		if _, err := e.store.Put(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) dirtySet(ctx context.Context) (map[string]struct{}, error) {
	ids, err := e.ledger.PendingIDs(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (e *Engine) push(ctx context.Context, rec models.Record) error {
	switch {
	case rec.Tombstone() && !rec.Tentative():
		if err := e.remote.Delete(ctx, rec.ID); err != nil {
			return err
		}
		return e.store.HardDelete(ctx, rec.ID)

	case rec.Tombstone():
		// A tentative tombstone never reached the server and should have
		// been hard-deleted on SoftDelete already; resolve it locally.
		return e.store.HardDelete(ctx, rec.ID)

	case rec.Tentative():
		res, err := e.remote.Create(ctx, rec)
		if err != nil {
			return err
		}
		return e.store.Promote(ctx, rec, res.ID, res.CreatedAt, res.UpdatedAt, e.now().UTC())

	default:
		if _, err := e.remote.Update(ctx, rec); err != nil {
			return err
		}
		return e.store.MarkSynced(ctx, rec.ID, e.now().UTC(), rec.Metadata.UpdatedAt)
	}
}
