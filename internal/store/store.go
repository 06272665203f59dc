// Package store implements the local record store: synchronous CRUD over
// the SQLite-backed repositories, dirty tracking through the sync ledger,
// and domain events consumed by the status projection.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/models"
	"github.com/dmitrijs2005/notesync/internal/repositories/records"
	"github.com/dmitrijs2005/notesync/internal/repositories/syncmeta"
)

// Store owns reads and writes of individual records for one namespace.
// All operations are local; the store never talks to the remote service.
//
// Writes are serialized by a store-wide mutex. The sync engine relies on
// this for its per-record reconciliation sequences (Promote, MarkSynced):
// a foreground edit can land before or after such a sequence, never inside
// it.
type Store struct {
	db      *sql.DB
	records records.Repository
	ledger  syncmeta.Repository
	log     logging.Logger
	now     func() time.Time

	writeMu sync.Mutex

	handlerMu sync.Mutex
	handlers  []Handler
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New builds a Store over db. The schema must already be migrated.
func New(db *sql.DB, log logging.Logger, opts ...Option) *Store {
	s := &Store{
		db:      db,
		records: records.NewSQLiteRepository(db),
		ledger:  syncmeta.NewSQLiteRepository(db),
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a handler for ledger transition events.
func (s *Store) Subscribe(h Handler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.handlers = append(s.handlers, h)
}

func (s *Store) emit(events ...Event) {
	s.handlerMu.Lock()
	handlers := s.handlers
	s.handlerMu.Unlock()

	for _, ev := range events {
		for _, h := range handlers {
			h(ev)
		}
	}
}

// Get returns the record or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, id string) (*models.Record, error) {
	return s.records.GetByID(ctx, id)
}

// List returns all records, excluding tombstones.
func (s *Store) List(ctx context.Context) ([]models.Record, error) {
	return s.records.GetAll(ctx, false)
}

// ListAll returns all records including tombstones.
func (s *Store) ListAll(ctx context.Context) ([]models.Record, error) {
	return s.records.GetAll(ctx, true)
}

// ListByWorshipType returns the records with the given worship type,
// excluding tombstones.
func (s *Store) ListByWorshipType(ctx context.Context, worshipType string) ([]models.Record, error) {
	return s.records.GetByWorshipType(ctx, worshipType)
}

// Put creates or updates a record.
//
// An empty or unknown ID creates; a known ID merges the set fields and
// bumps UpdatedAt. Unless the input carries an explicit SyncedAt, the
// result is dirty and the ID is registered in the ledger (idempotently,
// emitting RecordDirtied at most once per dirtying). A synced-stamped put
// over a currently-dirty row is a no-op: the local edit wins.
func (s *Store) Put(ctx context.Context, input PutInput) (*models.Record, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.now().UTC()

	var rec *models.Record
	if input.ID != "" {
		existing, err := s.records.GetByID(ctx, input.ID)
		if err != nil {
			return nil, err
		}
		rec = existing
	}

	// A synced-stamped put is the sync engine materializing a pulled copy.
	// If the row turned dirty since the engine snapshotted the pending set,
	// the local edit is the later writer: leave it for the next push.
	if input.SyncedAt != nil && rec != nil && rec.Dirty() {
		s.log.Debug(ctx, "skipping pulled overwrite of dirty record", "id", rec.ID)
		return rec, nil
	}

	if rec == nil {
		id := input.ID
		if id == "" {
			id = models.NewTentativeID()
		}
		rec = &models.Record{
			ID:       id,
			Metadata: models.RecordMetadata{CreatedAt: now, UpdatedAt: now},
		}
	} else {
		rec.Metadata.UpdatedAt = now
	}

	applyFields(rec, input)

	rec.Metadata.SyncedAt = nil
	if input.SyncedAt != nil {
		t := input.SyncedAt.UTC()
		rec.Metadata.SyncedAt = &t
	}
	if input.Deleted != nil {
		rec.Metadata.Deleted = *input.Deleted
	}
	if input.CreatedAt != nil {
		rec.Metadata.CreatedAt = input.CreatedAt.UTC()
	}
	if input.UpdatedAt != nil {
		rec.Metadata.UpdatedAt = input.UpdatedAt.UTC()
	}

	if err := s.records.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	if rec.Dirty() {
		added, err := s.ledger.Register(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		if added {
			s.emit(Event{Kind: RecordDirtied, ID: rec.ID})
		}
	}

	return rec, nil
}

func applyFields(rec *models.Record, input PutInput) {
	if input.Title != nil {
		rec.Fields.Title = *input.Title
	}
	if input.Content != nil {
		rec.Fields.Content = *input.Content
	}
	if input.Date != nil {
		rec.Fields.Date = input.Date.UTC()
	}
	if input.Sermon != nil {
		rec.Fields.Sermon = *input.Sermon
	}
	if input.Preacher != nil {
		rec.Fields.Preacher = *input.Preacher
	}
	if input.WorshipType != nil {
		rec.Fields.WorshipType = *input.WorshipType
	}
}

// SoftDelete tombstones a record for deletion on the next sync. Tentative
// records never existed remotely, so they are hard-deleted immediately.
// Unknown IDs and already-tombstoned records are no-ops.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	if rec.Tentative() {
		return s.dropLocked(ctx, id)
	}

	if rec.Tombstone() && rec.Dirty() {
		return nil
	}

	rec.Metadata.Deleted = true
	rec.Metadata.UpdatedAt = s.now().UTC()
	rec.Metadata.SyncedAt = nil

	if err := s.records.Upsert(ctx, rec); err != nil {
		return err
	}

	added, err := s.ledger.Register(ctx, id)
	if err != nil {
		return err
	}
	if added {
		s.emit(Event{Kind: RecordDirtied, ID: id})
	}
	return nil
}

// HardDelete removes a record unconditionally and deregisters it from the
// ledger. Unknown IDs are a no-op.
func (s *Store) HardDelete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.dropLocked(ctx, id)
}

func (s *Store) dropLocked(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}
	removed, err := s.ledger.Deregister(ctx, id)
	if err != nil {
		return err
	}
	if removed {
		s.emit(Event{Kind: RecordSynced, ID: id})
	}
	return nil
}

// PendingRecords returns the records currently registered in the ledger.
// Ledger entries pointing at records that no longer exist are repaired by
// deregistration.
func (s *Store) PendingRecords(ctx context.Context) ([]models.Record, error) {
	ids, err := s.ledger.PendingIDs(ctx)
	if err != nil {
		return nil, err
	}

	recs, err := s.records.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	found := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		found[rec.ID] = struct{}{}
	}

	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}
		s.log.Warn(ctx, "ledger references missing record, repairing", "id", id)
		removed, err := s.ledger.Deregister(ctx, id)
		if err != nil {
			return nil, err
		}
		if removed {
			s.emit(Event{Kind: RecordSynced, ID: id})
		}
	}

	return recs, nil
}

// PendingCount returns the size of the ledger's pending set.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	return s.ledger.PendingCount(ctx)
}

// MarkSynced stamps a record as confirmed by the remote service and
// removes it from the ledger.
//
// expectUpdatedAt is the UpdatedAt the caller pushed. If the record was
// edited in the meantime the stamp is skipped and the record stays dirty,
// so the concurrent edit is pushed by the next run instead of being lost.
func (s *Store) MarkSynced(ctx context.Context, id string, at, expectUpdatedAt time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		// Deleted while the push was in flight; nothing to stamp.
		removed, err := s.ledger.Deregister(ctx, id)
		if err != nil {
			return err
		}
		if removed {
			s.emit(Event{Kind: RecordSynced, ID: id})
		}
		return nil
	}

	if !rec.Metadata.UpdatedAt.Equal(expectUpdatedAt.UTC()) {
		s.log.Debug(ctx, "record changed during push, staying dirty", "id", id)
		return nil
	}

	syncedAt := at.UTC()
	rec.Metadata.SyncedAt = &syncedAt

	if err := s.records.Upsert(ctx, rec); err != nil {
		return err
	}

	removed, err := s.ledger.Deregister(ctx, id)
	if err != nil {
		return err
	}
	if removed {
		s.emit(Event{Kind: RecordSynced, ID: id})
	}
	return nil
}

// Promote replaces a tentative-ID record with its server-confirmed
// counterpart. The store is keyed by ID, so the tentative record never
// becomes the confirmed one in place: the confirmed row is written and
// the tentative row removed inside one transaction.
//
// pushed is the snapshot that was sent to the remote service. If the
// local record was edited after the snapshot, the newer payload is
// carried over to the confirmed ID and stays dirty for the next run.
func (s *Store) Promote(ctx context.Context, pushed models.Record, confirmedID string, serverCreatedAt, serverUpdatedAt, at time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var events []Event

	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		rtx := records.NewSQLiteRepository(tx)
		ltx := syncmeta.NewSQLiteRepository(tx)

		current, err := rtx.GetByID(ctx, pushed.ID)
		if err != nil {
			return err
		}
		if current == nil {
			// Hard-deleted while the push was in flight.
			removed, err := ltx.Deregister(ctx, pushed.ID)
			if err != nil {
				return err
			}
			if removed {
				events = append(events, Event{Kind: RecordSynced, ID: pushed.ID})
			}
			return nil
		}

		edited := !current.Metadata.UpdatedAt.Equal(pushed.Metadata.UpdatedAt)

		confirmed := *current
		confirmed.ID = confirmedID
		confirmed.Metadata.CreatedAt = serverCreatedAt.UTC()
		if edited {
			confirmed.Metadata.SyncedAt = nil
		} else {
			confirmed.Metadata.UpdatedAt = serverUpdatedAt.UTC()
			syncedAt := at.UTC()
			confirmed.Metadata.SyncedAt = &syncedAt
		}

		if err := rtx.Upsert(ctx, &confirmed); err != nil {
			return err
		}
		if err := rtx.Delete(ctx, pushed.ID); err != nil {
			return err
		}

		removed, err := ltx.Deregister(ctx, pushed.ID)
		if err != nil {
			return err
		}
		if removed {
			events = append(events, Event{Kind: RecordSynced, ID: pushed.ID})
		}

		if edited {
			added, err := ltx.Register(ctx, confirmedID)
			if err != nil {
				return err
			}
			if added {
				events = append(events, Event{Kind: RecordDirtied, ID: confirmedID})
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to promote record %s: %w", pushed.ID, err)
	}

	s.emit(events...)
	return nil
}
