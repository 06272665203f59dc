package syncer

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/notesync/internal/store"
)

// StatusSnapshot is a point-in-time copy of the sync status.
type StatusSnapshot struct {
	PendingChangesCount int
	IsSyncing           bool
	LastSyncTime        time.Time
	LastError           error
}

// Status is the process-wide observable sync state for one namespace. It
// mirrors the ledger through store events and is updated by the engine at
// run boundaries; consumers read it instead of re-deriving from storage.
type Status struct {
	mu   sync.Mutex
	snap StatusSnapshot
}

func NewStatus() *Status {
	return &Status{}
}

// HandleEvent maintains the pending counter from store events. Subscribe
// it to the store at session construction.
func (s *Status) HandleEvent(ev store.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev.Kind {
	case store.RecordDirtied:
		s.snap.PendingChangesCount++
	case store.RecordSynced:
		s.snap.PendingChangesCount--
	}
}

// Prime seeds the counter and cursor from persisted state at session start.
func (s *Status) Prime(pending int, lastSyncTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.PendingChangesCount = pending
	s.snap.LastSyncTime = lastSyncTime
}

// Snapshot returns a copy of the current status.
func (s *Status) Snapshot() StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Status) setSyncing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.IsSyncing = v
}

func (s *Status) finish(pending int, lastSyncTime time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.IsSyncing = false
	s.snap.PendingChangesCount = pending
	s.snap.LastSyncTime = lastSyncTime
	s.snap.LastError = err
}
