package store

// EventKind classifies ledger transitions announced by the store.
type EventKind int

const (
	// RecordDirtied fires when a record enters the pending set.
	RecordDirtied EventKind = iota
	// RecordSynced fires when a record leaves the pending set, whether
	// because a sync confirmed it or because its pending entry was
	// otherwise resolved (tentative hard-delete, ledger repair).
	RecordSynced
)

// Event describes a single ledger transition.
type Event struct {
	Kind EventKind
	ID   string
}

// Handler receives events synchronously from the store. Handlers must be
// fast and must not call back into the store.
type Handler func(Event)
