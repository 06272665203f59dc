// Package models defines the synchronized record type and its identifier
// helpers.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TentativeIDPrefix marks identifiers minted locally before the remote
// service has assigned a confirmed one.
const TentativeIDPrefix = "local_"

// NewTentativeID returns a fresh locally-minted record identifier.
func NewTentativeID() string {
	return TentativeIDPrefix + uuid.NewString()
}

// IsTentativeID reports whether id was minted locally and has not been
// confirmed by the remote service.
func IsTentativeID(id string) bool {
	return strings.HasPrefix(id, TentativeIDPrefix)
}

// NoteFields is the domain payload of a record. The sync engine treats it
// as opaque: it only ever copies it whole between the local store and the
// remote service.
type NoteFields struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Date        time.Time `json:"date"`
	Sermon      string    `json:"sermon"`
	Preacher    string    `json:"preacher"`
	WorshipType string    `json:"worship_type"`
}

// RecordMetadata carries the synchronization state of a record.
//
// SyncedAt == nil means the record has local changes not yet confirmed by
// the remote service. A present SyncedAt does not rule out a newer
// remote-side change; that is only discovered by pulling.
type RecordMetadata struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	SyncedAt  *time.Time `json:"synced_at,omitempty"`
	Deleted   bool       `json:"deleted"`
}

// Record is the unit of synchronization.
type Record struct {
	ID       string         `json:"id"`
	Fields   NoteFields     `json:"fields"`
	Metadata RecordMetadata `json:"metadata"`
}

// Tentative reports whether the record still carries a locally-minted ID.
func (r *Record) Tentative() bool {
	return IsTentativeID(r.ID)
}

// Dirty reports whether the record has unconfirmed local changes.
func (r *Record) Dirty() bool {
	return r.Metadata.SyncedAt == nil
}

// Tombstone reports whether the record is soft-deleted and still awaiting
// deletion on the remote side.
func (r *Record) Tombstone() bool {
	return r.Metadata.Deleted
}
