package store

import (
	"time"

	"github.com/dmitrijs2005/notesync/internal/models"
)

// PutInput is a partial record: nil fields are left untouched on update
// and zero-valued on create. An empty ID mints a tentative one.
//
// SyncedAt, CreatedAt and UpdatedAt are honored only when set explicitly;
// the sync engine uses them to materialize server-confirmed state. Callers
// editing records leave them nil, which marks the record dirty.
type PutInput struct {
	ID          string
	Title       *string
	Content     *string
	Date        *time.Time
	Sermon      *string
	Preacher    *string
	WorshipType *string

	Deleted   *bool
	SyncedAt  *time.Time
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// PutFromRecord builds a full-replacement input from rec, carrying its
// metadata verbatim. Used when materializing pulled remote records.
func PutFromRecord(rec models.Record) PutInput {
	in := PutInput{
		ID:          rec.ID,
		Title:       &rec.Fields.Title,
		Content:     &rec.Fields.Content,
		Date:        &rec.Fields.Date,
		Sermon:      &rec.Fields.Sermon,
		Preacher:    &rec.Fields.Preacher,
		WorshipType: &rec.Fields.WorshipType,
		Deleted:     &rec.Metadata.Deleted,
		SyncedAt:    rec.Metadata.SyncedAt,
	}
	if !rec.Metadata.CreatedAt.IsZero() {
		in.CreatedAt = &rec.Metadata.CreatedAt
	}
	if !rec.Metadata.UpdatedAt.IsZero() {
		in.UpdatedAt = &rec.Metadata.UpdatedAt
	}
	return in
}
