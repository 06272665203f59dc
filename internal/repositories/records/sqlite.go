package records

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/models"
)

// Timestamps are stored as RFC3339Nano text so scanning does not depend on
// driver-specific time handling. An empty string means the zero time.
const timeLayout = time.RFC3339Nano

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt timestamp %q: %w", s, err)
	}
	return t, nil
}

const recordColumns = `id, title, content, date, sermon, preacher, worship_type,
	created_at, updated_at, synced_at, deleted`

func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.Record) error {
	query := `INSERT INTO records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			date = excluded.date,
			sermon = excluded.sermon,
			preacher = excluded.preacher,
			worship_type = excluded.worship_type,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			synced_at = excluded.synced_at,
			deleted = excluded.deleted
	`

	var syncedAt sql.NullString
	if rec.Metadata.SyncedAt != nil {
		syncedAt = sql.NullString{String: formatTime(*rec.Metadata.SyncedAt), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Fields.Title, rec.Fields.Content, formatTime(rec.Fields.Date),
		rec.Fields.Sermon, rec.Fields.Preacher, rec.Fields.WorshipType,
		formatTime(rec.Metadata.CreatedAt), formatTime(rec.Metadata.UpdatedAt),
		syncedAt, rec.Metadata.Deleted)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

func scanRecord(scan func(dest ...any) error) (*models.Record, error) {
	var rec models.Record
	var date, createdAt, updatedAt string
	var syncedAt sql.NullString
	var deleted int

	err := scan(&rec.ID, &rec.Fields.Title, &rec.Fields.Content, &date,
		&rec.Fields.Sermon, &rec.Fields.Preacher, &rec.Fields.WorshipType,
		&createdAt, &updatedAt, &syncedAt, &deleted)
	if err != nil {
		return nil, err
	}

	if rec.Fields.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	if rec.Metadata.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rec.Metadata.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if syncedAt.Valid {
		t, err := parseTime(syncedAt.String)
		if err != nil {
			return nil, err
		}
		rec.Metadata.SyncedAt = &t
	}
	rec.Metadata.Deleted = deleted != 0

	return &rec, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)

	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (r *SQLiteRepository) GetAll(ctx context.Context, includeDeleted bool) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records`
	if !includeDeleted {
		query += ` WHERE deleted = 0`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (r *SQLiteRepository) GetByWorshipType(ctx context.Context, worshipType string) ([]models.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE worship_type = ? AND deleted = 0`,
		worshipType)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]models.Record, error) {
	var result []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	// Deletions are idempotent: removing an absent row is not an error.
	_, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
