package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/platform/persistence"
)

// Fixed width keeps lexical order equal to chronological order in the timestamp index
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const entryColumns = `id, datum, kategorie, km_stand, km_trip, sprit_liter, kosten, preis_je_liter,
		tankstelle, bemerkung, synced, timestamp, sync_attempts, last_sync_error, last_sync_at, delivered_at`

// EntryRepository implements the entry.Repository interface for SQLite
type EntryRepository struct {
	querier persistence.SQLQuerier
	logger  *slog.Logger
}

// NewEntryRepository creates a new SQLite entry repository
func NewEntryRepository(logger *slog.Logger, db *persistence.SQLiteDB) entry.Repository {
	return &EntryRepository{
		querier: db.DB(),
		logger:  logger,
	}
}

// Append stores a new unsynced entry and returns it with its assigned ID.
// Storage failures are wrapped with entry.ErrStorageUnavailable.
func (r *EntryRepository) Append(ctx context.Context, fields entry.Fields) (*entry.Entry, error) {
	query := `
		INSERT INTO entries (datum, kategorie, km_stand, km_trip, sprit_liter, kosten, preis_je_liter,
			tankstelle, bemerkung, synced, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`

	e := entry.New(fields)
	result, err := r.querier.ExecContext(ctx, query,
		fields.Datum,
		fields.Kategorie,
		fields.KmStand,
		fields.KmTrip,
		fields.SpritLiter,
		fields.Kosten,
		fields.PreisJeLiter,
		fields.Tankstelle,
		fields.Bemerkung,
		e.Timestamp.Format(timestampLayout),
	)
	if err != nil {
		r.logger.Error("Failed to append entry", "error", err)
		return nil, fmt.Errorf("failed to append entry: %w: %w", entry.ErrStorageUnavailable, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("Failed to read assigned entry ID", "error", err)
		return nil, fmt.Errorf("failed to read assigned entry ID: %w: %w", entry.ErrStorageUnavailable, err)
	}
	e.ID = id

	return e, nil
}

// Get retrieves an entry by ID.
// Returns ErrEntryNotFound if the entry doesn't exist.
func (r *EntryRepository) Get(ctx context.Context, id int64) (*entry.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = ?`

	e, err := scanEntry(r.querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entry.ErrEntryNotFound{ID: id}
		}
		r.logger.Error("Failed to get entry", "entry_id", id, "error", err)
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return e, nil
}

// SetSynced sets the synced flag. Marking an entry synced counts as delivery, clearing
// the flag withdraws it. Unknown IDs are ignored.
func (r *EntryRepository) SetSynced(ctx context.Context, id int64, synced bool) error {
	query := `
		UPDATE entries
		SET synced = ?1,
			delivered_at = CASE WHEN ?1 THEN COALESCE(delivered_at, ?2) ELSE NULL END
		WHERE id = ?3
	`

	now := time.Now().UTC().Format(timestampLayout)
	result, err := r.querier.ExecContext(ctx, query, synced, now, id)
	if err != nil {
		r.logger.Error("Failed to set synced flag", "entry_id", id, "synced", synced, "error", err)
		return fmt.Errorf("failed to set synced flag: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		r.logger.Debug("Synced flag update matched no entry", "entry_id", id)
	}

	return nil
}

// ListUnsynced returns every unsynced entry in insertion order
func (r *EntryRepository) ListUnsynced(ctx context.Context) ([]*entry.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE synced = 0 ORDER BY id ASC`

	return r.queryEntries(ctx, "unsynced entries", query)
}

// ClaimUnsynced marks the entry synced only if it is still unsynced, so two senders
// can never both claim it. The claim is not a delivery; RecordSyncAttempt confirms it.
func (r *EntryRepository) ClaimUnsynced(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE entries SET synced = 1, delivered_at = NULL WHERE id = ? AND synced = 0`

	result, err := r.querier.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to claim entry", "entry_id", id, "error", err)
		return false, fmt.Errorf("failed to claim entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Failed to get rows affected", "entry_id", id, "error", err)
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// RecordSyncAttempt bumps the attempt counter and stores the last error ("" on success).
// A successful attempt on a claimed entry marks it delivered. Returns the new attempt count.
func (r *EntryRepository) RecordSyncAttempt(ctx context.Context, id int64, errMsg string) (int, error) {
	query := `
		UPDATE entries
		SET sync_attempts = sync_attempts + 1,
			last_sync_error = ?1,
			last_sync_at = ?2,
			delivered_at = CASE WHEN ?1 = '' AND synced = 1 THEN ?2 ELSE delivered_at END
		WHERE id = ?3
		RETURNING sync_attempts
	`

	var attempts int
	err := r.querier.QueryRowContext(ctx, query, errMsg, time.Now().UTC().Format(timestampLayout), id).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, entry.ErrEntryNotFound{ID: id}
		}
		r.logger.Error("Failed to record sync attempt", "entry_id", id, "error", err)
		return 0, fmt.Errorf("failed to record sync attempt: %w", err)
	}

	return attempts, nil
}

// CountUnsynced returns the number of entries waiting for the remote sheet
func (r *EntryRepository) CountUnsynced(ctx context.Context) (int, error) {
	var count int
	err := r.querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE synced = 0`).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count unsynced entries", "error", err)
		return 0, fmt.Errorf("failed to count unsynced entries: %w", err)
	}
	return count, nil
}

// List returns a page of entries, newest first
func (r *EntryRepository) List(ctx context.Context, limit, offset int) ([]*entry.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries ORDER BY id DESC LIMIT ? OFFSET ?`

	return r.queryEntries(ctx, "entries", query, limit, offset)
}

// ListSyncedBefore returns delivered entries created before cutoff, oldest first
func (r *EntryRepository) ListSyncedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entry.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE synced = 1 AND delivered_at IS NOT NULL AND timestamp < ?
		ORDER BY id ASC LIMIT ?`

	return r.queryEntries(ctx, "synced entries", query, cutoff.UTC().Format(timestampLayout), limit)
}

// DeleteSynced removes the given entries, skipping any that went back to unsynced or
// were claimed again
func (r *EntryRepository) DeleteSynced(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `DELETE FROM entries WHERE synced = 1 AND delivered_at IS NOT NULL AND id IN (` + placeholders + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	result, err := r.querier.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete synced entries", "count", len(ids), "error", err)
		return 0, fmt.Errorf("failed to delete synced entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

func (r *EntryRepository) queryEntries(ctx context.Context, what, query string, args ...any) ([]*entry.Entry, error) {
	rows, err := r.querier.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list "+what, "error", err)
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	defer rows.Close()

	entries := []*entry.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan entry", "error", err)
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over "+what, "error", err)
		return nil, fmt.Errorf("error iterating over %s: %w", what, err)
	}

	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*entry.Entry, error) {
	var (
		e          entry.Entry
		timestamp   string
		lastSyncAt  sql.NullString
		deliveredAt sql.NullString
	)
	err := row.Scan(
		&e.ID,
		&e.Fields.Datum,
		&e.Fields.Kategorie,
		&e.Fields.KmStand,
		&e.Fields.KmTrip,
		&e.Fields.SpritLiter,
		&e.Fields.Kosten,
		&e.Fields.PreisJeLiter,
		&e.Fields.Tankstelle,
		&e.Fields.Bemerkung,
		&e.Synced,
		&timestamp,
		&e.SyncAttempts,
		&e.LastSyncErr,
		&lastSyncAt,
		&deliveredAt,
	)
	if err != nil {
		return nil, err
	}

	if e.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp); err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", timestamp, err)
	}
	if e.LastSyncAt, err = parseOptionalTime("last_sync_at", lastSyncAt); err != nil {
		return nil, err
	}
	if e.DeliveredAt, err = parseOptionalTime("delivered_at", deliveredAt); err != nil {
		return nil, err
	}

	return &e, nil
}

func parseOptionalTime(column string, v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", column, v.String, err)
	}
	return &t, nil
}
