package relay

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HistoryEntry is one recorded status change.
type HistoryEntry struct {
	ID      int64     `json:"id"`
	RelayID ID        `json:"relay_id"`
	Status  bool      `json:"status"`
	At      time.Time `json:"at"`
}

// HistoryRepository stores relay status changes.
type HistoryRepository interface {
	Record(ctx context.Context, id ID, status bool, at time.Time) error
	List(ctx context.Context, id ID, limit int) ([]HistoryEntry, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// SQLiteHistoryRepository implements HistoryRepository on the
// relay_history table. Timestamps are stored as epoch milliseconds.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteHistoryRepository creates a new SQLite relay history repository.
func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

// Record inserts a history row.
func (r *SQLiteHistoryRepository) Record(ctx context.Context, id ID, status bool, at time.Time) error {
	if id == "" {
		return fmt.Errorf("relay id is required")
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO relay_history (relay_id, status, created_at) VALUES (?, ?, ?)",
		string(id),
		boolToInt(status),
		at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting relay history: %w", err)
	}
	return nil
}

// List returns recent entries for a relay, newest first.
//
// Parameters:
//   - limit: Maximum entries to return (default 50, max 200)
func (r *SQLiteHistoryRepository) List(ctx context.Context, id ID, limit int) ([]HistoryEntry, error) {
	if id == "" {
		return nil, fmt.Errorf("relay id is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, relay_id, status, created_at
		 FROM relay_history
		 WHERE relay_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		string(id),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying relay history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var e HistoryEntry
		var relayID string
		var status int
		var atMS int64
		if err := rows.Scan(&e.ID, &relayID, &status, &atMS); err != nil {
			return nil, fmt.Errorf("scanning relay history: %w", err)
		}
		e.RelayID = ID(relayID)
		e.Status = status != 0
		e.At = time.UnixMilli(atMS).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relay history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries recorded before the cutoff and returns how many
// rows were removed.
func (r *SQLiteHistoryRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM relay_history WHERE created_at < ?",
		before.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting relay history: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
