package relay

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/relaycycle/internal/infrastructure/database"
)

// Repository defines relay persistence.
type Repository interface {
	// List returns every relay ordered by sequence number.
	List(ctx context.Context) ([]Relay, error)

	// Save inserts or replaces a relay definition including its status.
	Save(ctx context.Context, r *Relay) error

	// SaveStatuses updates only the status column of the given relays.
	SaveStatuses(ctx context.Context, relays []Relay) error
}

const relayColumns = `id, seq, pin, inverted, name, color, status`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List retrieves all relays ordered by seq.
func (r *SQLiteRepository) List(ctx context.Context) ([]Relay, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+relayColumns+` FROM relays ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying relays: %w", err)
	}
	defer rows.Close()

	var relays []Relay
	for rows.Next() {
		var rl Relay
		var id string
		var inverted, status int
		if err := rows.Scan(&id, &rl.Seq, &rl.Pin, &inverted, &rl.Name, &rl.Color, &status); err != nil {
			return nil, fmt.Errorf("scanning relay: %w", err)
		}
		rl.ID = ID(id)
		rl.Inverted = inverted != 0
		rl.Status = status != 0
		relays = append(relays, rl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relays: %w", err)
	}
	return relays, nil
}

// Save upserts a relay keyed on id.
func (r *SQLiteRepository) Save(ctx context.Context, rl *Relay) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO relays (`+relayColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pin = excluded.pin,
			inverted = excluded.inverted,
			name = excluded.name,
			color = excluded.color,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		string(rl.ID),
		rl.Seq,
		rl.Pin,
		boolToInt(rl.Inverted),
		rl.Name,
		rl.Color,
		boolToInt(rl.Status),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting relay: %w", err)
	}
	return nil
}

// SaveStatuses updates statuses in a single transaction.
func (r *SQLiteRepository) SaveStatuses(ctx context.Context, relays []Relay) error {
	if len(relays) == 0 {
		return nil
	}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE relays SET status = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("preparing status update: %w", err)
		}
		defer stmt.Close()

		for _, rl := range relays {
			if _, err := stmt.ExecContext(ctx, boolToInt(rl.Status), string(rl.ID)); err != nil {
				return fmt.Errorf("updating status of relay %s: %w", rl.ID, err)
			}
		}
		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
