package cycle

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/relaycycle/internal/infrastructure/database"
)

// Repository defines persistence for cycle definitions and the running
// cycle snapshot.
type Repository interface {
	List(ctx context.Context) ([]Cycle, error)
	Save(ctx context.Context, c *Cycle) error
	Delete(ctx context.Context, id ID) error

	// SaveRunning atomically replaces the running cycle snapshot.
	SaveRunning(ctx context.Context, states map[ID]RunState) error

	// LoadRunning returns the last saved snapshot.
	LoadRunning(ctx context.Context) (map[ID]RunState, error)
}

const cycleColumns = `id, seq, name, duration_ms, start_point, points`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List retrieves all cycles ordered by seq.
func (r *SQLiteRepository) List(ctx context.Context) ([]Cycle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cycleColumns+` FROM cycles ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying cycles: %w", err)
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var c Cycle
		var id, pointsJSON string
		if err := rows.Scan(&id, &c.Seq, &c.Name, &c.DurationMs, &c.StartPoint, &pointsJSON); err != nil {
			return nil, fmt.Errorf("scanning cycle: %w", err)
		}
		c.ID = ID(id)
		if err := json.Unmarshal([]byte(pointsJSON), &c.Points); err != nil {
			return nil, fmt.Errorf("unmarshalling points of cycle %s: %w", id, err)
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cycles: %w", err)
	}
	return cycles, nil
}

// Save upserts a cycle keyed on id. created_at is kept on update.
func (r *SQLiteRepository) Save(ctx context.Context, c *Cycle) error {
	points := c.Points
	if points == nil {
		points = []Point{}
	}
	pointsJSON, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("marshalling points: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cycles (`+cycleColumns+`, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			duration_ms = excluded.duration_ms,
			start_point = excluded.start_point,
			points = excluded.points,
			updated_at = excluded.updated_at`,
		string(c.ID),
		c.Seq,
		c.Name,
		c.DurationMs,
		c.StartPoint,
		string(pointsJSON),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upserting cycle: %w", err)
	}
	return nil
}

// Delete removes a cycle and, through the foreign key, its snapshot row.
func (r *SQLiteRepository) Delete(ctx context.Context, id ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cycles WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("deleting cycle: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrCycleNotFound
	}
	return nil
}

// SaveRunning replaces running_cycles in one transaction. Entries whose
// cycle no longer exists are dropped.
func (r *SQLiteRepository) SaveRunning(ctx context.Context, states map[ID]RunState) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM running_cycles`); err != nil {
			return fmt.Errorf("clearing running cycles: %w", err)
		}
		if len(states) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO running_cycles (cycle_id, start_time_ms, paused, disabled)
			SELECT ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM cycles WHERE id = ?)`)
		if err != nil {
			return fmt.Errorf("preparing running cycle insert: %w", err)
		}
		defer stmt.Close()

		for id, st := range states {
			if _, err := stmt.ExecContext(ctx,
				string(id), st.StartTimeMs, boolToInt(st.Paused), boolToInt(st.Disabled), string(id),
			); err != nil {
				return fmt.Errorf("inserting running cycle %s: %w", id, err)
			}
		}
		return nil
	})
}

// LoadRunning reads the running cycle snapshot.
func (r *SQLiteRepository) LoadRunning(ctx context.Context) (map[ID]RunState, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cycle_id, start_time_ms, paused, disabled FROM running_cycles`)
	if err != nil {
		return nil, fmt.Errorf("querying running cycles: %w", err)
	}
	defer rows.Close()

	states := make(map[ID]RunState)
	for rows.Next() {
		var id string
		var st RunState
		var paused, disabled int
		if err := rows.Scan(&id, &st.StartTimeMs, &paused, &disabled); err != nil {
			return nil, fmt.Errorf("scanning running cycle: %w", err)
		}
		st.Paused = paused != 0
		st.Disabled = disabled != 0
		states[ID(id)] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating running cycles: %w", err)
	}
	return states, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
