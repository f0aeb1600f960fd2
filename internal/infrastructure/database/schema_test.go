package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/relaycycle/internal/infrastructure/database"
	_ "github.com/nerrad567/relaycycle/migrations"
)

// TestEmbeddedSchema runs the shipped migrations up, down and up again.
func TestEmbeddedSchema(t *testing.T) {
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "relaycycle.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	for _, table := range []string{"relays", "cycles", "running_cycles", "relay_history"} {
		var n int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("table %s missing after Migrate", table)
		}
	}

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != "20260305_140000" {
		t.Errorf("SchemaVersion() = %q, want 20260305_140000", version)
	}

	if _, err := db.ExecContext(ctx,
		"INSERT INTO cycles (id, seq, duration_ms, created_at, updated_at) VALUES ('c1', 1, 0, '', '')"); err == nil {
		t.Error("cycles accepted duration_ms = 0")
	}

	for range 2 {
		if err := db.MigrateDown(ctx); err != nil {
			t.Fatalf("MigrateDown() error = %v", err)
		}
	}
	if version, _ := db.SchemaVersion(ctx); version != "" {
		t.Errorf("SchemaVersion() after full rollback = %q, want empty", version)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("re-Migrate() error = %v", err)
	}
}
