package cycle

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerrad567/relaycycle/internal/infrastructure/database"
	_ "github.com/nerrad567/relaycycle/migrations" // Registers embedded schema
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "cycles.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}

// testCycle returns a valid 60 s cycle switching relay "pump" on at 10 s
// and off at 40 s.
func testCycle(id ID) Cycle {
	return Cycle{
		ID:         id,
		Name:       "Irrigation",
		DurationMs: 60000,
		Points: []Point{
			{TimeMs: 10000, Actions: []Action{RelayAction("pump", true)}},
			{TimeMs: 40000, Actions: []Action{RelayAction("pump", false)}},
		},
	}
}
