package relay

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerrad567/relaycycle/internal/infrastructure/database"
	_ "github.com/nerrad567/relaycycle/migrations" // Registers embedded schema
)

// setupTestDB opens a migrated database in a temp directory.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "relays.db"),
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
