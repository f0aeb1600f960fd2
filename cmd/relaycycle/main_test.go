package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/relaycycle/internal/cycle"
	"github.com/nerrad567/relaycycle/internal/infrastructure/database"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("RELAYCYCLE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails validation on an empty path.
func TestRun_MissingDatabasePath(t *testing.T) {
	t.Setenv("RELAYCYCLE_CONFIG", writeConfig(t, `
database:
  path: ""
`))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestRun_StartupAndShutdown starts the full stack without external
// services and checks that shutdown leaves a snapshot behind.
func TestRun_StartupAndShutdown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "relaycycle.db")
	t.Setenv("RELAYCYCLE_CONFIG", writeConfig(t, `
database:
  path: "`+dbPath+`"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: false
influxdb:
  enabled: false
logging:
  level: error
  format: text
  output: stdout
api:
  host: "127.0.0.1"
  port: 18931
hardware:
  gpio:
    enabled: false
`))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() = %v, want clean shutdown", err)
	}

	db, err := database.Open(database.Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("reopening database: %v", err)
	}
	defer db.Close()

	states, err := cycle.NewSQLiteRepository(db.DB).LoadRunning(context.Background())
	if err != nil {
		t.Fatalf("LoadRunning: %v", err)
	}
	if len(states) != 0 {
		t.Errorf("running states = %d, want 0 for an empty install", len(states))
	}
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	t.Setenv("RELAYCYCLE_CONFIG", writeConfig(t, `
database:
  path: "/tmp/unused.db"
`))
	t.Setenv("RELAYCYCLE_JWT_SECRET", "")

	if err := issueToken("operator", time.Hour); err == nil {
		t.Error("issueToken() without a secret should fail")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("RELAYCYCLE_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("RELAYCYCLE_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}
