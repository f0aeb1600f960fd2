package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/relaycycle/internal/cycle"
)

type mockSnapshotter struct {
	states map[cycle.ID]cycle.RunState
}

func (m *mockSnapshotter) Snapshot() map[cycle.ID]cycle.RunState { return m.states }

type mockRunningStore struct {
	mu    sync.Mutex
	saved []map[cycle.ID]cycle.RunState
	err   error
}

func (m *mockRunningStore) SaveRunning(_ context.Context, states map[cycle.ID]cycle.RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, states)
	return m.err
}

func (m *mockRunningStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type mockStatusSaver struct {
	calls int
	err   error
}

func (m *mockStatusSaver) SaveStatuses(context.Context) error {
	m.calls++
	return m.err
}

type mockPruner struct {
	before time.Time
}

func (m *mockPruner) Prune(_ context.Context, before time.Time) (int64, error) {
	m.before = before
	return 3, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func testDeps() (Deps, *mockRunningStore, *mockStatusSaver, *mockPruner) {
	running := &mockRunningStore{}
	relays := &mockStatusSaver{}
	pruner := &mockPruner{}
	return Deps{
		Scheduler: &mockSnapshotter{states: map[cycle.ID]cycle.RunState{
			"c1": {StartTimeMs: 1000, Paused: true},
		}},
		Running: running,
		Relays:  relays,
		History: pruner,
	}, running, relays, pruner
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	deps, _, _, _ := testDeps()

	if _, err := New(Config{SnapshotSchedule: "every five seconds"}, deps, nopLogger{}); err == nil {
		t.Error("New() accepted an invalid snapshot schedule")
	}
	if _, err := New(Config{SnapshotSchedule: "@every 5s", PruneSchedule: "bogus", Retention: time.Hour}, deps, nopLogger{}); err == nil {
		t.Error("New() accepted an invalid prune schedule")
	}
	if _, err := New(Config{SnapshotSchedule: "@every 5s"}, Deps{}, nopLogger{}); err == nil {
		t.Error("New() accepted missing dependencies")
	}
}

func TestService_SaveSnapshot(t *testing.T) {
	deps, running, relays, _ := testDeps()
	s, err := New(Config{SnapshotSchedule: "@every 5s"}, deps, nopLogger{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.SaveSnapshot(context.Background()); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if running.count() != 1 || !running.saved[0]["c1"].Paused {
		t.Errorf("saved = %+v, want the scheduler snapshot", running.saved)
	}
	if relays.calls != 1 {
		t.Errorf("SaveStatuses calls = %d, want 1", relays.calls)
	}
}

func TestService_SaveSnapshotAttemptsBothWrites(t *testing.T) {
	deps, running, relays, _ := testDeps()
	running.err = errors.New("disk full")
	s, err := New(Config{SnapshotSchedule: "@every 5s"}, deps, nopLogger{})
	if err != nil {
		t.Fatal(err)
	}

	err = s.SaveSnapshot(context.Background())
	if !errors.Is(err, running.err) {
		t.Errorf("SaveSnapshot() error = %v, want wrapped running error", err)
	}
	if relays.calls != 1 {
		t.Error("relay statuses should still be saved")
	}
}

func TestService_PruneHistory(t *testing.T) {
	deps, _, _, pruner := testDeps()
	s, err := New(Config{SnapshotSchedule: "@every 5s", PruneSchedule: "@daily", Retention: 48 * time.Hour}, deps, nopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n, err := s.PruneHistory(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("PruneHistory() = %d, %v", n, err)
	}
	if want := now.Add(-48 * time.Hour); !pruner.before.Equal(want) {
		t.Errorf("cutoff = %v, want %v", pruner.before, want)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("entries = %d, want snapshot and prune jobs", got)
	}
}

func TestService_PruneDisabledWithoutRetention(t *testing.T) {
	deps, _, _, pruner := testDeps()
	s, err := New(Config{SnapshotSchedule: "@every 5s", PruneSchedule: "@daily"}, deps, nopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	if n, err := s.PruneHistory(context.Background()); n != 0 || err != nil {
		t.Errorf("PruneHistory() = %d, %v; want no-op", n, err)
	}
	if !pruner.before.IsZero() {
		t.Error("pruner called with retention disabled")
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("entries = %d, want only the snapshot job", got)
	}
}

func TestService_RunsSnapshotJob(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the cron runner")
	}
	deps, running, _, _ := testDeps()
	s, err := New(Config{SnapshotSchedule: "@every 1s"}, deps, nopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Stop(context.Background())

	deadline := time.Now().Add(3 * time.Second)
	for running.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("snapshot job did not run")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
