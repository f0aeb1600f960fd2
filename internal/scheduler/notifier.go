package scheduler

import (
	"time"

	"github.com/nerrad567/relaycycle/internal/cycle"
	"github.com/nerrad567/relaycycle/internal/relay"
)

// Event sources.
const (
	SourceControl  = "control"
	SourceSchedule = "schedule"
	SourceRecovery = "recovery"
)

// CycleEvent describes a lifecycle transition of a running cycle.
type CycleEvent struct {
	CycleID cycle.ID  `json:"cycle_id"`
	Event   string    `json:"event"`
	Source  string    `json:"source"`
	At      time.Time `json:"at"`
}

// Notifier receives state changes. Calls are made on the scheduling thread
// in emission order; implementations must return quickly.
type Notifier interface {
	RelayChanged(r relay.Relay)
	CycleChanged(e CycleEvent)
}

type noopNotifier struct{}

func (noopNotifier) RelayChanged(relay.Relay) {}
func (noopNotifier) CycleChanged(CycleEvent)  {}

// Logger defines the logging interface used by the Scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
