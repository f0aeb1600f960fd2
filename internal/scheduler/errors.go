package scheduler

import (
	"errors"

	"github.com/nerrad567/relaycycle/internal/cycle"
	"github.com/nerrad567/relaycycle/internal/relay"
)

var (
	// ErrCycleNotFound is returned when no cycle definition has the ID.
	ErrCycleNotFound = cycle.ErrCycleNotFound

	// ErrRelayNotFound is returned when no relay has the ID.
	ErrRelayNotFound = relay.ErrRelayNotFound

	// ErrCycleNotRunning is returned by pause, resume, disable and enable
	// for a cycle that has no running state.
	ErrCycleNotRunning = errors.New("scheduler: cycle not running")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("scheduler: closed")
)
