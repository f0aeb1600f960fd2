package scheduler

import (
	"context"
	"fmt"

	"github.com/nerrad567/relaycycle/internal/cycle"
	"github.com/nerrad567/relaycycle/internal/relay"
)

// StartCycle starts a defined cycle. With restart unset a running cycle is
// left untouched.
func (s *Scheduler) StartCycle(id cycle.ID, restart bool) error {
	def, ok := s.cycles.Get(id)
	if !ok {
		return ErrCycleNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.startLocked(def, restart, SourceControl)
	return nil
}

// StopCycle stops a cycle and turns its relays off. Stopping a cycle that
// is defined but not running is a no-op.
func (s *Scheduler) StopCycle(id cycle.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopLocked(id, SourceControl) {
		return nil
	}
	if _, ok := s.cycles.Get(id); !ok {
		return ErrCycleNotFound
	}
	return nil
}

// PauseCycle suspends a running cycle and turns its relays off.
func (s *Scheduler) PauseCycle(id cycle.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.running[id]
	if !ok {
		return ErrCycleNotRunning
	}
	st.paused = true
	s.sweep(&st.def)
	s.emit(id, "pause", SourceControl)
	return nil
}

// DisableCycle turns a running cycle's relays off and suspends it.
func (s *Scheduler) DisableCycle(id cycle.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.running[id]
	if !ok {
		return ErrCycleNotRunning
	}
	s.sweep(&st.def)
	st.disabled = true
	s.emit(id, "disable", SourceControl)
	return nil
}

// ResumeCycle clears the paused flag and restarts the cycle from phase
// zero.
func (s *Scheduler) ResumeCycle(id cycle.ID) error {
	return s.unsuspend(id, "resume", func(st *runState) { st.paused = false })
}

// EnableCycle clears the disabled flag and restarts the cycle from phase
// zero. The enable directive inside a point only clears the flag.
func (s *Scheduler) EnableCycle(id cycle.ID) error {
	return s.unsuspend(id, "enable", func(st *runState) { st.disabled = false })
}

func (s *Scheduler) unsuspend(id cycle.ID, event string, clear func(*runState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	st, ok := s.running[id]
	if !ok {
		return ErrCycleNotRunning
	}
	clear(st)
	s.emit(id, event, SourceControl)

	// UpsertCycle restarts a running cycle, so st.def is the registered
	// definition.
	s.startLocked(st.def, true, SourceControl)
	return nil
}

// Control dispatches an external control by name.
func (s *Scheduler) Control(id cycle.ID, c cycle.Control) error {
	switch c {
	case cycle.ControlStart:
		return s.StartCycle(id, true)
	case cycle.ControlStop:
		return s.StopCycle(id)
	case cycle.ControlPause:
		return s.PauseCycle(id)
	case cycle.ControlResume:
		return s.ResumeCycle(id)
	case cycle.ControlDisable:
		return s.DisableCycle(id)
	case cycle.ControlEnable:
		return s.EnableCycle(id)
	default:
		return fmt.Errorf("%w: %q", cycle.ErrUnknownControl, c)
	}
}

// UpsertCycle validates and persists a definition, then (re)starts it.
func (s *Scheduler) UpsertCycle(ctx context.Context, def cycle.Cycle) (cycle.Cycle, error) {
	saved, err := s.cycles.Upsert(ctx, def)
	if err != nil {
		return cycle.Cycle{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return saved, ErrClosed
	}
	s.startLocked(saved, true, SourceControl)
	return saved, nil
}

// DeleteCycle stops a cycle and removes its definition.
func (s *Scheduler) DeleteCycle(ctx context.Context, id cycle.ID) error {
	s.mu.Lock()
	s.stopLocked(id, SourceControl)
	s.mu.Unlock()

	return s.cycles.Delete(ctx, id)
}

// UpsertRelay persists a relay definition and announces it.
func (s *Scheduler) UpsertRelay(ctx context.Context, def relay.Relay) (relay.Relay, error) {
	saved, err := s.relays.Upsert(ctx, def)
	if err != nil {
		return relay.Relay{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier.RelayChanged(saved)
	return saved, nil
}

// SetRelay sets a relay's status.
func (s *Scheduler) SetRelay(id relay.ID, on bool) (relay.Relay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.relays.SetStatus(id, on)
	if !ok {
		return relay.Relay{}, ErrRelayNotFound
	}
	s.notifier.RelayChanged(r)
	return r, nil
}

// ToggleRelay inverts a relay's status.
func (s *Scheduler) ToggleRelay(id relay.ID) (relay.Relay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.relays.Toggle(id)
	if !ok {
		return relay.Relay{}, ErrRelayNotFound
	}
	s.notifier.RelayChanged(r)
	return r, nil
}

// EmergencyOff stops every cycle and turns every relay off.
func (s *Scheduler) EmergencyOff() {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopped := len(s.running)
	for id, st := range s.running {
		st.cancelTimer()
		delete(s.running, id)
		s.emit(id, "emergency_off", SourceControl)
	}

	for _, r := range s.relays.List() {
		updated, ok := s.relays.SetStatus(r.ID, false)
		if !ok {
			continue
		}
		s.notifier.RelayChanged(updated)
	}

	s.logger.Warn("emergency off", "cycles_stopped", stopped, "relays", s.relays.Len())
}
