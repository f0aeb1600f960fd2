package scheduler

import (
	"sync"
	"time"

	"github.com/nerrad567/relaycycle/internal/cycle"
	"github.com/nerrad567/relaycycle/internal/relay"
)

// DefaultSuspendPoll is how often a suspended cycle re-checks its flags.
const DefaultSuspendPoll = time.Second

// Options configures a Scheduler. Zero values select defaults.
type Options struct {
	Clock       Clock
	Notifier    Notifier
	Logger      Logger
	SuspendPoll time.Duration
}

// Scheduler owns the running state of every cycle.
type Scheduler struct {
	mu sync.Mutex

	relays *relay.Registry
	cycles *cycle.Registry

	clock       Clock
	notifier    Notifier
	logger      Logger
	suspendPoll time.Duration

	running map[cycle.ID]*runState
	closed  bool
}

// New creates a Scheduler over the given registries. No cycle runs until
// StartCycle, UpsertCycle or Restore.
func New(relays *relay.Registry, cycles *cycle.Registry, opts Options) *Scheduler {
	s := &Scheduler{
		relays:      relays,
		cycles:      cycles,
		clock:       opts.Clock,
		notifier:    opts.Notifier,
		logger:      opts.Logger,
		suspendPoll: opts.SuspendPoll,
		running:     make(map[cycle.ID]*runState),
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	if s.suspendPoll <= 0 {
		s.suspendPoll = DefaultSuspendPoll
	}
	return s
}

// Close cancels every pending timer. Relay statuses and running state are
// left as they are so a final snapshot can still be taken.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, st := range s.running {
		st.cancelTimer()
	}
	s.logger.Info("scheduler closed", "running", len(s.running))
}

func (s *Scheduler) nowMs() int64 {
	return s.clock.Now().UnixMilli()
}

func (s *Scheduler) emit(id cycle.ID, event, source string) {
	s.notifier.CycleChanged(CycleEvent{
		CycleID: id,
		Event:   event,
		Source:  source,
		At:      s.clock.Now(),
	})
}

// startLocked starts def. An already running cycle is left alone unless
// restart is set, in which case it is stopped first.
func (s *Scheduler) startLocked(def cycle.Cycle, restart bool, source string) bool {
	if _, ok := s.running[def.ID]; ok {
		if !restart {
			return false
		}
		s.stopLocked(def.ID, source)
	}

	st := &runState{def: def, startMs: s.nowMs()}
	s.running[def.ID] = st
	s.emit(def.ID, "start", source)

	if idx, ok := zeroPhasePoint(&st.def); ok {
		s.firePoint(def.ID, st, idx)
	}
	s.scheduleNext(def.ID, st)

	s.logger.Info("cycle started",
		"cycle_id", def.ID,
		"duration_ms", def.DurationMs,
		"start_point", def.StartPoint,
		"source", source,
	)
	return true
}

// stopLocked cancels the cycle's timer, sweeps its relays off and forgets
// its state. It reports whether the cycle was running.
func (s *Scheduler) stopLocked(id cycle.ID, source string) bool {
	st, ok := s.running[id]
	if !ok {
		return false
	}
	st.cancelTimer()
	s.sweep(&st.def)
	delete(s.running, id)
	s.emit(id, "stop", source)
	s.logger.Info("cycle stopped", "cycle_id", id, "source", source)
	return true
}

// scheduleNext arms the single timer for st. A suspended cycle gets a poll
// timer and keeps its last NextAction.
func (s *Scheduler) scheduleNext(id cycle.ID, st *runState) {
	if s.closed || s.running[id] != st {
		return
	}
	st.cancelTimer()

	if st.suspended() {
		gen := st.gen
		st.timer = s.clock.AfterFunc(s.suspendPoll, func() {
			s.onPoll(id, st, gen)
		})
		return
	}

	now := s.nowMs()
	at, idx, ok := nextFire(&st.def, st.startMs, now)
	if !ok {
		st.next = nil
		return
	}
	st.next = &NextAction{TimeMs: at, Point: st.def.Points[idx]}

	gen := st.gen
	st.timer = s.clock.AfterFunc(time.Duration(at-now)*time.Millisecond, func() {
		s.onFire(id, st, gen, idx)
	})
}

// live reports whether a callback armed with gen still owns st.
func (s *Scheduler) live(id cycle.ID, st *runState, gen uint64) bool {
	return !s.closed && s.running[id] == st && st.gen == gen
}

func (s *Scheduler) onFire(id cycle.ID, st *runState, gen uint64, idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live(id, st, gen) {
		return
	}
	st.timer = nil

	if !st.suspended() {
		s.firePoint(id, st, idx)
	}
	s.scheduleNext(id, st)
}

func (s *Scheduler) onPoll(id cycle.ID, st *runState, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live(id, st, gen) {
		return
	}
	st.timer = nil
	s.scheduleNext(id, st)
}
