package scheduler

import (
	"sort"
	"time"

	"github.com/nerrad567/relaycycle/internal/cycle"
	"github.com/nerrad567/relaycycle/internal/relay"
)

// CycleView is a definition merged with its runtime state.
type CycleView struct {
	cycle.Cycle
	Running     bool        `json:"running"`
	Paused      bool        `json:"paused"`
	Disabled    bool        `json:"disabled"`
	CurrentTime int64       `json:"current_time"`
	NextAction  *NextAction `json:"next_action"`
}

// DescribeCycles returns every defined cycle with its runtime state at now.
// CurrentTime is the position within the current period, ignoring the
// phase offset.
func (s *Scheduler) DescribeCycles(now time.Time) []CycleView {
	defs := s.cycles.List()
	nowMs := now.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]CycleView, 0, len(defs))
	for _, def := range defs {
		v := CycleView{Cycle: def}
		if st, ok := s.running[def.ID]; ok {
			v.Running = true
			v.Paused = st.paused
			v.Disabled = st.disabled
			v.CurrentTime = cyclePosition(&st.def, st.startMs, nowMs)
			if st.next != nil {
				next := *st.next
				v.NextAction = &next
			}
		}
		views = append(views, v)
	}
	return views
}

// Snapshot returns the persistable state of every running cycle.
func (s *Scheduler) Snapshot() map[cycle.ID]PersistedState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[cycle.ID]PersistedState, len(s.running))
	for id, st := range s.running {
		out[id] = st.persisted()
	}
	return out
}

// IsRunning reports whether the cycle has running state.
func (s *Scheduler) IsRunning(id cycle.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[id]
	return ok
}

// RunningView is the debug view of one running cycle.
type RunningView struct {
	CycleID     cycle.ID    `json:"cycle_id"`
	StartTimeMs int64       `json:"start_time_ms"`
	Paused      bool        `json:"paused"`
	Disabled    bool        `json:"disabled"`
	NextAction  *NextAction `json:"next_action"`
	TimerArmed  bool        `json:"timer_armed"`
	Fires       uint64      `json:"fires"`
	LastFire    *FireRecord `json:"last_fire,omitempty"`
}

// DebugView is a full dump of scheduler state.
type DebugView struct {
	Timestamp int64         `json:"timestamp"`
	Relays    []relay.Relay `json:"relays"`
	Cycles    []cycle.Cycle `json:"cycles"`
	Running   []RunningView `json:"running_cycles"`
}

// Debug returns every relay, every definition and the raw running state.
func (s *Scheduler) Debug() DebugView {
	relays := s.relays.List()
	defs := s.cycles.List()

	s.mu.Lock()
	defer s.mu.Unlock()

	running := make([]RunningView, 0, len(s.running))
	for id, st := range s.running {
		rv := RunningView{
			CycleID:     id,
			StartTimeMs: st.startMs,
			Paused:      st.paused,
			Disabled:    st.disabled,
			TimerArmed:  st.timer != nil,
			Fires:       st.fires,
			LastFire:    st.lastFire,
		}
		if st.next != nil {
			next := *st.next
			rv.NextAction = &next
		}
		running = append(running, rv)
	}
	sort.Slice(running, func(i, j int) bool { return running[i].CycleID < running[j].CycleID })

	return DebugView{
		Timestamp: s.nowMs(),
		Relays:    relays,
		Cycles:    defs,
		Running:   running,
	}
}
