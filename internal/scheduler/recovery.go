package scheduler

import (
	"sort"

	"github.com/nerrad567/relaycycle/internal/cycle"
)

// Restore rebuilds running state from a persisted snapshot. Each known
// cycle is restarted on its persisted anchor, so it resumes in phase.
// A restart clears the paused and disabled flags, sweeps the cycle's
// relays off and fires its zero-phase point again. Entries for unknown
// cycles are dropped. Restore returns the number of cycles restored.
func (s *Scheduler) Restore(states map[cycle.ID]PersistedState) int {
	ids := make([]cycle.ID, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for _, id := range ids {
		def, ok := s.cycles.Get(id)
		if !ok {
			s.logger.Warn("dropping running state for unknown cycle", "cycle_id", id)
			continue
		}

		if !s.stopLocked(id, SourceRecovery) {
			s.sweep(&def)
		}

		ps := states[id]
		st := &runState{def: def, startMs: ps.StartTimeMs}
		s.running[id] = st
		s.emit(id, "restore", SourceRecovery)

		if idx, ok := zeroPhasePoint(&st.def); ok {
			s.firePoint(id, st, idx)
		}
		s.scheduleNext(id, st)
		restored++

		s.logger.Info("cycle restored",
			"cycle_id", id,
			"start_time_ms", ps.StartTimeMs,
			"was_paused", ps.Paused,
			"was_disabled", ps.Disabled,
		)
	}
	return restored
}
