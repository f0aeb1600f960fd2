package scheduler

import (
	"github.com/nerrad567/relaycycle/internal/cycle"
)

// PersistedState is the durable part of a running cycle.
type PersistedState = cycle.RunState

// NextAction is the next point a running cycle will fire.
type NextAction struct {
	TimeMs int64       `json:"time"`
	Point  cycle.Point `json:"point"`
}

// FireRecord is the outcome of the most recent point execution.
type FireRecord struct {
	AtMs    int64          `json:"at"`
	Results []ActionResult `json:"results"`
}

// runState is the live state of one running cycle. It is only touched with
// the Scheduler mutex held.
type runState struct {
	def      cycle.Cycle
	startMs  int64
	paused   bool
	disabled bool
	next     *NextAction
	timer    Timer
	gen      uint64
	fires    uint64
	lastFire *FireRecord
}

func (st *runState) suspended() bool {
	return st.paused || st.disabled
}

func (st *runState) persisted() PersistedState {
	return PersistedState{
		StartTimeMs: st.startMs,
		Paused:      st.paused,
		Disabled:    st.disabled,
	}
}

func (st *runState) cancelTimer() {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	// Bump the generation so an already-queued callback is ignored.
	st.gen++
}
