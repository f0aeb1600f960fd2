package scheduler

import (
	"fmt"

	"github.com/nerrad567/relaycycle/internal/cycle"
)

// Outcome reports whether an action took effect.
type Outcome string

// Action outcomes.
const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
)

// Skip reasons.
const (
	reasonRelayNotFound    = "relay not found"
	reasonCycleNotRunning  = "target cycle not running"
	reasonUnknownDirective = "unknown directive"
	reasonUnknownAction    = "unknown action type"
)

// ActionResult is the outcome of executing one action.
type ActionResult struct {
	Action  cycle.Action `json:"action"`
	Outcome Outcome      `json:"outcome"`
	Reason  string       `json:"reason,omitempty"`
}

func applied(a cycle.Action) ActionResult {
	return ActionResult{Action: a, Outcome: OutcomeApplied}
}

func skipped(a cycle.Action, reason string) ActionResult {
	return ActionResult{Action: a, Outcome: OutcomeSkipped, Reason: reason}
}

// execute applies a single action. Failures are reported in the result and
// never abort the caller. Must be called with s.mu held.
func (s *Scheduler) execute(a cycle.Action) (res ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("action panicked", "action", a.String(), "panic", r)
			res = skipped(a, fmt.Sprintf("panic: %v", r))
		}
	}()

	switch a.Type {
	case cycle.ActionRelay:
		r, ok := s.relays.SetStatus(a.RelayID, a.On)
		if !ok {
			return skipped(a, reasonRelayNotFound)
		}
		s.notifier.RelayChanged(r)
		return applied(a)

	case cycle.ActionCycle:
		target, ok := s.running[a.CycleID]
		if !ok {
			return skipped(a, reasonCycleNotRunning)
		}
		switch a.Directive {
		case cycle.DirectivePause:
			target.paused = true
			s.sweep(&target.def)
			s.emit(a.CycleID, "pause", SourceSchedule)
		case cycle.DirectiveDisable:
			s.sweep(&target.def)
			target.disabled = true
			s.emit(a.CycleID, "disable", SourceSchedule)
		case cycle.DirectiveEnable:
			// Clears the flag only; the cycle keeps its phase.
			target.disabled = false
			s.emit(a.CycleID, "enable", SourceSchedule)
		default:
			return skipped(a, reasonUnknownDirective)
		}
		return applied(a)

	default:
		return skipped(a, reasonUnknownAction)
	}
}

// executePoint runs a point's actions in order.
func (s *Scheduler) executePoint(owner cycle.ID, p cycle.Point) []ActionResult {
	results := make([]ActionResult, 0, len(p.Actions))
	for _, a := range p.Actions {
		res := s.execute(a)
		if res.Outcome == OutcomeSkipped {
			s.logger.Warn("action skipped",
				"cycle_id", owner,
				"point_ms", p.TimeMs,
				"action", a.String(),
				"reason", res.Reason,
			)
		}
		results = append(results, res)
	}
	return results
}

// firePoint runs point idx of st's definition and records the outcome on st.
func (s *Scheduler) firePoint(id cycle.ID, st *runState, idx int) {
	results := s.executePoint(id, st.def.Points[idx])
	st.fires++
	st.lastFire = &FireRecord{AtMs: s.nowMs(), Results: results}
}

// sweep turns every relay the definition references off and notifies once
// per existing relay, whatever its previous status.
func (s *Scheduler) sweep(def *cycle.Cycle) {
	for _, id := range def.RelayIDs() {
		r, ok := s.relays.SetStatus(id, false)
		if !ok {
			continue
		}
		s.notifier.RelayChanged(r)
	}
}
