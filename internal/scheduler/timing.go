package scheduler

import "github.com/nerrad567/relaycycle/internal/cycle"

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// cyclePosition is the position within the current period, ignoring the
// phase offset.
func cyclePosition(def *cycle.Cycle, startMs, nowMs int64) int64 {
	return floorMod(nowMs-startMs, def.DurationMs)
}

// nextFire returns the absolute time of the next due point and its index.
// ok is false when the cycle has no points.
//
// The due point is the earliest one with TimeMs > adjusted, ties going to
// the first in definition order. When the period wraps, Points[0] is due.
func nextFire(def *cycle.Cycle, startMs, nowMs int64) (at int64, idx int, ok bool) {
	if len(def.Points) == 0 || def.DurationMs <= 0 {
		return 0, 0, false
	}

	dur := def.DurationMs
	elapsed := nowMs - startMs
	period := floorDiv(elapsed, dur)
	adjusted := (floorMod(elapsed, dur) + def.StartPoint) % dur

	idx = -1
	for i, p := range def.Points {
		if p.TimeMs > adjusted && (idx < 0 || p.TimeMs < def.Points[idx].TimeMs) {
			idx = i
		}
	}

	if idx < 0 {
		return startMs + (period+1)*dur, 0, true
	}

	at = startMs + period*dur + floorMod(def.Points[idx].TimeMs-def.StartPoint, dur)
	if at <= nowMs {
		// adjusted wrapped past the period end; the occurrence is in the
		// next period.
		at += dur
	}
	return at, idx, true
}

// zeroPhasePoint returns the first point, in definition order, at the
// phase offset. It fires immediately when a cycle starts.
func zeroPhasePoint(def *cycle.Cycle) (int, bool) {
	for i, p := range def.Points {
		if p.TimeMs == def.StartPoint {
			return i, true
		}
	}
	return 0, false
}
