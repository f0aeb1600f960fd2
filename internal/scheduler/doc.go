// Package scheduler runs cycles: it computes when each running cycle's next
// point is due, fires its actions, and re-arms.
//
// # Concurrency
//
// Every state transition, timer callback and action runs while holding the
// Scheduler's mutex, so there is one logical scheduling thread. Each
// running cycle has at most one pending timer. A timer carries the
// generation number it was armed with; a callback whose generation no
// longer matches (cancelled, or replaced by a restart) does nothing.
//
// Notifier implementations are called with the mutex held and must not
// block or call back into the Scheduler.
//
// # Timing
//
// Times are epoch milliseconds. For a cycle with period D, phase offset P
// and anchor S, at time N:
//
//	elapsed   = N - S
//	period    = floor(elapsed / D)
//	cyclePos  = elapsed mod D
//	adjusted  = (cyclePos + P) mod D
//
// The next point is the earliest one with TimeMs > adjusted (the first in
// definition order when several share a TimeMs), firing at
// S + period*D + ((TimeMs - P) mod D), moved one period later if that is
// not after N. With no such point the first defined point fires at
// S + (period+1)*D.
//
// Only that one point fires. Other points with the same TimeMs are never
// selected.
//
// Suspension (paused or disabled) polls at a fixed interval and does not
// stop the clock: points due during suspension are skipped, not deferred.
package scheduler
