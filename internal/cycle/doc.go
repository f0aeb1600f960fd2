// Package cycle defines cycles: repeating timelines of trigger points, each
// carrying relay or cycle-control actions.
//
// A Cycle is pure configuration. Whether it is running, and when its next
// point fires, belongs to the scheduler. This package also stores the
// persisted subset of a running cycle (RunState) so the scheduler can
// recover phase after a restart.
//
// Two directive sets are kept apart on purpose:
//
//	Directive  in-schedule actions:       pause, disable, enable
//	Control    external control requests: start, stop, pause, resume, disable, enable
//
// An in-schedule enable only clears the disabled flag. An external enable
// also restarts the cycle.
package cycle
