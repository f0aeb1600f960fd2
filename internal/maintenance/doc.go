// Package maintenance runs the periodic jobs: persisting the running-cycle
// snapshot and relay statuses, and pruning old relay history.
package maintenance
