package cycle

import "errors"

// Domain errors for the cycle package.
//
//	if errors.Is(err, cycle.ErrCycleNotFound) {
//	    // handle not found case
//	}
var (
	// ErrCycleNotFound is returned when a cycle ID does not exist.
	ErrCycleNotFound = errors.New("cycle: not found")

	// ErrInvalidCycle is returned when cycle validation fails. Point and
	// action errors wrap it too.
	ErrInvalidCycle = errors.New("cycle: invalid")

	// ErrInvalidPoint is returned when a point lies outside the period.
	ErrInvalidPoint = errors.New("cycle: invalid point")

	// ErrInvalidAction is returned for malformed actions.
	ErrInvalidAction = errors.New("cycle: invalid action")

	// ErrUnknownControl is returned for unrecognised control operations.
	ErrUnknownControl = errors.New("cycle: unknown control")
)
