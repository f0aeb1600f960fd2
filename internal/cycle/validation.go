package cycle

import (
	"fmt"
	"strings"

	"github.com/nerrad567/relaycycle/internal/relay"
)

const (
	maxIDLength        = 64
	maxNameLength      = 100
	maxPoints          = 1000
	maxActionsPerPoint = 100

	// maxDurationMs caps a period at one year.
	maxDurationMs = 366 * 24 * 60 * 60 * 1000
)

// ValidateID checks that id is usable as a map key, URL segment and MQTT
// topic level.
func ValidateID(id ID) error {
	s := string(id)
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidCycle)
	}
	if len(s) > maxIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidCycle, maxIDLength)
	}
	if strings.ContainsAny(s, "/+#") {
		return fmt.Errorf("%w: id must not contain '/', '+' or '#'", ErrInvalidCycle)
	}
	return nil
}

// ValidateCycle checks a definition before it is stored. Invalid timing is
// rejected here so the scheduler never sees it.
//
// Relay and cycle targets are not required to exist: a missing target is
// skipped when the action fires.
func ValidateCycle(c *Cycle) error {
	if c == nil {
		return fmt.Errorf("%w: cycle is nil", ErrInvalidCycle)
	}
	if err := ValidateID(c.ID); err != nil {
		return err
	}
	if len(c.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidCycle, maxNameLength)
	}
	if c.DurationMs <= 0 {
		return fmt.Errorf("%w: duration_ms must be > 0, got %d", ErrInvalidCycle, c.DurationMs)
	}
	if c.DurationMs > maxDurationMs {
		return fmt.Errorf("%w: duration_ms exceeds %d", ErrInvalidCycle, int64(maxDurationMs))
	}
	if c.StartPoint < 0 || c.StartPoint >= c.DurationMs {
		return fmt.Errorf("%w: start_point %d outside [0, %d)", ErrInvalidCycle, c.StartPoint, c.DurationMs)
	}
	if len(c.Points) > maxPoints {
		return fmt.Errorf("%w: more than %d points", ErrInvalidCycle, maxPoints)
	}

	for i, p := range c.Points {
		if p.TimeMs < 0 || p.TimeMs >= c.DurationMs {
			return fmt.Errorf("%w: %w: point %d time_ms %d outside [0, %d)",
				ErrInvalidCycle, ErrInvalidPoint, i, p.TimeMs, c.DurationMs)
		}
		if len(p.Actions) > maxActionsPerPoint {
			return fmt.Errorf("%w: %w: point %d has more than %d actions",
				ErrInvalidCycle, ErrInvalidPoint, i, maxActionsPerPoint)
		}
		for j, a := range p.Actions {
			if err := validateAction(a); err != nil {
				return fmt.Errorf("%w: point %d action %d: %w", ErrInvalidCycle, i, j, err)
			}
		}
	}
	return nil
}

func validateAction(a Action) error {
	switch a.Type {
	case ActionRelay:
		if err := relay.ValidateID(a.RelayID); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
	case ActionCycle:
		if err := ValidateID(a.CycleID); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
		if !a.Directive.Valid() {
			return fmt.Errorf("%w: directive %q is not one of pause, disable, enable", ErrInvalidAction, a.Directive)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
	return nil
}
