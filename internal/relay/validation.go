package relay

import (
	"fmt"
	"strings"
)

const (
	maxIDLength    = 64
	maxNameLength  = 100
	maxColorLength = 32
	maxPin         = 1023
)

// ValidateID checks that id is usable as a map key, URL segment and MQTT
// topic level.
func ValidateID(id ID) error {
	s := string(id)
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRelay)
	}
	if len(s) > maxIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidRelay, maxIDLength)
	}
	if strings.ContainsAny(s, "/+#") {
		return fmt.Errorf("%w: id must not contain '/', '+' or '#'", ErrInvalidRelay)
	}
	return nil
}

// ValidateRelay checks a relay definition before it is stored.
func ValidateRelay(r Relay) error {
	if err := ValidateID(r.ID); err != nil {
		return err
	}
	if r.Pin < 0 || r.Pin > maxPin {
		return fmt.Errorf("%w: pin %d out of range [0, %d]", ErrInvalidRelay, r.Pin, maxPin)
	}
	if len(r.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidRelay, maxNameLength)
	}
	if len(r.Color) > maxColorLength {
		return fmt.Errorf("%w: color exceeds %d characters", ErrInvalidRelay, maxColorLength)
	}
	return nil
}
