package relay

import "errors"

// Domain errors for the relay package.
//
//	if errors.Is(err, relay.ErrRelayNotFound) {
//	    // handle not found case
//	}
var (
	// ErrRelayNotFound is returned when a relay ID does not exist.
	ErrRelayNotFound = errors.New("relay: not found")

	// ErrInvalidRelay is returned when relay validation fails.
	ErrInvalidRelay = errors.New("relay: invalid")
)
