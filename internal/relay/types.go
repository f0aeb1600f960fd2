package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID identifies a relay. It is chosen by the user and may arrive on the
// wire as a JSON string or number; both decode to the same ID.
type ID string

// UnmarshalJSON accepts "pump", "3" and 3.
func (id *ID) UnmarshalJSON(b []byte) error {
	s, err := DecodeID(b)
	if err != nil {
		return fmt.Errorf("relay id: %w", err)
	}
	*id = ID(s)
	return nil
}

// DecodeID decodes a JSON string or number into its string form.
func DecodeID(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", fmt.Errorf("must be a string or number: %w", err)
	}
	return n.String(), nil
}

// Relay is a single switchable output.
type Relay struct {
	ID ID `json:"id"`

	// Pin is the output line number. Only the hardware layer interprets it.
	Pin int `json:"pin"`

	// Inverted flips the electrical level for active-low boards.
	Inverted bool `json:"inverted"`

	Name  string `json:"name"`
	Color string `json:"color"`

	// Status is the commanded state, true meaning on.
	Status bool `json:"status"`

	// Seq orders relays by first insertion.
	Seq int64 `json:"seq"`
}

// Level returns the electrical output level for the current status.
func (r Relay) Level() bool {
	return r.Status != r.Inverted
}
