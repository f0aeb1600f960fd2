package cycle

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/relaycycle/internal/relay"
)

// ID identifies a cycle. Like relay.ID it accepts JSON strings and numbers.
type ID string

// UnmarshalJSON accepts "irrigation", "7" and 7.
func (id *ID) UnmarshalJSON(b []byte) error {
	s, err := relay.DecodeID(b)
	if err != nil {
		return fmt.Errorf("cycle id: %w", err)
	}
	*id = ID(s)
	return nil
}

// Directive is a cycle-control instruction carried by a scheduled action.
type Directive string

// In-schedule directives.
const (
	DirectivePause   Directive = "pause"
	DirectiveDisable Directive = "disable"
	DirectiveEnable  Directive = "enable"
)

// Valid reports whether d may appear in a cycle action.
func (d Directive) Valid() bool {
	switch d {
	case DirectivePause, DirectiveDisable, DirectiveEnable:
		return true
	}
	return false
}

// Control is an externally requested transition of a cycle.
type Control string

// External control operations.
const (
	ControlStart   Control = "start"
	ControlStop    Control = "stop"
	ControlPause   Control = "pause"
	ControlResume  Control = "resume"
	ControlDisable Control = "disable"
	ControlEnable  Control = "enable"
)

// ParseControl validates an external control name.
func ParseControl(s string) (Control, error) {
	switch c := Control(s); c {
	case ControlStart, ControlStop, ControlPause, ControlResume, ControlDisable, ControlEnable:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownControl, s)
}

// ActionType tags the Action variant.
type ActionType string

// Action variants.
const (
	ActionRelay ActionType = "relay"
	ActionCycle ActionType = "cycle"
)

// Action is either a relay action (RelayID, On) or a cycle-control action
// (CycleID, Directive), selected by Type.
type Action struct {
	Type ActionType `json:"type"`

	RelayID relay.ID `json:"relay_id,omitempty"`
	On      bool     `json:"on"`

	CycleID   ID        `json:"cycle_id,omitempty"`
	Directive Directive `json:"directive,omitempty"`
}

// RelayAction builds a relay action.
func RelayAction(id relay.ID, on bool) Action {
	return Action{Type: ActionRelay, RelayID: id, On: on}
}

// CycleAction builds a cycle-control action.
func CycleAction(id ID, d Directive) Action {
	return Action{Type: ActionCycle, CycleID: id, Directive: d}
}

// MarshalJSON writes only the fields of the active variant.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case ActionRelay:
		return json.Marshal(struct {
			Type    ActionType `json:"type"`
			RelayID relay.ID   `json:"relay_id"`
			On      bool       `json:"on"`
		}{a.Type, a.RelayID, a.On})
	case ActionCycle:
		return json.Marshal(struct {
			Type      ActionType `json:"type"`
			CycleID   ID         `json:"cycle_id"`
			Directive Directive  `json:"directive"`
		}{a.Type, a.CycleID, a.Directive})
	}
	type plain Action
	return json.Marshal(plain(a))
}

// String renders an action for logs.
func (a Action) String() string {
	switch a.Type {
	case ActionRelay:
		state := "off"
		if a.On {
			state = "on"
		}
		return fmt.Sprintf("relay %s %s", a.RelayID, state)
	case ActionCycle:
		return fmt.Sprintf("cycle %s %s", a.CycleID, a.Directive)
	}
	return fmt.Sprintf("unknown action %q", a.Type)
}

// Point is a position within one period at which its actions fire, in
// list order.
type Point struct {
	TimeMs  int64    `json:"time_ms"`
	Actions []Action `json:"actions"`
}

// Cycle is a repeating timeline.
type Cycle struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`

	// DurationMs is the period length.
	DurationMs int64 `json:"duration_ms"`

	// StartPoint is the position within the period treated as time zero.
	StartPoint int64 `json:"start_point"`

	// Points are kept in definition order. "First point" always means
	// Points[0], never the smallest TimeMs.
	Points []Point `json:"points"`

	Seq int64 `json:"seq"`
}

// DeepCopy returns a copy that shares no slices with c.
func (c *Cycle) DeepCopy() *Cycle {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Points != nil {
		cp.Points = make([]Point, len(c.Points))
		for i, p := range c.Points {
			cp.Points[i] = Point{TimeMs: p.TimeMs}
			if p.Actions != nil {
				cp.Points[i].Actions = append([]Action(nil), p.Actions...)
			}
		}
	}
	return &cp
}

// RelayIDs returns every relay referenced by a relay action in any point,
// once each, in order of first appearance.
func (c *Cycle) RelayIDs() []relay.ID {
	seen := make(map[relay.ID]bool)
	var ids []relay.ID
	for _, p := range c.Points {
		for _, a := range p.Actions {
			if a.Type != ActionRelay || seen[a.RelayID] {
				continue
			}
			seen[a.RelayID] = true
			ids = append(ids, a.RelayID)
		}
	}
	return ids
}

// RunState is the persisted subset of a running cycle. Timers and the
// next action are never stored; they are recomputed from StartTimeMs.
type RunState struct {
	StartTimeMs int64 `json:"start_time_ms"`
	Paused      bool  `json:"paused"`
	Disabled    bool  `json:"disabled"`
}
