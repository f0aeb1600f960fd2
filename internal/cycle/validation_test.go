package cycle

import (
	"errors"
	"testing"
)

func TestValidateCycle(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Cycle)
		wantErr error
	}{
		{name: "valid", mutate: func(*Cycle) {}},
		{name: "no points", mutate: func(c *Cycle) { c.Points = nil }},
		{name: "co-timed points", mutate: func(c *Cycle) {
			c.Points = append(c.Points, Point{TimeMs: 10000})
		}},
		{name: "missing id", mutate: func(c *Cycle) { c.ID = "" }, wantErr: ErrInvalidCycle},
		{name: "zero duration", mutate: func(c *Cycle) { c.DurationMs = 0 }, wantErr: ErrInvalidCycle},
		{name: "negative duration", mutate: func(c *Cycle) { c.DurationMs = -5 }, wantErr: ErrInvalidCycle},
		{name: "start point at duration", mutate: func(c *Cycle) { c.StartPoint = 60000 }, wantErr: ErrInvalidCycle},
		{name: "negative start point", mutate: func(c *Cycle) { c.StartPoint = -1 }, wantErr: ErrInvalidCycle},
		{name: "point at duration", mutate: func(c *Cycle) { c.Points[1].TimeMs = 60000 }, wantErr: ErrInvalidPoint},
		{name: "negative point", mutate: func(c *Cycle) { c.Points[0].TimeMs = -1 }, wantErr: ErrInvalidPoint},
		{name: "unknown action type", mutate: func(c *Cycle) {
			c.Points[0].Actions = []Action{{Type: "scene"}}
		}, wantErr: ErrInvalidAction},
		{name: "relay action without relay", mutate: func(c *Cycle) {
			c.Points[0].Actions = []Action{{Type: ActionRelay}}
		}, wantErr: ErrInvalidAction},
		{name: "resume directive", mutate: func(c *Cycle) {
			c.Points[0].Actions = []Action{CycleAction("other", "resume")}
		}, wantErr: ErrInvalidAction},
		{name: "self-targeting pause", mutate: func(c *Cycle) {
			c.Points[0].Actions = []Action{CycleAction(c.ID, DirectivePause)}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCycle("irrigation")
			tt.mutate(&c)
			err := ValidateCycle(&c)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCycle() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCycle() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidCycle) {
				t.Errorf("ValidateCycle() error = %v, should also wrap ErrInvalidCycle", err)
			}
		})
	}
}

func TestValidateCycle_Nil(t *testing.T) {
	if err := ValidateCycle(nil); !errors.Is(err, ErrInvalidCycle) {
		t.Errorf("ValidateCycle(nil) error = %v", err)
	}
}
