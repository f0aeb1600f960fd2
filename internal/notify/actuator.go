package notify

import (
	"github.com/nerrad567/relaycycle/internal/relay"
	"github.com/nerrad567/relaycycle/internal/scheduler"
)

// Output drives a relay's hardware line.
type Output interface {
	Apply(r relay.Relay) error
}

// Actuator applies relay changes to the hardware before passing every
// change to next. A failed write is logged and the change still goes on.
type Actuator struct {
	output Output
	next   scheduler.Notifier
	logger Logger
}

var _ scheduler.Notifier = (*Actuator)(nil)

// NewActuator wraps next with hardware output.
func NewActuator(output Output, next scheduler.Notifier, logger Logger) *Actuator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Actuator{output: output, next: next, logger: logger}
}

func (a *Actuator) RelayChanged(r relay.Relay) {
	if err := a.output.Apply(r); err != nil {
		a.logger.Warn("relay output failed", "relay_id", r.ID, "status", r.Status, "error", err)
	}
	a.next.RelayChanged(r)
}

func (a *Actuator) CycleChanged(e scheduler.CycleEvent) {
	a.next.CycleChanged(e)
}
