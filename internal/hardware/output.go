package hardware

import (
	"fmt"
	"sync"

	"github.com/nerrad567/relaycycle/internal/relay"
)

// Logger defines the logging interface used by Output.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Output maps relay state onto driver lines. It remembers which pin each
// relay last drove so a re-pinned relay releases its old line.
type Output struct {
	driver Driver
	logger Logger

	mu   sync.Mutex
	pins map[relay.ID]int
}

// NewOutput creates an Output over driver.
func NewOutput(driver Driver, logger Logger) *Output {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Output{
		driver: driver,
		logger: logger,
		pins:   make(map[relay.ID]int),
	}
}

// Apply drives the relay's pin to its electrical level.
func (o *Output) Apply(r relay.Relay) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if prev, ok := o.pins[r.ID]; ok && prev != r.Pin {
		if err := o.driver.Release(prev); err != nil {
			o.logger.Warn("releasing old relay pin failed", "relay_id", r.ID, "pin", prev, "error", err)
		}
	}

	if err := o.driver.Set(r.Pin, r.Level()); err != nil {
		return fmt.Errorf("relay %s pin %d: %w", r.ID, r.Pin, err)
	}
	o.pins[r.ID] = r.Pin

	o.logger.Debug("relay output set", "relay_id", r.ID, "pin", r.Pin, "level", r.Level())
	return nil
}

// Sync applies every relay, returning the first error after trying all.
func (o *Output) Sync(relays []relay.Relay) error {
	var first error
	for _, r := range relays {
		if err := o.Apply(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close releases the driver.
func (o *Output) Close() error {
	return o.driver.Close()
}
