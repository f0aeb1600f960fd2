package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/relaycycle/internal/relay"
	"github.com/nerrad567/relaycycle/internal/scheduler"
)

// DefaultBuffer is the queue size used when none is configured.
const DefaultBuffer = 256

// sinkTimeout bounds a single sink delivery.
const sinkTimeout = 5 * time.Second

// Sink receives relay changes.
type Sink interface {
	Name() string
	RelayChanged(ctx context.Context, r relay.Relay) error
}

// CycleSink is implemented by sinks that also want cycle lifecycle events.
type CycleSink interface {
	CycleChanged(ctx context.Context, e scheduler.CycleEvent) error
}

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

type change struct {
	relay *relay.Relay
	event *scheduler.CycleEvent
}

// Dispatcher queues changes and delivers them to sinks in order.
type Dispatcher struct {
	sinks  []Sink
	logger Logger
	queue  chan change
	done   chan struct{}

	mu      sync.RWMutex
	closed  bool
	started atomic.Bool
	dropped atomic.Uint64
}

var _ scheduler.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with a queue of buffer changes.
func NewDispatcher(buffer int, logger Logger, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		sinks:  sinks,
		logger: logger,
		queue:  make(chan change, buffer),
		done:   make(chan struct{}),
	}
}

// Start launches the delivery worker. ctx is passed to sinks; Close, not
// ctx, ends the worker so queued changes are still delivered.
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	go d.run(ctx)
}

// RelayChanged queues a relay change.
func (d *Dispatcher) RelayChanged(r relay.Relay) {
	d.enqueue(change{relay: &r})
}

// CycleChanged queues a cycle event.
func (d *Dispatcher) CycleChanged(e scheduler.CycleEvent) {
	d.enqueue(change{event: &e})
}

func (d *Dispatcher) enqueue(c change) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}
	select {
	case d.queue <- c:
	default:
		n := d.dropped.Add(1)
		d.logger.Warn("notification queue full, dropping change", "dropped_total", n)
	}
}

// Dropped returns how many changes were discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close stops accepting changes and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	if d.started.Load() {
		<-d.done
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for c := range d.queue {
		d.deliver(ctx, c)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, c change) {
	for _, s := range d.sinks {
		sctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		var err error
		switch {
		case c.relay != nil:
			err = s.RelayChanged(sctx, *c.relay)
		case c.event != nil:
			if cs, ok := s.(CycleSink); ok {
				err = cs.CycleChanged(sctx, *c.event)
			}
		}
		cancel()

		if err != nil {
			d.logger.Warn("notification sink failed", "sink", s.Name(), "error", err)
		}
	}
}
