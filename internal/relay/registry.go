package relay

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry keeps every relay in memory, backed by a Repository for
// definitions.
//
// Status changes (SetStatus, Toggle) touch only memory; the periodic
// snapshot writes them back through SaveStatuses. Definition changes
// (Upsert) are persisted before the cache is updated.
//
// All public methods are thread-safe.
type Registry struct {
	repo Repository

	// writeMu serialises Upsert so sequence numbers stay unique while the
	// repository write runs outside cacheMu.
	writeMu sync.Mutex

	cacheMu sync.RWMutex
	relays  map[ID]*Relay
	nextSeq int64

	logger Logger
}

// NewRegistry creates an empty registry. Call Load to populate it from repo.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:    repo,
		relays:  make(map[ID]*Relay),
		nextSeq: 1,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load replaces the in-memory relays with the repository contents,
// including the last snapshotted status of each relay.
func (r *Registry) Load(ctx context.Context) error {
	relays, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading relays: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.relays = make(map[ID]*Relay, len(relays))
	r.nextSeq = 1
	for i := range relays {
		rl := relays[i]
		r.relays[rl.ID] = &rl
		if rl.Seq >= r.nextSeq {
			r.nextSeq = rl.Seq + 1
		}
	}

	r.logger.Info("relays loaded", "count", len(relays))
	return nil
}

// Upsert creates a relay with status off, or updates every field of an
// existing relay except its status and sequence number.
func (r *Registry) Upsert(ctx context.Context, def Relay) (Relay, error) {
	if err := ValidateRelay(def); err != nil {
		return Relay{}, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.cacheMu.RLock()
	existing, ok := r.relays[def.ID]
	next := def
	if ok {
		next.Status = existing.Status
		next.Seq = existing.Seq
	} else {
		next.Status = false
		next.Seq = r.nextSeq
	}
	r.cacheMu.RUnlock()

	if err := r.repo.Save(ctx, &next); err != nil {
		return Relay{}, fmt.Errorf("saving relay %s: %w", def.ID, err)
	}

	r.cacheMu.Lock()
	if cur, ok := r.relays[next.ID]; ok {
		// A status change may have landed while the write was in flight.
		next.Status = cur.Status
	} else if next.Seq >= r.nextSeq {
		r.nextSeq = next.Seq + 1
	}
	stored := next
	r.relays[next.ID] = &stored
	r.cacheMu.Unlock()

	if ok {
		r.logger.Debug("relay updated", "relay_id", next.ID)
	} else {
		r.logger.Info("relay created", "relay_id", next.ID, "seq", next.Seq)
	}
	return next, nil
}

// SetStatus sets the commanded status of a relay. A missing relay is not
// an error; ok reports whether it existed.
func (r *Registry) SetStatus(id ID, on bool) (Relay, bool) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	rl, ok := r.relays[id]
	if !ok {
		return Relay{}, false
	}
	rl.Status = on
	return *rl, true
}

// Toggle flips the status of a relay.
func (r *Registry) Toggle(id ID) (Relay, bool) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	rl, ok := r.relays[id]
	if !ok {
		return Relay{}, false
	}
	rl.Status = !rl.Status
	return *rl, true
}

// Get returns a copy of one relay.
func (r *Registry) Get(id ID) (Relay, bool) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	rl, ok := r.relays[id]
	if !ok {
		return Relay{}, false
	}
	return *rl, true
}

// List returns copies of all relays in insertion order.
func (r *Registry) List() []Relay {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	out := make([]Relay, 0, len(r.relays))
	for _, rl := range r.relays {
		out = append(out, *rl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Len returns the number of relays.
func (r *Registry) Len() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.relays)
}

// SaveStatuses writes the current status of every relay to the repository.
func (r *Registry) SaveStatuses(ctx context.Context) error {
	if err := r.repo.SaveStatuses(ctx, r.List()); err != nil {
		return fmt.Errorf("saving relay statuses: %w", err)
	}
	return nil
}
