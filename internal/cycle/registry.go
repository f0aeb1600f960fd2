package cycle

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
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

// Registry caches cycle definitions in memory and persists every change
// through a Repository before the cache is updated.
//
// All public methods are thread-safe and return deep copies.
type Registry struct {
	repo Repository

	writeMu sync.Mutex

	mu      sync.RWMutex
	cycles  map[ID]*Cycle
	nextSeq int64

	logger Logger
}

// NewRegistry creates an empty registry. Call Load to populate it.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:    repo,
		cycles:  make(map[ID]*Cycle),
		nextSeq: 1,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load replaces the cache with the repository contents.
func (r *Registry) Load(ctx context.Context) error {
	cycles, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading cycles: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cycles = make(map[ID]*Cycle, len(cycles))
	r.nextSeq = 1
	for i := range cycles {
		c := cycles[i].DeepCopy()
		r.cycles[c.ID] = c
		if c.Seq >= r.nextSeq {
			r.nextSeq = c.Seq + 1
		}
	}

	r.logger.Info("cycles loaded", "count", len(cycles))
	return nil
}

// Upsert validates and stores a definition. An empty ID is replaced with a
// generated one. Updating keeps the cycle's position in List.
func (r *Registry) Upsert(ctx context.Context, def Cycle) (Cycle, error) {
	c := def.DeepCopy()
	if c.ID == "" {
		c.ID = ID(uuid.NewString())
	}
	if c.Points == nil {
		c.Points = []Point{}
	}
	if err := ValidateCycle(c); err != nil {
		return Cycle{}, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	existing, ok := r.cycles[c.ID]
	if ok {
		c.Seq = existing.Seq
	} else {
		c.Seq = r.nextSeq
	}
	r.mu.RUnlock()

	if err := r.repo.Save(ctx, c); err != nil {
		return Cycle{}, fmt.Errorf("saving cycle %s: %w", c.ID, err)
	}

	r.mu.Lock()
	r.cycles[c.ID] = c.DeepCopy()
	if c.Seq >= r.nextSeq {
		r.nextSeq = c.Seq + 1
	}
	r.mu.Unlock()

	r.logger.Info("cycle saved", "cycle_id", c.ID, "points", len(c.Points), "created", !ok)
	return *c, nil
}

// Delete removes a definition.
func (r *Registry) Delete(ctx context.Context, id ID) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if _, ok := r.Get(id); !ok {
		return ErrCycleNotFound
	}
	if err := r.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting cycle %s: %w", id, err)
	}

	r.mu.Lock()
	delete(r.cycles, id)
	r.mu.Unlock()

	r.logger.Info("cycle deleted", "cycle_id", id)
	return nil
}

// Get returns a copy of one definition.
func (r *Registry) Get(id ID) (Cycle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cycles[id]
	if !ok {
		return Cycle{}, false
	}
	return *c.DeepCopy(), true
}

// List returns copies of every definition in insertion order.
func (r *Registry) List() []Cycle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Cycle, 0, len(r.cycles))
	for _, c := range r.cycles {
		out = append(out, *c.DeepCopy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
