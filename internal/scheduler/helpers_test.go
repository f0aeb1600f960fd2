package scheduler

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/relaycycle/internal/cycle"
	"github.com/nerrad567/relaycycle/internal/relay"
)

// epoch is the fake clock's starting time.
var epoch = time.UnixMilli(1_700_000_000_000)

// fakeClock is a manually advanced Clock. Timers fire in due order (ties in
// arming order) with the clock set to their due time, and the clock's lock
// is released while callbacks run.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	seq    int
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// Advance moves the clock forward by d, firing every timer that comes due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.pending()
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()

		next.f()
	}
}

// pending drops finished timers. Must hold c.mu.
func (c *fakeClock) pending() {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	c.timers = live
}

// Armed returns the number of timers still pending.
func (c *fakeClock) Armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type relayChange struct {
	ID     relay.ID
	Status bool
	AtMs   int64
}

// recorder is a Notifier that keeps everything it is told.
type recorder struct {
	mu     sync.Mutex
	clock  Clock
	relays []relayChange
	events []CycleEvent
}

func (r *recorder) RelayChanged(rl relay.Relay) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relays = append(r.relays, relayChange{ID: rl.ID, Status: rl.Status, AtMs: r.clock.Now().UnixMilli()})
}

func (r *recorder) CycleChanged(e CycleEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Relays() []relayChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]relayChange(nil), r.relays...)
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relays = nil
	r.events = nil
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, string(e.CycleID)+":"+e.Event)
	}
	return out
}

type memRelayRepo struct {
	mu     sync.Mutex
	relays map[relay.ID]relay.Relay
}

func (m *memRelayRepo) List(context.Context) ([]relay.Relay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]relay.Relay, 0, len(m.relays))
	for _, r := range m.relays {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRelayRepo) Save(_ context.Context, r *relay.Relay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relays[r.ID] = *r
	return nil
}

func (m *memRelayRepo) SaveStatuses(context.Context, []relay.Relay) error { return nil }

type memCycleRepo struct {
	mu      sync.Mutex
	cycles  map[cycle.ID]cycle.Cycle
	running map[cycle.ID]cycle.RunState
}

func (m *memCycleRepo) List(context.Context) ([]cycle.Cycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]cycle.Cycle, 0, len(m.cycles))
	for _, c := range m.cycles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *memCycleRepo) Save(_ context.Context, c *cycle.Cycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles[c.ID] = *c.DeepCopy()
	return nil
}

func (m *memCycleRepo) Delete(_ context.Context, id cycle.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cycles[id]; !ok {
		return cycle.ErrCycleNotFound
	}
	delete(m.cycles, id)
	return nil
}

func (m *memCycleRepo) SaveRunning(_ context.Context, states map[cycle.ID]cycle.RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = states
	return nil
}

func (m *memCycleRepo) LoadRunning(context.Context) (map[cycle.ID]cycle.RunState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running, nil
}

type harness struct {
	t      *testing.T
	clock  *fakeClock
	rec    *recorder
	relays *relay.Registry
	cycles *cycle.Registry
	sched  *Scheduler
}

func newHarness(t *testing.T, start time.Time) *harness {
	t.Helper()

	clock := newFakeClock(start)
	rec := &recorder{clock: clock}
	relays := relay.NewRegistry(&memRelayRepo{relays: make(map[relay.ID]relay.Relay)})
	cycles := cycle.NewRegistry(&memCycleRepo{cycles: make(map[cycle.ID]cycle.Cycle)})

	h := &harness{
		t:      t,
		clock:  clock,
		rec:    rec,
		relays: relays,
		cycles: cycles,
		sched: New(relays, cycles, Options{
			Clock:       clock,
			Notifier:    rec,
			SuspendPoll: time.Second,
		}),
	}
	t.Cleanup(h.sched.Close)
	return h
}

func (h *harness) addRelays(ids ...relay.ID) {
	h.t.Helper()
	for i, id := range ids {
		if _, err := h.relays.Upsert(context.Background(), relay.Relay{ID: id, Pin: 17 + i, Name: string(id)}); err != nil {
			h.t.Fatalf("adding relay %s: %v", id, err)
		}
	}
}

// define stores a cycle without starting it.
func (h *harness) define(def cycle.Cycle) {
	h.t.Helper()
	if _, err := h.cycles.Upsert(context.Background(), def); err != nil {
		h.t.Fatalf("defining cycle %s: %v", def.ID, err)
	}
}

func (h *harness) start(id cycle.ID) {
	h.t.Helper()
	if err := h.sched.StartCycle(id, true); err != nil {
		h.t.Fatalf("StartCycle(%s) error = %v", id, err)
	}
}

func (h *harness) view(id cycle.ID) CycleView {
	h.t.Helper()
	for _, v := range h.sched.DescribeCycles(h.clock.Now()) {
		if v.ID == id {
			return v
		}
	}
	h.t.Fatalf("cycle %s not described", id)
	return CycleView{}
}

func (h *harness) status(id relay.ID) bool {
	h.t.Helper()
	r, ok := h.relays.Get(id)
	if !ok {
		h.t.Fatalf("relay %s missing", id)
	}
	return r.Status
}

// pumpCycle is a 60 s cycle: pump on at 10 s, off at 40 s.
func pumpCycle(id cycle.ID) cycle.Cycle {
	return cycle.Cycle{
		ID:         id,
		Name:       "Pump",
		DurationMs: 60000,
		Points: []cycle.Point{
			{TimeMs: 10000, Actions: []cycle.Action{cycle.RelayAction("pump", true)}},
			{TimeMs: 40000, Actions: []cycle.Action{cycle.RelayAction("pump", false)}},
		},
	}
}
