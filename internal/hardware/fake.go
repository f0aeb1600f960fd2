package hardware

import "sync"

// Write is one recorded Set call.
type Write struct {
	Pin   int
	Level bool
}

// FakeDriver is a test double that records writes instead of touching
// hardware.
type FakeDriver struct {
	mu sync.Mutex

	// SetError, if set, is returned by Set.
	SetError error

	levels   map[int]bool
	writes   []Write
	released []int
	closed   bool
}

// NewFakeDriver creates an empty FakeDriver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{levels: make(map[int]bool)}
}

// Set records the write.
func (f *FakeDriver) Set(pin int, level bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.SetError != nil {
		return f.SetError
	}
	f.levels[pin] = level
	f.writes = append(f.writes, Write{Pin: pin, Level: level})
	return nil
}

// Release forgets the line.
func (f *FakeDriver) Release(pin int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.levels, pin)
	f.released = append(f.released, pin)
	return nil
}

// Close marks the driver closed.
func (f *FakeDriver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Level returns the last level written to pin and whether the line is held.
func (f *FakeDriver) Level(pin int) (level, held bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	level, held = f.levels[pin]
	return level, held
}

// Writes returns every recorded write in order.
func (f *FakeDriver) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.writes...)
}

// Released returns the pins passed to Release.
func (f *FakeDriver) Released() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.released...)
}

// Closed reports whether Close was called.
func (f *FakeDriver) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
