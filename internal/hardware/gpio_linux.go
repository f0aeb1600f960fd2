//go:build linux

package hardware

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// GPIODriver drives lines on a Linux GPIO chip.
type GPIODriver struct {
	mu    sync.Mutex
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewGPIODriver opens the named chip, for example "gpiochip0".
func NewGPIODriver(chipName string) (*GPIODriver, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	return &GPIODriver{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line),
	}, nil
}

func levelValue(level bool) int {
	if level {
		return 1
	}
	return 0
}

// Set drives pin to level.
func (d *GPIODriver) Set(pin int, level bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.chip == nil {
		return ErrClosed
	}

	if line, ok := d.lines[pin]; ok {
		if err := line.SetValue(levelValue(level)); err != nil {
			return fmt.Errorf("set pin %d: %w", pin, err)
		}
		return nil
	}

	line, err := d.chip.RequestLine(pin, gpiocdev.AsOutput(levelValue(level)))
	if err != nil {
		return fmt.Errorf("request pin %d: %w", pin, err)
	}
	d.lines[pin] = line
	return nil
}

// Release reconfigures pin as an input with pull-down, matching Pi boot
// defaults, and closes it.
func (d *GPIODriver) Release(pin int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	line, ok := d.lines[pin]
	if !ok {
		return nil
	}
	delete(d.lines, pin)
	return releaseLine(pin, line)
}

func releaseLine(pin int, line *gpiocdev.Line) error {
	var errs []error
	if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
	}
	if err := line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
	}
	return errors.Join(errs...)
}

// Close releases every requested line and the chip.
func (d *GPIODriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.chip == nil {
		return nil
	}

	var errs []error
	for pin, line := range d.lines {
		if err := releaseLine(pin, line); err != nil {
			errs = append(errs, err)
		}
	}
	d.lines = make(map[int]*gpiocdev.Line)

	if err := d.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	d.chip = nil
	return errors.Join(errs...)
}
