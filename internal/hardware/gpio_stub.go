//go:build !linux

package hardware

import "errors"

// GPIODriver is not available on non-Linux platforms.
type GPIODriver struct{}

// NewGPIODriver returns an error on non-Linux platforms.
func NewGPIODriver(string) (*GPIODriver, error) {
	return nil, errors.New("hardware: gpio not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (d *GPIODriver) Set(int, bool) error { return ErrClosed }

// Release is not implemented on non-Linux platforms.
func (d *GPIODriver) Release(int) error { return nil }

// Close is not implemented on non-Linux platforms.
func (d *GPIODriver) Close() error { return nil }
