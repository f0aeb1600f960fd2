package hardware

import "errors"

// ErrClosed is returned when writing through a closed driver.
var ErrClosed = errors.New("hardware: driver closed")
