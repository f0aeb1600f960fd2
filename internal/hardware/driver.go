package hardware

// Driver sets the electrical level of output lines, addressed by line
// offset on a single chip.
type Driver interface {
	// Set drives the line high (true) or low (false), requesting it as an
	// output on first use.
	Set(pin int, level bool) error

	// Release returns a line to its boot default.
	Release(pin int) error

	// Close releases every line and the chip.
	Close() error
}
