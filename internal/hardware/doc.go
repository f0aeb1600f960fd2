// Package hardware drives relay output lines.
// The real driver uses the Linux GPIO character device.
// The fake driver records writes so the rest of the system can be tested
// without hardware.
package hardware
