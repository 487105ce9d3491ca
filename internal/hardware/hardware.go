// Package hardware abstracts GPIO line access so the relay, sensor and LED
// code can run against real pins or an in-memory fake. The real
// implementation uses the Linux GPIO character device.
package hardware

// OutputLine drives a single GPIO output.
type OutputLine interface {
	// SetLevel writes the physical level (0 or 1).
	SetLevel(level int) error
	Close() error
}

// InputLine reads a single GPIO input.
type InputLine interface {
	// Level returns the physical level (0 or 1).
	Level() (int, error)
	Close() error
}

// Chip hands out GPIO lines by offset. A line may only be requested once;
// callers re-binding a pin must Close the previous line first.
type Chip interface {
	RequestOutput(pin int, initial int) (OutputLine, error)
	RequestInput(pin int) (InputLine, error)
	Close() error
}
