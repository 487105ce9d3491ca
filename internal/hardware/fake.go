package hardware

import (
	"fmt"
	"sync"
)

// FakeChip is an in-memory Chip for tests and for running the controller on
// machines without GPIO hardware. Line levels are observable and settable.
type FakeChip struct {
	mu     sync.Mutex
	levels map[int]int
	owned  map[int]bool

	// FailPins lists pins whose request or I/O should fail, to exercise
	// hardware fault paths.
	FailPins map[int]bool

	Closed bool
}

// NewFakeChip returns an empty fake chip; every pin reads as level 0.
func NewFakeChip() *FakeChip {
	return &FakeChip{
		levels:   make(map[int]int),
		owned:    make(map[int]bool),
		FailPins: make(map[int]bool),
	}
}

// Level returns the last level written to pin (0 if never driven).
func (c *FakeChip) Level(pin int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levels[pin]
}

// SetInputLevel sets the level a fake input line will report.
func (c *FakeChip) SetInputLevel(pin, level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.levels[pin] = level
}

type fakeLine struct {
	chip *FakeChip
	pin  int
}

func (l *fakeLine) SetLevel(level int) error {
	l.chip.mu.Lock()
	defer l.chip.mu.Unlock()
	if l.chip.FailPins[l.pin] {
		return fmt.Errorf("pin %d: simulated i/o failure", l.pin)
	}
	l.chip.levels[l.pin] = level
	return nil
}

func (l *fakeLine) Level() (int, error) {
	l.chip.mu.Lock()
	defer l.chip.mu.Unlock()
	if l.chip.FailPins[l.pin] {
		return 0, fmt.Errorf("pin %d: simulated i/o failure", l.pin)
	}
	return l.chip.levels[l.pin], nil
}

func (l *fakeLine) Close() error {
	l.chip.mu.Lock()
	defer l.chip.mu.Unlock()
	delete(l.chip.owned, l.pin)
	return nil
}

func (c *FakeChip) request(pin int) (*fakeLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailPins[pin] {
		return nil, fmt.Errorf("pin %d: simulated request failure", pin)
	}
	if c.owned[pin] {
		return nil, fmt.Errorf("pin %d already requested", pin)
	}
	c.owned[pin] = true
	return &fakeLine{chip: c, pin: pin}, nil
}

func (c *FakeChip) RequestOutput(pin int, initial int) (OutputLine, error) {
	line, err := c.request(pin)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.levels[pin] = initial
	c.mu.Unlock()
	return line, nil
}

func (c *FakeChip) RequestInput(pin int) (InputLine, error) {
	return c.request(pin)
}

func (c *FakeChip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}
