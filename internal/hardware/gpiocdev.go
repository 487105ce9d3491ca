//go:build linux

package hardware

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// CdevChip is a Chip backed by a Linux GPIO character device (/dev/gpiochipN).
type CdevChip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named GPIO chip, e.g. "gpiochip0".
func OpenChip(name string) (*CdevChip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &CdevChip{chip: chip}, nil
}

type cdevOutput struct {
	line *gpiocdev.Line
}

func (o *cdevOutput) SetLevel(level int) error {
	if err := o.line.SetValue(level); err != nil {
		return fmt.Errorf("set gpio level: %w", err)
	}
	return nil
}

func (o *cdevOutput) Close() error { return o.line.Close() }

type cdevInput struct {
	line *gpiocdev.Line
}

func (i *cdevInput) Level() (int, error) {
	v, err := i.line.Value()
	if err != nil {
		return 0, fmt.Errorf("read gpio level: %w", err)
	}
	return v, nil
}

func (i *cdevInput) Close() error { return i.line.Close() }

// RequestOutput claims pin as an output driven to the initial level.
func (c *CdevChip) RequestOutput(pin int, initial int) (OutputLine, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(initial))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &cdevOutput{line: line}, nil
}

// RequestInput claims pin as an input with pull-down, matching the external
// switch wiring (switch closed pulls the line high).
func (c *CdevChip) RequestInput(pin int) (InputLine, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	return &cdevInput{line: line}, nil
}

func (c *CdevChip) Close() error { return c.chip.Close() }
