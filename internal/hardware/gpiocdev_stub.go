//go:build !linux

package hardware

import "errors"

// OpenChip is only available on Linux; other platforms run with the fake
// chip selected in configuration.
func OpenChip(name string) (Chip, error) {
	return nil, errors.New("gpio character devices require linux; set gpio.fake in config")
}
