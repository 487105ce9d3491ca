package models

// BoardProfile describes the pin capabilities of the board the controller
// runs on. Loaded from a per-board JSON document at startup.
type BoardProfile struct {
	Name         string `json:"name"`
	Chip         string `json:"chip"`
	ValidPins    []int  `json:"valid_gpio_pins"`
	ReservedPins []int  `json:"reserved_pins"`
}

// PinValid reports whether pin exists on the board and is not reserved.
func (b BoardProfile) PinValid(pin int) bool {
	for _, p := range b.ReservedPins {
		if p == pin {
			return false
		}
	}
	for _, p := range b.ValidPins {
		if p == pin {
			return true
		}
	}
	return false
}

// AvailablePins returns valid pins minus reserved minus the given in-use set,
// in ascending order (ValidPins is expected sorted in the board file).
func (b BoardProfile) AvailablePins(used []int) []int {
	taken := make(map[int]bool, len(b.ReservedPins)+len(used))
	for _, p := range b.ReservedPins {
		taken[p] = true
	}
	for _, p := range used {
		taken[p] = true
	}
	out := make([]int, 0, len(b.ValidPins))
	for _, p := range b.ValidPins {
		if !taken[p] {
			out = append(out, p)
		}
	}
	return out
}
