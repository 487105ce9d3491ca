package models

// Relay is one logical on/off output bound to a physical GPIO pin.
//
// Pin, Label, Inverted, DefaultValue, DefaultAuto and Rule are declarative
// and persisted; Value, Auto and LastError are runtime-only and reseeded
// from the defaults whenever the configuration is loaded or replaced.
// The physical pin level is always Value XOR Inverted.
type Relay struct {
	Pin          int    `json:"pin"`
	Label        string `json:"label"`
	Inverted     bool   `json:"inverted"`
	DefaultValue bool   `json:"default_value"`
	DefaultAuto  bool   `json:"default_auto"`
	Rule         string `json:"rule,omitempty"`

	Value     bool   `json:"value"`
	Auto      bool   `json:"auto"`
	LastError string `json:"last_error,omitempty"`
}

// NoOpRule is the marker the dashboard writes for a relay without a rule.
const NoOpRule = `["NOP"]`

// HasRule reports whether the relay has an actual rule to evaluate.
func (r Relay) HasRule() bool {
	return r.Rule != "" && r.Rule != NoOpRule
}

// PhysicalLevel returns the GPIO level (0 or 1) for the current logical value.
func (r Relay) PhysicalLevel() int {
	on := r.Value != r.Inverted
	if on {
		return 1
	}
	return 0
}
