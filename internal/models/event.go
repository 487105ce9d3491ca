package models

import "time"

// Event types recorded by the automation loop and the API layer.
const (
	EventRelayOn        = "RELAY_ON"
	EventRelayOff       = "RELAY_OFF"
	EventRuleFault      = "RULE_FAULT"
	EventManualOverride = "MANUAL_OVERRIDE"
	EventConfigReplaced = "CONFIG_REPLACED"
	EventHealth         = "HEALTH"
)

// Event is a single append-only log entry.
type Event struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
