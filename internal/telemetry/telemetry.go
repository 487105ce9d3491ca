// Package telemetry publishes relay transitions and health changes to an
// MQTT broker so external dashboards and recorders can follow the device
// without polling its API. Publishing is best-effort: a broker outage
// never affects control behavior.
package telemetry

import (
	"encoding/json"
	"time"

	"homenode/internal/models"
)

// Topics for device telemetry.
const (
	TopicRelays = "homenode/relays"
	TopicHealth = "homenode/health"
)

// Publisher publishes device events to the broker.
type Publisher interface {
	// PublishRelay sends one relay transition.
	PublishRelay(label string, value bool, auto bool) error

	// PublishHealth sends a health state change.
	PublishHealth(h models.Health) error

	// Close disconnects from the broker.
	Close() error
}

// RelayPayload is the relay transition message body.
type RelayPayload struct {
	Timestamp string `json:"timestamp"`
	Label     string `json:"label"`
	State     string `json:"state"`
	Auto      bool   `json:"auto"`
}

// HealthPayload is the health message body.
type HealthPayload struct {
	Timestamp string `json:"timestamp"`
	Health    string `json:"health"`
}

// FormatRelayPayload builds the JSON body for a relay transition.
func FormatRelayPayload(label string, value, auto bool, at time.Time) ([]byte, error) {
	state := "OFF"
	if value {
		state = "ON"
	}
	return json.Marshal(RelayPayload{
		Timestamp: at.UTC().Format(time.RFC3339),
		Label:     label,
		State:     state,
		Auto:      auto,
	})
}

// FormatHealthPayload builds the JSON body for a health change.
func FormatHealthPayload(h models.Health, at time.Time) ([]byte, error) {
	return json.Marshal(HealthPayload{
		Timestamp: at.UTC().Format(time.RFC3339),
		Health:    string(h),
	})
}

// Noop is the publisher used when no broker is configured.
type Noop struct{}

func (Noop) PublishRelay(string, bool, bool) error    { return nil }
func (Noop) PublishHealth(models.Health) error        { return nil }
func (Noop) Close() error                             { return nil }
