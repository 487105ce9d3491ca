package telemetry

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"homenode/internal/models"
)

// MQTTPublisher publishes to an actual MQTT broker.
type MQTTPublisher struct {
	client paho.Client
}

// NewMQTTPublisher connects to the given broker (e.g. tcp://host:1883).
func NewMQTTPublisher(broker, clientID string) (*MQTTPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTPublisher{client: client}, nil
}

func (p *MQTTPublisher) publish(topic string, payload []byte, qos byte) error {
	token := p.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishRelay sends a relay transition at QoS 0.
func (p *MQTTPublisher) PublishRelay(label string, value, auto bool) error {
	payload, err := FormatRelayPayload(label, value, auto, time.Now())
	if err != nil {
		return fmt.Errorf("format relay payload: %w", err)
	}
	return p.publish(TopicRelays+"/"+label, payload, 0)
}

// PublishHealth sends a health change at QoS 1; a missed degradation is
// worse than a duplicate.
func (p *MQTTPublisher) PublishHealth(h models.Health) error {
	payload, err := FormatHealthPayload(h, time.Now())
	if err != nil {
		return fmt.Errorf("format health payload: %w", err)
	}
	return p.publish(TopicHealth, payload, 1)
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
