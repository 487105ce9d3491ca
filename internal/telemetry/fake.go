package telemetry

import (
	"sync"
	"time"

	"homenode/internal/models"
)

// RecordedRelay is one relay transition captured by the fake.
type RecordedRelay struct {
	Label string
	Value bool
	Auto  bool
}

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	Relays   []RecordedRelay
	Healths  []models.Health
	Payloads [][]byte

	// PublishError, if set, is returned by both publish methods.
	PublishError error

	Closed bool
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) PublishRelay(label string, value, auto bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Relays = append(f.Relays, RecordedRelay{Label: label, Value: value, Auto: auto})
	if payload, err := FormatRelayPayload(label, value, auto, time.Now()); err == nil {
		f.Payloads = append(f.Payloads, payload)
	}
	return nil
}

func (f *FakePublisher) PublishHealth(h models.Health) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Healths = append(f.Healths, h)
	return nil
}

func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// RecordedRelays returns a copy of the captured transitions.
func (f *FakePublisher) RecordedRelays() []RecordedRelay {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRelay, len(f.Relays))
	copy(out, f.Relays)
	return out
}
