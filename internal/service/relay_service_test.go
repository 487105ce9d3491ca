package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"homenode/internal/hardware"
	"homenode/internal/models"
	"homenode/internal/relays"
	"homenode/internal/rules"
	"homenode/internal/telemetry"
)

type storeStub struct {
	saves int
}

func (s *storeStub) Save(list []models.Relay) error {
	s.saves++
	return nil
}

type eventStub struct {
	events    []models.Event
	appendErr error
}

func (s *eventStub) Append(_ context.Context, e models.Event) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.events = append(s.events, e)
	return nil
}

func (s *eventStub) List(_ context.Context, _, _ time.Time, typ string) ([]models.Event, error) {
	if typ == "" {
		return s.events, nil
	}
	var out []models.Event
	for _, e := range s.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out, nil
}

type sourceStub struct {
	temp float64
}

func (s sourceStub) Temperature() (float64, bool)     { return s.temp, true }
func (s sourceStub) LastTemperature() (float64, bool) { return s.temp, true }
func (s sourceStub) Humidity() (float64, bool)        { return 40, true }
func (s sourceStub) LastHumidity() (float64, bool)    { return 40, true }
func (s sourceStub) LightLevel() (int, bool)          { return 0, false }
func (s sourceStub) LastLightLevel() (int, bool)      { return 0, false }
func (s sourceStub) SwitchState() (bool, bool)        { return false, false }
func (s sourceStub) LastSwitchState() (bool, bool)    { return false, false }
func (s sourceStub) TimeSeconds() int                 { return 12 * 3600 }

func testBoard() *models.BoardProfile {
	return &models.BoardProfile{
		Name:         "testboard",
		ValidPins:    []int{2, 3, 4, 5, 6},
		ReservedPins: []int{2},
	}
}

func newRelayService(t *testing.T, list ...models.Relay) (*RelayService, *relays.Manager, *eventStub, *telemetry.FakePublisher) {
	t.Helper()
	chip := hardware.NewFakeChip()
	mgr := relays.NewManager(chip, &storeStub{}, testBoard(), nil)
	if err := mgr.Load(list); err != nil {
		t.Fatalf("load relays: %v", err)
	}
	engine := rules.New(sourceStub{temp: 21}, nil)
	events := &eventStub{}
	pub := telemetry.NewFakePublisher()
	return NewRelayService(mgr, engine, testBoard(), events, pub, nil), mgr, events, pub
}

func TestRelayService_ControlDropsAutoAndRecords(t *testing.T) {
	svc, mgr, events, pub := newRelayService(t, models.Relay{
		Label: "heater", Pin: 4, Rule: "get_temperature() < 19",
		DefaultAuto: true, DefaultValue: false,
	})

	if err := svc.Control(context.Background(), "heater", true); err != nil {
		t.Fatalf("Control: %v", err)
	}

	r, ok := mgr.Get("heater")
	if !ok {
		t.Fatal("heater vanished")
	}
	if !r.Value {
		t.Error("expected value true after manual switch on")
	}
	if r.Auto {
		t.Error("manual control must drop the relay out of auto mode")
	}

	if len(events.events) != 1 || events.events[0].Type != models.EventManualOverride {
		t.Fatalf("expected one MANUAL_OVERRIDE event, got %+v", events.events)
	}

	rec := pub.RecordedRelays()
	if len(rec) != 1 {
		t.Fatalf("expected one telemetry record, got %d", len(rec))
	}
	if rec[0].Label != "heater" || !rec[0].Value || rec[0].Auto {
		t.Errorf("unexpected telemetry record: %+v", rec[0])
	}
}

func TestRelayService_ControlInvertedRelayDrivesPinLow(t *testing.T) {
	chip := hardware.NewFakeChip()
	mgr := relays.NewManager(chip, &storeStub{}, testBoard(), nil)
	if err := mgr.Load([]models.Relay{{Label: "pump", Pin: 5, Inverted: true}}); err != nil {
		t.Fatalf("load relays: %v", err)
	}
	svc := NewRelayService(mgr, rules.New(sourceStub{}, nil), testBoard(), nil, telemetry.NewFakePublisher(), nil)

	if err := svc.Control(context.Background(), "pump", true); err != nil {
		t.Fatalf("Control: %v", err)
	}

	r, _ := mgr.Get("pump")
	if !r.Value {
		t.Error("expected logical value true")
	}
	if got := chip.Level(5); got != 0 {
		t.Errorf("inverted relay on must drive the pin low, got level %d", got)
	}
}

func TestRelayService_ControlUnknownRelay(t *testing.T) {
	svc, _, events, pub := newRelayService(t)

	err := svc.Control(context.Background(), "ghost", true)
	if !errors.Is(err, relays.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(events.events) != 0 {
		t.Errorf("failed control must not record an event")
	}
	if len(pub.RecordedRelays()) != 0 {
		t.Errorf("failed control must not publish telemetry")
	}
}

func TestRelayService_ReplaceRejectsInvalidRule(t *testing.T) {
	svc, mgr, events, _ := newRelayService(t, models.Relay{Label: "heater", Pin: 4})

	err := svc.Replace(context.Background(), []models.Relay{
		{Label: "lamp", Pin: 5, Rule: "get_temperature() <"},
	})
	if !errors.Is(err, relays.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for broken rule, got %v", err)
	}

	// Prior configuration must survive a rejected replace.
	if _, ok := mgr.Get("heater"); !ok {
		t.Error("existing relay lost after rejected replace")
	}
	if len(events.events) != 0 {
		t.Errorf("rejected replace must not record an event")
	}
}

func TestRelayService_ReplaceSwapsConfigAndClearsCache(t *testing.T) {
	svc, mgr, events, _ := newRelayService(t, models.Relay{Label: "heater", Pin: 4})

	next := []models.Relay{
		{Label: "lamp", Pin: 5, Rule: "get_temperature() > 25", DefaultAuto: true},
		{Label: "fan", Pin: 6, Rule: models.NoOpRule},
	}
	if err := svc.Replace(context.Background(), next); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if _, ok := mgr.Get("heater"); ok {
		t.Error("old relay survived replace")
	}
	if _, ok := mgr.Get("lamp"); !ok {
		t.Error("new relay missing after replace")
	}
	if len(events.events) != 1 || events.events[0].Type != models.EventConfigReplaced {
		t.Fatalf("expected one CONFIG_REPLACED event, got %+v", events.events)
	}
}

func TestRelayService_AvailablePins(t *testing.T) {
	svc, _, _, _ := newRelayService(t, models.Relay{Label: "heater", Pin: 4})

	got := svc.AvailablePins()
	want := []int{3, 5, 6} // board pins minus reserved 2 minus used 4
	if len(got) != len(want) {
		t.Fatalf("expected pins %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected pins %v, got %v", want, got)
		}
	}
}

func TestRelayService_AvailablePinsWithoutBoard(t *testing.T) {
	chip := hardware.NewFakeChip()
	mgr := relays.NewManager(chip, &storeStub{}, nil, nil)
	svc := NewRelayService(mgr, rules.New(sourceStub{}, nil), nil, nil, telemetry.NewFakePublisher(), nil)

	if got := svc.AvailablePins(); len(got) != 0 {
		t.Fatalf("expected empty pin list without a board profile, got %v", got)
	}
}
