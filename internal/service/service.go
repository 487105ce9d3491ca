package service

import (
	"context"
	"time"

	"homenode/internal/automation"
	"homenode/internal/logger"
	"homenode/internal/models"
	"homenode/internal/relays"
	"homenode/internal/repository"
	"homenode/internal/rules"
	"homenode/internal/sensors"
	"homenode/internal/telemetry"
)

// RelayControl exposes relay operations to the HTTP layer.
type RelayControl interface {
	List() []models.Relay
	Control(ctx context.Context, label string, state bool) error
	Replace(ctx context.Context, list []models.Relay) error
	AvailablePins() []int
}

// SensorView exposes the read-only sensor snapshot.
type SensorView interface {
	Snapshot() map[string]any
}

// RuleCheck validates and trial-evaluates user rule text.
type RuleCheck interface {
	Check(text string) (message string, err error)
}

// Monitoring exposes system status and the live-state snapshot.
type Monitoring interface {
	Status() map[string]any
	StateSnapshot() map[string]any
}

// EventLog exposes the append-only history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.Event, error)
}

// Authorization handles API accounts and tokens (optional feature).
type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Service aggregates all sub-services handed to the HTTP handler.
type Service struct {
	Relays     RelayControl
	Sensors    SensorView
	Rules      RuleCheck
	Monitoring Monitoring
	EventLog   EventLog
	Authorization
}

// Deps carries the wired domain components into NewService.
type Deps struct {
	Relays     *relays.Manager
	Sensors    *sensors.Cache
	Rules      *rules.Engine
	Loop       *automation.Loop
	Board      *models.BoardProfile
	Repos      *repository.Repository
	Telemetry  telemetry.Publisher
	Log        *logger.Logger
	StartedAt  time.Time
	SigningKey string
}

// NewService wires the domain components into the handler-facing services.
func NewService(d Deps) *Service {
	if d.Telemetry == nil {
		d.Telemetry = telemetry.Noop{}
	}
	var events repository.EventRepo
	var auth repository.Authorization
	if d.Repos != nil {
		events = d.Repos.EventRepo
		auth = d.Repos.Auth
	}
	return &Service{
		Relays:        NewRelayService(d.Relays, d.Rules, d.Board, events, d.Telemetry, d.Log),
		Sensors:       d.Sensors,
		Rules:         NewRuleService(d.Rules),
		Monitoring:    NewStatusService(d.StartedAt, d.Board, d.Loop, d.Relays, d.Sensors),
		EventLog:      NewEventLogService(events),
		Authorization: NewAuthService(auth, d.SigningKey),
	}
}
