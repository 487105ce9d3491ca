package service

import (
	"context"
	"fmt"

	"homenode/internal/logger"
	"homenode/internal/models"
	"homenode/internal/relays"
	"homenode/internal/repository"
	"homenode/internal/rules"
	"homenode/internal/telemetry"
)

// RelayService wraps the relay actuator with rule validation, event
// history and telemetry.
type RelayService struct {
	mgr    *relays.Manager
	engine *rules.Engine
	board  *models.BoardProfile
	events repository.EventRepo
	pub    telemetry.Publisher
	log    *logger.Logger
}

func NewRelayService(mgr *relays.Manager, engine *rules.Engine, board *models.BoardProfile,
	events repository.EventRepo, pub telemetry.Publisher, log *logger.Logger) *RelayService {
	return &RelayService{mgr: mgr, engine: engine, board: board, events: events, pub: pub, log: log}
}

// List returns the live relay list including runtime state.
func (s *RelayService) List() []models.Relay {
	return s.mgr.List()
}

// Control applies a manual state change. Manual control always drops the
// relay out of auto mode so the next automation tick cannot override it.
func (s *RelayService) Control(ctx context.Context, label string, state bool) error {
	if err := s.mgr.Set(label, state, false); err != nil {
		return err
	}
	s.appendEvent(ctx, models.EventManualOverride,
		fmt.Sprintf("relay %q manually switched %s", label, onOff(state)),
		map[string]any{"label": label, "state": state})
	if err := s.pub.PublishRelay(label, state, false); err != nil && s.log != nil {
		s.log.Debugw("telemetry publish failed", "label", label, "err", err)
	}
	return nil
}

// Replace validates every rule, swaps the full configuration and
// invalidates the compiled-rule cache.
func (s *RelayService) Replace(ctx context.Context, list []models.Relay) error {
	for _, r := range list {
		if !r.HasRule() {
			continue
		}
		if err := s.engine.Validate(r.Rule); err != nil {
			return fmt.Errorf("%w: relay %q: rule: %v", relays.ErrInvalid, r.Label, err)
		}
	}
	if err := s.mgr.ReplaceConfig(list); err != nil {
		return err
	}
	s.engine.ClearCache()
	s.appendEvent(ctx, models.EventConfigReplaced,
		fmt.Sprintf("relay configuration replaced (%d relays)", len(list)),
		map[string]any{"count": len(list)})
	return nil
}

// AvailablePins returns board pins not reserved and not claimed by relays.
func (s *RelayService) AvailablePins() []int {
	if s.board == nil {
		return []int{}
	}
	return s.board.AvailablePins(s.mgr.UsedPins())
}

func (s *RelayService) appendEvent(ctx context.Context, typ, msg string, meta map[string]any) {
	if s.events == nil {
		return
	}
	err := s.events.Append(ctx, models.Event{Type: typ, Description: msg, Metadata: meta})
	if err != nil && s.log != nil {
		s.log.Debugw("event append failed", "type", typ, "err", err)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
