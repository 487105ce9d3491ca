// Package automation runs the periodic control sweep: refresh sensors,
// evaluate each auto-mode relay's rule, apply transitions, and derive the
// device health signal.
package automation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"homenode/internal/logger"
	"homenode/internal/models"
	"homenode/internal/relays"
	"homenode/internal/repository"
	"homenode/internal/rules"
	"homenode/internal/sensors"
	"homenode/internal/telemetry"
)

// Loop is the automation sweep. It is the only writer of auto-mode relay
// transitions; manual transitions come from the API layer.
type Loop struct {
	sensors *sensors.Cache
	relays  *relays.Manager
	rules   *rules.Engine
	events  repository.EventRepo
	pub     telemetry.Publisher
	log     *logger.Logger

	mu     sync.RWMutex
	health models.Health
}

// NewLoop wires the sweep. events may be nil (no history); pub may be nil
// (no telemetry).
func NewLoop(cache *sensors.Cache, mgr *relays.Manager, eng *rules.Engine,
	events repository.EventRepo, pub telemetry.Publisher, log *logger.Logger) *Loop {
	if pub == nil {
		pub = telemetry.Noop{}
	}
	return &Loop{
		sensors: cache,
		relays:  mgr,
		rules:   eng,
		events:  events,
		pub:     pub,
		log:     log,
		health:  models.HealthNormal,
	}
}

// Health returns the signal derived from the most recent cycle.
func (l *Loop) Health() models.Health {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.health
}

// Run ticks at the given interval until ctx is canceled. A faulted cycle
// surfaces as error health and is retried on the next tick; the loop
// itself never terminates early.
func (l *Loop) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.cycle(ctx, now)
		}
	}
}

// cycle performs one sweep. Rule faults are isolated per relay; only a
// fault of the sweep itself (a panic) degrades health to error.
func (l *Loop) cycle(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			if l.log != nil {
				l.log.Errorw("automation cycle fault", "panic", r)
			}
			l.setHealth(ctx, models.HealthError)
		}
	}()

	l.sensors.UpdateAll(now)

	faults := 0
	for _, r := range l.relays.List() {
		if !r.Auto || !r.HasRule() {
			continue
		}

		outcome, reason := l.rules.EvaluateSafe(r.Rule)
		if reason != "" {
			faults++
			if r.LastError != reason {
				_ = l.relays.SetError(r.Label, reason)
				l.appendEvent(ctx, models.EventRuleFault, fmt.Sprintf("rule for %q failed: %s", r.Label, reason),
					map[string]any{"label": r.Label})
				if l.log != nil {
					l.log.Warnw("rule evaluation failed", "label", r.Label, "err", reason)
				}
			}
			continue
		}

		if outcome == rules.NoChange {
			// Ambiguous result: leave the relay untouched, error indicator
			// included.
			continue
		}

		if r.LastError != "" {
			_ = l.relays.ClearError(r.Label)
		}

		want := outcome == rules.TurnOn
		if want == r.Value {
			continue
		}
		if err := l.relays.Set(r.Label, want, true); err != nil {
			faults++
			if l.log != nil {
				l.log.Warnw("relay drive failed", "label", r.Label, "err", err)
			}
			continue
		}

		typ := models.EventRelayOff
		if want {
			typ = models.EventRelayOn
		}
		l.appendEvent(ctx, typ, fmt.Sprintf("rule switched %q %s", r.Label, onOff(want)),
			map[string]any{"label": r.Label, "rule": r.Rule})
		if err := l.pub.PublishRelay(r.Label, want, true); err != nil && l.log != nil {
			l.log.Debugw("telemetry publish failed", "label", r.Label, "err", err)
		}
	}

	if faults > 0 {
		l.setHealth(ctx, models.HealthWarning)
	} else {
		l.setHealth(ctx, models.HealthNormal)
	}
}

func (l *Loop) setHealth(ctx context.Context, h models.Health) {
	l.mu.Lock()
	changed := l.health != h
	l.health = h
	l.mu.Unlock()
	if !changed {
		return
	}
	l.appendEvent(ctx, models.EventHealth, "health is "+string(h), nil)
	if err := l.pub.PublishHealth(h); err != nil && l.log != nil {
		l.log.Debugw("telemetry publish failed", "health", h, "err", err)
	}
}

func (l *Loop) appendEvent(ctx context.Context, typ, msg string, meta map[string]any) {
	if l.events == nil {
		return
	}
	err := l.events.Append(ctx, models.Event{Type: typ, Description: msg, Metadata: meta})
	if err != nil && l.log != nil {
		l.log.Debugw("event append failed", "type", typ, "err", err)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
