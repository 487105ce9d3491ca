package service

import (
	"os"
	"runtime"
	"time"

	"homenode/internal/automation"
	"homenode/internal/models"
	"homenode/internal/relays"
	"homenode/internal/sensors"
)

// StatusService reports process and controller health for the dashboard
// and the websocket state stream.
type StatusService struct {
	startedAt time.Time
	board     *models.BoardProfile
	loop      *automation.Loop
	relays    *relays.Manager
	sensors   *sensors.Cache
}

func NewStatusService(startedAt time.Time, board *models.BoardProfile, loop *automation.Loop,
	mgr *relays.Manager, cache *sensors.Cache) *StatusService {
	return &StatusService{
		startedAt: startedAt,
		board:     board,
		loop:      loop,
		relays:    mgr,
		sensors:   cache,
	}
}

// Status returns a point-in-time system report.
func (s *StatusService) Status() map[string]any {
	hostname, _ := os.Hostname()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := map[string]any{
		"hostname":       hostname,
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
		"heap_bytes":     mem.HeapAlloc,
		"sys_bytes":      mem.Sys,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"health":         s.health(),
	}
	if s.board != nil {
		status["board"] = s.board.Name
		status["chip"] = s.board.Chip
	}
	if s.relays != nil {
		status["relay_count"] = len(s.relays.List())
	}
	return status
}

// StateSnapshot is the compact payload pushed over the websocket on every
// state broadcast.
func (s *StatusService) StateSnapshot() map[string]any {
	snap := map[string]any{
		"health": s.health(),
	}
	if s.relays != nil {
		snap["relays"] = s.relays.List()
	}
	if s.sensors != nil {
		snap["sensors"] = s.sensors.Snapshot()
	}
	return snap
}

func (s *StatusService) health() models.Health {
	if s.loop == nil {
		return models.HealthNormal
	}
	return s.loop.Health()
}
