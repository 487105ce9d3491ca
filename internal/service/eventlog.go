package service

import (
	"context"
	"errors"
	"time"

	"homenode/internal/models"
	"homenode/internal/repository"
)

// LogFilter bounds an event log query. Zero fields are unbounded.
type LogFilter struct {
	From time.Time
	To   time.Time
	Type string
}

// EventLogService reads the append-only event history.
type EventLogService struct {
	repo repository.EventRepo
}

func NewEventLogService(repo repository.EventRepo) *EventLogService {
	return &EventLogService{repo: repo}
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.Event, error) {
	if s.repo == nil {
		return nil, errors.New("event log is not configured")
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		f.From, f.To = f.To, f.From
	}
	return s.repo.List(ctx, f.From, f.To, f.Type)
}
