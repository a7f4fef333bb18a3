package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"workout_coach/internal/models"
	"workout_coach/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	ErrInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	ErrInvalidEventType = errors.New("unknown event type")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and lowercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time
// range and event type.
func normalizeAndValidateFilter(f LogFilter) (repository.EventFilter, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return repository.EventFilter{}, ErrInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	if eventType != "" && !models.EventType(eventType).Valid() {
		return repository.EventFilter{}, ErrInvalidEventType
	}
	return repository.EventFilter{
		From:      from,
		To:        to,
		Type:      eventType,
		SessionID: strings.TrimSpace(f.SessionID),
	}, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.EventRecord, error) {
	filter, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, filter)
}
