package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"pump-control-backend/internal/models"
	"pump-control-backend/internal/repository"
)

// LogFilter supports audit history filtering by time range, type and device.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // "", or one of the models.Event* constants
	DeviceID string    // "", or a device id
}

type EventLogService struct {
	events repository.EventRepo
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}

	return s.events.List(ctx, repository.EventFilter{
		From:     from,
		To:       to,
		Type:     strings.TrimSpace(strings.ToUpper(f.Type)),
		DeviceID: strings.TrimSpace(f.DeviceID),
	})
}
