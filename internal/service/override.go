package service

import (
	"context"
	"fmt"
	"time"

	"pump-control-backend/internal/logger"
	"pump-control-backend/internal/models"
	"pump-control-backend/internal/repository"
)

type OverrideService struct {
	repos  *repository.Repository
	log    *logger.Logger
	notify Notifier
}

func NewOverrideService(repos *repository.Repository, log *logger.Logger, notify Notifier) *OverrideService {
	return &OverrideService{repos: repos, log: log, notify: notify}
}

// SetOverride enables or disables the interlock override for one device.
// Enabled overrides age out of the cache on their own.
func (s *OverrideService) SetOverride(ctx context.Context, deviceID string, enabled bool, reason string) error {
	now := time.Now().UTC()
	rec := models.OverrideRecord{DeviceID: deviceID, Enabled: enabled, Reason: reason, SetAt: now}

	if enabled {
		s.repos.Overrides.Put(rec)
	} else {
		s.repos.Overrides.Delete(deviceID)
	}

	msg := fmt.Sprintf("sensor interlock override %s", onOff(enabled))
	if reason != "" {
		msg += ": " + reason
	}
	if err := s.repos.Events.Append(ctx, models.DeviceEvent{
		DeviceID: deviceID,
		Type:     models.EventOverride,
		Severity: models.SeverityMedium,
		Message:  msg,
		Metadata: map[string]any{"enabled": enabled, "reason": reason},
	}); err != nil {
		s.log.Errorw("event_log_append_failed", "err", err, "device_id", deviceID)
	}

	s.notify.Publish(Notification{
		Kind:     NotifyOverride,
		DeviceID: deviceID,
		Severity: models.SeverityMedium,
		Message:  msg,
		At:       now,
		Override: &rec,
	})
	return nil
}

// IsOverridden is the pure existence+flag check the interlock consults.
func (s *OverrideService) IsOverridden(deviceID string) bool {
	rec, ok := s.repos.Overrides.Get(deviceID)
	return ok && rec.Enabled
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
