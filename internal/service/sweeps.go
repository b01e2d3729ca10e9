package service

import (
	"context"
	"time"

	"pump-control-backend/internal/logger"
	"pump-control-backend/internal/models"
	"pump-control-backend/internal/repository"
)

const (
	// OfflineThreshold is how long a device may go without a heartbeat
	// before the liveness sweep demotes it.
	OfflineThreshold = 120 * time.Second

	// PendingStuckThreshold is how long a pending command marker may wait
	// for confirmation before the reconciliation sweep gives up on it.
	PendingStuckThreshold = 180 * time.Second
)

type SweepService struct {
	repos  *repository.Repository
	log    *logger.Logger
	notify Notifier
	locks  *deviceLocks
}

func NewSweepService(repos *repository.Repository, log *logger.Logger, notify Notifier, locks *deviceLocks) *SweepService {
	return &SweepService{repos: repos, log: log, notify: notify, locks: locks}
}

// runEvery drives pass on a fixed ticker until ctx is canceled. Passes run
// synchronously on the ticker goroutine, so a slow pass drops intervening
// ticks instead of overlapping with itself.
func runEvery(ctx context.Context, tick time.Duration, pass func(context.Context)) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pass(ctx)
		}
	}
}

func (s *SweepService) RunLiveness(ctx context.Context, tick time.Duration) {
	runEvery(ctx, tick, s.LivenessPass)
}

func (s *SweepService) RunPendingReconciliation(ctx context.Context, tick time.Duration) {
	runEvery(ctx, tick, s.PendingPass)
}

// LivenessPass demotes devices whose heartbeats have gone stale. It never
// promotes: only a real heartbeat sets a device online again.
func (s *SweepService) LivenessPass(ctx context.Context) {
	states, err := s.repos.Motor.List(ctx)
	if err != nil {
		s.log.Errorw("liveness_sweep_list_failed", "err", err)
		return
	}

	now := time.Now().UTC()
	for _, st := range states {
		if !st.MCUOnline || !heartbeatStale(st, now) {
			continue
		}
		s.demote(ctx, st.DeviceID)
	}
}

func heartbeatStale(st models.MotorState, now time.Time) bool {
	return st.LastHeartbeat == nil || now.Sub(*st.LastHeartbeat) > OfflineThreshold
}

func (s *SweepService) demote(ctx context.Context, deviceID string) {
	unlock := s.locks.Lock(deviceID)
	defer unlock()

	// Re-read under the lock: a heartbeat may have landed since the scan.
	st, found, err := s.repos.Motor.Get(ctx, deviceID)
	if err != nil || !found {
		return
	}
	now := time.Now().UTC()
	if !st.MCUOnline || !heartbeatStale(st, now) {
		return
	}

	st.MCUOnline = false
	st.UpdatedAt = now
	if err := s.repos.Motor.Save(ctx, st); err != nil {
		s.log.Errorw("liveness_demote_failed", "err", err, "device_id", deviceID)
		return
	}

	s.log.Infow("device_offline", "device_id", deviceID, "last_heartbeat", st.LastHeartbeat)
	if err := s.repos.Events.Append(ctx, models.DeviceEvent{
		DeviceID: deviceID,
		Type:     models.EventDeviceOffline,
		Severity: models.SeverityMedium,
		Message:  "no heartbeat within the offline threshold; marked offline",
	}); err != nil {
		s.log.Errorw("event_log_append_failed", "err", err, "device_id", deviceID)
	}
	s.notify.Publish(Notification{Kind: NotifyRefresh, DeviceID: deviceID, At: now})
}

// PendingPass clears pending command markers that were never confirmed:
// stuck ones older than PendingStuckThreshold, and orphaned ones whose
// command_id no longer matches a live outbound command.
func (s *SweepService) PendingPass(ctx context.Context) {
	states, err := s.repos.Motor.List(ctx)
	if err != nil {
		s.log.Errorw("pending_sweep_list_failed", "err", err)
		return
	}

	now := time.Now().UTC()
	for _, st := range states {
		if !st.HasPending() {
			continue
		}
		stuck := st.PendingCommandAt == nil || now.Sub(*st.PendingCommandAt) > PendingStuckThreshold
		orphaned := s.isOrphaned(st)
		if !stuck && !orphaned {
			continue
		}
		s.clearPending(ctx, st.DeviceID, stuck)
	}
}

func (s *SweepService) isOrphaned(st models.MotorState) bool {
	cmd, ok := s.repos.Commands.Get(st.DeviceID)
	return !ok || cmd.CommandID != st.PendingCommandID
}

func (s *SweepService) clearPending(ctx context.Context, deviceID string, stuck bool) {
	unlock := s.locks.Lock(deviceID)
	defer unlock()

	st, found, err := s.repos.Motor.Get(ctx, deviceID)
	if err != nil || !found || !st.HasPending() {
		return
	}

	commandID := st.PendingCommandID
	st.ClearPending()
	now := time.Now().UTC()
	st.UpdatedAt = now
	if err := s.repos.Motor.Save(ctx, st); err != nil {
		s.log.Errorw("pending_clear_failed", "err", err, "device_id", deviceID)
		return
	}

	ev := models.DeviceEvent{
		DeviceID: deviceID,
		Type:     models.EventReconcileOrphan,
		Severity: models.SeverityInfo,
		Message:  "pending command marker had no live outbound command; cleared",
		Metadata: map[string]any{"command_id": commandID},
	}
	if stuck {
		ev.Type = models.EventReconcileTimeout
		ev.Severity = models.SeverityMedium
		ev.Message = "pending command was never confirmed within the stuck threshold; cleared"
	}
	s.log.Infow("pending_command_cleared", "device_id", deviceID, "command_id", commandID, "stuck", stuck)
	if err := s.repos.Events.Append(ctx, ev); err != nil {
		s.log.Errorw("event_log_append_failed", "err", err, "device_id", deviceID)
	}
	s.notify.Publish(Notification{Kind: NotifyRefresh, DeviceID: deviceID, At: now})
}
