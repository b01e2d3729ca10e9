package service

import (
	"context"
	"math"
	"time"

	"pump-control-backend/internal/logger"
	"pump-control-backend/internal/models"
	"pump-control-backend/internal/repository"
)

// levelTolerance is the slack allowed when comparing a reported target level
// against the pending expectation.
const levelTolerance = 0.5

// HeartbeatParams carries the device's confirmed ground-truth report.
type HeartbeatParams struct {
	DeviceID           string
	MotorRunning       bool
	ControlMode        models.ControlMode
	TargetModeActive   bool
	CurrentTargetLevel *float64
	TargetDescription  string
	ProtectionActive   bool
	CurrentAmps        float64
	PowerWatts         float64
	RuntimeMinutes     int
	TotalRuntimeHours  float64
}

type TelemetryService struct {
	repos  *repository.Repository
	log    *logger.Logger
	notify Notifier
	locks  *deviceLocks
}

func NewTelemetryService(repos *repository.Repository, log *logger.Logger, notify Notifier, locks *deviceLocks) *TelemetryService {
	return &TelemetryService{repos: repos, log: log, notify: notify, locks: locks}
}

// HandleHeartbeat overwrites every confirmed field with the reported values.
// The heartbeat is ground truth: it always wins over any optimistic preview,
// regardless of arrival order. It is also the only path that promotes a
// device to online. When the report matches the pending shadow, the pending
// command is considered confirmed and the shadow is cleared.
func (s *TelemetryService) HandleHeartbeat(ctx context.Context, p HeartbeatParams) (models.MotorState, error) {
	unlock := s.locks.Lock(p.DeviceID)
	defer unlock()

	now := time.Now().UTC()
	st, err := loadOrInit(ctx, s.repos.Motor, p.DeviceID, now)
	if err != nil {
		return models.MotorState{}, err
	}

	st.MotorRunning = p.MotorRunning
	st.ControlMode = p.ControlMode
	st.TargetModeActive = p.TargetModeActive
	st.CurrentTargetLevel = p.CurrentTargetLevel
	st.TargetDescription = p.TargetDescription
	st.ProtectionActive = p.ProtectionActive
	st.CurrentAmps = p.CurrentAmps
	st.PowerWatts = p.PowerWatts
	st.RuntimeMinutes = p.RuntimeMinutes
	st.TotalRuntimeHours = p.TotalRuntimeHours
	st.LastHeartbeat = &now
	st.MCUOnline = true
	st.UpdatedAt = now

	if st.HasPending() && pendingConfirmed(st, p) {
		s.log.Infow("pending_command_confirmed", "device_id", p.DeviceID, "command_id", st.PendingCommandID)
		st.ClearPending()
	}

	if err := s.repos.Motor.Save(ctx, st); err != nil {
		return models.MotorState{}, err
	}

	s.notify.Publish(Notification{Kind: NotifyRefresh, DeviceID: p.DeviceID, At: now})
	return st, nil
}

// pendingConfirmed reports whether the heartbeat matches every expectation
// recorded in the pending shadow.
func pendingConfirmed(st models.MotorState, p HeartbeatParams) bool {
	if st.PendingMotorRunning != nil && *st.PendingMotorRunning != p.MotorRunning {
		return false
	}
	if st.PendingControlMode != nil && *st.PendingControlMode != p.ControlMode {
		return false
	}
	if st.PendingTargetActive != nil && *st.PendingTargetActive != p.TargetModeActive {
		return false
	}
	if st.PendingTargetLevel != nil {
		if p.CurrentTargetLevel == nil {
			return false
		}
		if math.Abs(*st.PendingTargetLevel-*p.CurrentTargetLevel) > levelTolerance {
			return false
		}
	}
	if st.PendingProtectionActive != nil && *st.PendingProtectionActive != p.ProtectionActive {
		return false
	}
	return true
}

// IngestSensors records the latest sensor snapshot for a device. The
// interlock reads these on its next tick; ingestion itself never drives
// motor control.
func (s *TelemetryService) IngestSensors(ctx context.Context, snap models.SensorSnapshot) error {
	now := time.Now().UTC()
	if snap.Ground.ObservedAt.IsZero() {
		snap.Ground.ObservedAt = now
	}
	if snap.Roof.ObservedAt.IsZero() {
		snap.Roof.ObservedAt = now
	}
	s.repos.Sensors.Put(snap)
	return nil
}
