package service

import (
	"context"
	"fmt"
	"time"

	"pump-control-backend/internal/logger"
	"pump-control-backend/internal/models"
	"pump-control-backend/internal/repository"
)

// Resume-time estimation: a base cool-off plus per-tank increments scaled to
// how bad the fault is. Each tank contributes independently.
const (
	resumeBase            = 5 * time.Minute
	resumeAddDisconnected = 10 * time.Minute
	resumeAddTimeout      = 3 * time.Minute
	resumeAddInvalid      = 2 * time.Minute
)

// InterlockService enforces the sensor-safety rule: the motor must not run
// while the water-level sensors it depends on cannot be verified healthy. It
// acts through the same command protocol as operators, with source=auto.
type InterlockService struct {
	repos     *repository.Repository
	commands  Commands
	overrides Overrides
	log       *logger.Logger
	notify    Notifier
}

func NewInterlockService(repos *repository.Repository, commands Commands, overrides Overrides, log *logger.Logger, notify Notifier) *InterlockService {
	return &InterlockService{repos: repos, commands: commands, overrides: overrides, log: log, notify: notify}
}

// Run drives the interlock over all known devices on a fixed ticker.
func (s *InterlockService) Run(ctx context.Context, tick time.Duration) {
	runEvery(ctx, tick, s.checkAll)
}

func (s *InterlockService) checkAll(ctx context.Context) {
	states, err := s.repos.Motor.List(ctx)
	if err != nil {
		s.log.Errorw("interlock_list_failed", "err", err)
		return
	}
	for _, st := range states {
		if err := s.checkDevice(ctx, st.DeviceID); err != nil {
			s.log.Errorw("interlock_check_failed", "err", err, "device_id", st.DeviceID)
		}
	}
}

// ForceCheck runs one device's interlock pass synchronously.
func (s *InterlockService) ForceCheck(ctx context.Context, deviceID string) error {
	return s.checkDevice(ctx, deviceID)
}

func (s *InterlockService) checkDevice(ctx context.Context, deviceID string) error {
	if s.overrides.IsOverridden(deviceID) {
		return nil
	}

	st, found, err := s.repos.Motor.Get(ctx, deviceID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	// A missing or expired snapshot means the sensors cannot be verified,
	// which is exactly the condition the interlock exists for.
	snap, snapOK := s.repos.Sensors.Latest(deviceID)
	healthy := snapOK && snap.Ground.Healthy() && snap.Roof.Healthy()

	rec, paused := s.repos.Pauses.Get(deviceID)

	var actionErr error
	switch {
	case !healthy && st.MotorRunning && !paused:
		actionErr = s.pauseMotor(ctx, deviceID, snap)
		if actionErr == nil {
			st.MotorRunning = false
			paused = true
		}
	case healthy && paused:
		actionErr = s.resumeMotor(ctx, deviceID, rec)
		if actionErr == nil {
			paused = false
			if rec.PreviousMotorState == models.MotorWasRunning {
				st.MotorRunning = true
			}
		}
	}

	s.notify.Publish(Notification{
		Kind:     NotifySensorStatus,
		DeviceID: deviceID,
		At:       time.Now().UTC(),
		Status: &SensorStatus{
			SensorsHealthy: healthy,
			GroundHealthy:  snapOK && snap.Ground.Healthy(),
			RoofHealthy:    snapOK && snap.Roof.Healthy(),
			MotorRunning:   st.MotorRunning,
			PausedBySensor: paused,
		},
	})
	if !healthy || paused {
		s.log.Infow("sensors_unverified",
			"device_id", deviceID, "healthy", healthy, "paused", paused, "motor_running", st.MotorRunning)
	}
	return actionErr
}

// pauseMotor stops the motor and records why. The stop command is the
// must-succeed step; the pause record is only written after the stop landed
// so a failed stop is retried on the next tick.
func (s *InterlockService) pauseMotor(ctx context.Context, deviceID string, snap models.SensorSnapshot) error {
	groundFault := classifyTank(snap.Ground)
	roofFault := classifyTank(snap.Roof)
	reason := fmt.Sprintf("sensor fault: ground=%s roof=%s", groundFault, roofFault)

	if _, err := s.commands.IssueCommand(ctx, CommandParams{
		DeviceID: deviceID,
		Action:   models.ActionStop,
		Reason:   reason,
		Source:   models.SourceAuto,
	}); err != nil {
		return fmt.Errorf("interlock stop for %s: %w", deviceID, err)
	}

	now := time.Now().UTC()
	rec := models.SensorPauseRecord{
		DeviceID:                   deviceID,
		PausedAt:                   now,
		Reason:                     reason,
		PreviousMotorState:         models.MotorWasRunning,
		EstimatedResumeTime:        now.Add(resumeBase + resumeDelay(groundFault) + resumeDelay(roofFault)),
		RequiresManualIntervention: groundFault == models.FaultDisconnected && roofFault == models.FaultDisconnected,
		GroundFault:                groundFault,
		RoofFault:                  roofFault,
	}
	s.repos.Pauses.Put(rec)

	severity := models.SeverityHigh
	if rec.RequiresManualIntervention {
		severity = models.SeverityCritical
	}
	if err := s.repos.Events.Append(ctx, models.DeviceEvent{
		DeviceID: deviceID,
		Type:     models.EventSensorPause,
		Severity: severity,
		Message:  "motor stopped: " + reason,
		Metadata: map[string]any{
			"ground_fault":        string(groundFault),
			"roof_fault":          string(roofFault),
			"estimated_resume":    rec.EstimatedResumeTime,
			"manual_intervention": rec.RequiresManualIntervention,
		},
	}); err != nil {
		s.log.Errorw("event_log_append_failed", "err", err, "device_id", deviceID)
	}

	s.notify.Publish(Notification{Kind: NotifySensorPaused, DeviceID: deviceID, Severity: severity, Message: reason, At: now, Pause: &rec})
	s.notify.Publish(Notification{Kind: NotifyPauseDetails, DeviceID: deviceID, Severity: severity, At: now, Pause: &rec})
	s.notify.Publish(Notification{Kind: NotifySystemAlert, DeviceID: deviceID, Severity: severity, Message: "motor stopped by sensor interlock: " + reason, At: now})
	return nil
}

// resumeMotor restarts the motor (when it was running before the pause) and
// clears the pause record. A failed start keeps the record so the resume is
// retried on the next tick.
func (s *InterlockService) resumeMotor(ctx context.Context, deviceID string, rec models.SensorPauseRecord) error {
	if rec.PreviousMotorState == models.MotorWasRunning {
		if _, err := s.commands.IssueCommand(ctx, CommandParams{
			DeviceID: deviceID,
			Action:   models.ActionStart,
			Reason:   "sensors recovered",
			Source:   models.SourceAuto,
		}); err != nil {
			return fmt.Errorf("interlock start for %s: %w", deviceID, err)
		}
	}
	s.repos.Pauses.Delete(deviceID)

	now := time.Now().UTC()
	if err := s.repos.Events.Append(ctx, models.DeviceEvent{
		DeviceID: deviceID,
		Type:     models.EventSensorResume,
		Severity: models.SeverityMedium,
		Message:  "sensors recovered; sensor pause lifted",
		Metadata: map[string]any{"previous_motor_state": rec.PreviousMotorState},
	}); err != nil {
		s.log.Errorw("event_log_append_failed", "err", err, "device_id", deviceID)
	}
	s.notify.Publish(Notification{Kind: NotifySensorResumed, DeviceID: deviceID, Severity: models.SeverityMedium, Message: "sensors recovered", At: now})
	return nil
}

// classifyTank maps one tank's reading to a fault class. Order matters:
// a disconnected sensor is disconnected no matter what else it reports.
func classifyTank(r models.TankReading) models.SensorFault {
	switch {
	case !r.Connected:
		return models.FaultDisconnected
	case r.LevelPercent == nil:
		return models.FaultNoData
	case *r.LevelPercent < 0 || *r.LevelPercent > 100:
		return models.FaultInvalidReading
	case !r.Working:
		return models.FaultTimeout
	default:
		return models.FaultNone
	}
}

func resumeDelay(f models.SensorFault) time.Duration {
	switch f {
	case models.FaultDisconnected:
		return resumeAddDisconnected
	case models.FaultTimeout:
		return resumeAddTimeout
	case models.FaultInvalidReading:
		return resumeAddInvalid
	default:
		return 0
	}
}
