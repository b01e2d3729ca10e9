package service

import (
	"context"
	"time"

	"pump-control-backend/internal/logger"
	"pump-control-backend/internal/models"
	"pump-control-backend/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Commands is the operator/device command protocol: issue with optimistic
// preview, poll-only delivery, acknowledgment.
type Commands interface {
	IssueCommand(ctx context.Context, p CommandParams) (models.MotorState, error)
	PollPendingCommand(ctx context.Context, deviceID string) (*models.OutboundCommand, error)
	AcknowledgeCommand(ctx context.Context, p AckParams) error
}

// Telemetry ingests device-originated reports: heartbeats and sensor data.
type Telemetry interface {
	HandleHeartbeat(ctx context.Context, p HeartbeatParams) (models.MotorState, error)
	IngestSensors(ctx context.Context, snap models.SensorSnapshot) error
}

// Monitoring exposes read-only state.
type Monitoring interface {
	GetMotorState(ctx context.Context, deviceID string) (models.MotorState, error)
	GetAllMotorStates(ctx context.Context) ([]models.MotorState, error)
	GetSensorPauseStatus(deviceID string) *models.SensorPauseRecord
}

// Sweeps are the periodic liveness and pending-command reconciliation loops.
// Stop via context cancellation in main() for graceful shutdown.
type Sweeps interface {
	RunLiveness(ctx context.Context, tick time.Duration)
	RunPendingReconciliation(ctx context.Context, tick time.Duration)
}

// Interlock is the periodic sensor-safety loop plus its manual trigger.
type Interlock interface {
	Run(ctx context.Context, tick time.Duration)
	ForceCheck(ctx context.Context, deviceID string) error
}

// Overrides suspends the interlock per device.
type Overrides interface {
	SetOverride(ctx context.Context, deviceID string, enabled bool, reason string) error
	IsOverridden(deviceID string) bool
}

// EventLog exposes the append-only audit log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Commands
	Telemetry
	Monitoring
	Sweeps
	Interlock
	Overrides
	EventLog
	Authorization
}

// NewService wires the repository layer into concrete services. All services
// that mutate a device's MotorState share one per-device lock registry so a
// command and a heartbeat racing on the same device cannot lose updates.
func NewService(repos *repository.Repository, log *logger.Logger, notify Notifier, primaryDevice string) *Service {
	if notify == nil {
		notify = NopNotifier{}
	}
	locks := newDeviceLocks()

	commands := NewCommandService(repos, log, notify, locks, primaryDevice)
	overrides := NewOverrideService(repos, log, notify)

	return &Service{
		Commands:      commands,
		Telemetry:     NewTelemetryService(repos, log, notify, locks),
		Monitoring:    NewMonitoringService(repos, primaryDevice),
		Sweeps:        NewSweepService(repos, log, notify, locks),
		Interlock:     NewInterlockService(repos, commands, overrides, log, notify),
		Overrides:     overrides,
		EventLog:      NewEventLogService(repos.Events),
		Authorization: NewAuthService(repos.Auth),
	}
}
