package repository

import (
	"context"
	"database/sql"
	"time"

	"pump-control-backend/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// MotorStateRepo is the durable keyed store of per-device motor state.
type MotorStateRepo interface {
	Get(ctx context.Context, deviceID string) (models.MotorState, bool, error)
	Save(ctx context.Context, st models.MotorState) error
	List(ctx context.Context) ([]models.MotorState, error)
}

// EventFilter narrows an audit log query. Zero values mean "no bound".
type EventFilter struct {
	From     time.Time
	To       time.Time
	Type     string
	DeviceID string
}

// EventRepo is the append-only device event/audit log.
type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, f EventFilter) ([]models.DeviceEvent, error)
}

// CommandStore holds at most one live OutboundCommand per device.
// Put replaces unconditionally; entries expire on their own.
type CommandStore interface {
	Put(deviceID string, cmd models.OutboundCommand, ttl time.Duration)
	Get(deviceID string) (models.OutboundCommand, bool)
	Delete(deviceID string)
}

// PauseStore holds the interlock's SensorPauseRecord per device.
type PauseStore interface {
	Put(rec models.SensorPauseRecord)
	Get(deviceID string) (models.SensorPauseRecord, bool)
	Delete(deviceID string)
}

// OverrideStore holds the interlock override flag per device.
type OverrideStore interface {
	Put(rec models.OverrideRecord)
	Get(deviceID string) (models.OverrideRecord, bool)
	Delete(deviceID string)
}

// SensorStore holds the latest sensor snapshot per device, written by the
// ingestion path and read by the interlock.
type SensorStore interface {
	Put(snap models.SensorSnapshot)
	Latest(deviceID string) (models.SensorSnapshot, bool)
}

type Repository struct {
	Motor     MotorStateRepo
	Events    EventRepo
	Auth      Authorization
	Commands  CommandStore
	Pauses    PauseStore
	Overrides OverrideStore
	Sensors   SensorStore
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Motor:     NewCachedMotorRepo(NewMotorSQLite(db)),
		Events:    NewEventSQLite(db),
		Auth:      NewUserRepository(db),
		Commands:  NewCommandCache(),
		Pauses:    NewPauseCache(),
		Overrides: NewOverrideCache(),
		Sensors:   NewSensorCache(),
	}
}
