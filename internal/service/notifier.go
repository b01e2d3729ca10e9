package service

import (
	"time"

	"pump-control-backend/internal/models"
)

// NotificationKind enumerates the closed set of observer events.
type NotificationKind string

const (
	NotifySensorPaused  NotificationKind = "sensor_paused"
	NotifySensorResumed NotificationKind = "sensor_resumed"
	NotifyPauseDetails  NotificationKind = "pause_details"
	NotifyOverride      NotificationKind = "override"
	NotifySystemAlert   NotificationKind = "system_alert"
	NotifySensorStatus  NotificationKind = "sensor_status"
	NotifyRefresh       NotificationKind = "refresh"
)

// SensorStatus is the lightweight per-tick picture pushed to observers.
type SensorStatus struct {
	SensorsHealthy bool `json:"sensors_healthy"`
	GroundHealthy  bool `json:"ground_healthy"`
	RoofHealthy    bool `json:"roof_healthy"`
	MotorRunning   bool `json:"motor_running"`
	PausedBySensor bool `json:"paused_by_sensor"`
}

// Notification is the tagged envelope pushed to observers. The payload
// pointer matching Kind is set; the others are nil.
type Notification struct {
	Kind     NotificationKind          `json:"kind"`
	DeviceID string                    `json:"device_id"`
	Severity models.Severity           `json:"severity,omitempty"`
	Message  string                    `json:"message,omitempty"`
	At       time.Time                 `json:"at"`
	Pause    *models.SensorPauseRecord `json:"pause,omitempty"`
	Override *models.OverrideRecord    `json:"override,omitempty"`
	Status   *SensorStatus             `json:"status,omitempty"`
}

// Notifier fans notifications out to observers. Publish must not block:
// notification delivery is best-effort and never holds up a state change.
type Notifier interface {
	Publish(n Notification)
}

// NopNotifier drops everything. Used in tests and when no hub is wired.
type NopNotifier struct{}

func (NopNotifier) Publish(Notification) {}
