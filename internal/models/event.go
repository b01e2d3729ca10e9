package models

import "time"

// Severity levels for device events and notifications.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Device event types written to the audit log.
const (
	EventCommandIssued    = "COMMAND_ISSUED"
	EventCommandAck       = "COMMAND_ACK"
	EventCommandFailed    = "COMMAND_FAILED"
	EventDeviceOffline    = "DEVICE_OFFLINE"
	EventReconcileTimeout = "RECONCILE_TIMEOUT"
	EventReconcileOrphan  = "RECONCILE_ORPHAN"
	EventSensorPause      = "SENSOR_PAUSE"
	EventSensorResume     = "SENSOR_RESUME"
	EventOverride         = "OVERRIDE"
)

// DeviceEvent is a single append-only audit log entry.
type DeviceEvent struct {
	EventID    string    `json:"event_id"`
	DeviceID   string    `json:"device_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	Metadata   any       `json:"metadata,omitempty"`
}
