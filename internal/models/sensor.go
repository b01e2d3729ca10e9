package models

import "time"

// Tanks monitored by the water-level sensors.
type Tank string

const (
	TankGround Tank = "ground"
	TankRoof   Tank = "roof"
)

// TankReading is the latest report from one tank's sensor.
type TankReading struct {
	Connected    bool      `json:"connected"`
	Working      bool      `json:"working"`
	LevelPercent *float64  `json:"level_percent,omitempty"`
	ObservedAt   time.Time `json:"observed_at"`
}

// Healthy reports whether the reading can be trusted for motor control.
func (r TankReading) Healthy() bool {
	return r.Connected && r.Working
}

// SensorSnapshot is the latest sensor picture for one device. It is produced
// by the ingestion path and read-only to the interlock.
type SensorSnapshot struct {
	DeviceID string      `json:"device_id"`
	Ground   TankReading `json:"ground"`
	Roof     TankReading `json:"roof"`
}

// SensorFault classifies why a tank's reading is not trustworthy.
type SensorFault string

const (
	FaultNone           SensorFault = "none"
	FaultDisconnected   SensorFault = "disconnected"
	FaultNoData         SensorFault = "no_data"
	FaultInvalidReading SensorFault = "invalid_reading"
	FaultTimeout        SensorFault = "timeout"
)

// Previous motor states captured when the interlock pauses a device.
const (
	MotorWasRunning = "running"
	MotorWasStopped = "stopped"
)

// SensorPauseRecord marks a device whose motor the interlock stopped for
// sensor reasons. Cleared on resume or cache expiry.
type SensorPauseRecord struct {
	DeviceID                   string      `json:"device_id"`
	PausedAt                   time.Time   `json:"paused_at"`
	Reason                     string      `json:"reason"`
	PreviousMotorState         string      `json:"previous_motor_state"`
	EstimatedResumeTime        time.Time   `json:"estimated_resume_time"`
	RequiresManualIntervention bool        `json:"requires_manual_intervention"`
	GroundFault                SensorFault `json:"ground_fault"`
	RoofFault                  SensorFault `json:"roof_fault"`
}
