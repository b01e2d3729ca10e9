package models

import "time"

// Control modes reported by and commanded to the MCU.
type ControlMode string

const (
	ControlModeAuto   ControlMode = "auto"
	ControlModeManual ControlMode = "manual"
)

// CommandSource identifies who originated a motor command.
type CommandSource string

const (
	SourceMobile CommandSource = "mobile"
	SourceMCU    CommandSource = "mcu"
	SourceAPI    CommandSource = "api"
	SourceAuto   CommandSource = "auto"
)

// MotorState is the per-device record of the pump motor.
//
// Confirmed fields hold device-reported ground truth (a heartbeat always
// overwrites them). The Pending* shadow holds the expected outcome of the
// last issued command until a heartbeat confirms it or a sweep gives up.
type MotorState struct {
	DeviceID string `json:"device_id"`

	MotorRunning       bool         `json:"motor_running"`
	ControlMode        ControlMode  `json:"control_mode"`
	TargetModeActive   bool         `json:"target_mode_active"`
	CurrentTargetLevel *float64     `json:"current_target_level,omitempty"`
	TargetDescription  string       `json:"target_description,omitempty"`
	ProtectionActive   bool         `json:"protection_active"`
	CurrentAmps        float64      `json:"current_amps"`
	PowerWatts         float64      `json:"power_watts"`
	RuntimeMinutes     int          `json:"runtime_minutes"`
	TotalRuntimeHours  float64      `json:"total_runtime_hours"`
	MCUOnline          bool         `json:"mcu_online"`
	LastHeartbeat      *time.Time   `json:"last_heartbeat,omitempty"`

	LastCommandSource CommandSource `json:"last_command_source,omitempty"`
	LastCommandReason string        `json:"last_command_reason,omitempty"`

	PendingMotorRunning     *bool        `json:"pending_motor_running,omitempty"`
	PendingControlMode      *ControlMode `json:"pending_control_mode,omitempty"`
	PendingTargetActive     *bool        `json:"pending_target_active,omitempty"`
	PendingTargetLevel      *float64     `json:"pending_target_level,omitempty"`
	PendingProtectionActive *bool        `json:"pending_protection_active,omitempty"`
	PendingCommandID        string       `json:"pending_command_id,omitempty"`
	PendingCommandAt        *time.Time   `json:"pending_command_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPending reports whether an issued command is still awaiting confirmation.
func (s *MotorState) HasPending() bool {
	return s.PendingCommandID != ""
}

// ClearPending drops the whole pending shadow.
func (s *MotorState) ClearPending() {
	s.PendingMotorRunning = nil
	s.PendingControlMode = nil
	s.PendingTargetActive = nil
	s.PendingTargetLevel = nil
	s.PendingProtectionActive = nil
	s.PendingCommandID = ""
	s.PendingCommandAt = nil
}

// NewMotorState returns the safe default record created lazily on the first
// command or heartbeat for a device: motor stopped, auto mode, MCU offline.
func NewMotorState(deviceID string, now time.Time) MotorState {
	return MotorState{
		DeviceID:    deviceID,
		ControlMode: ControlModeAuto,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
