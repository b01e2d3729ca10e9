package models

import "time"

// CommandAction is the closed set of operator/automation actions.
type CommandAction string

const (
	ActionStart           CommandAction = "start"
	ActionStop            CommandAction = "stop"
	ActionTarget          CommandAction = "target"
	ActionSetAuto         CommandAction = "auto"
	ActionSetManual       CommandAction = "manual"
	ActionResetProtection CommandAction = "reset_protection"
)

// OutboundCommand is the single in-flight command slot for one device.
// It lives only between issuance and acknowledgment or TTL expiry; a newer
// command for the same device always replaces it (last writer wins).
type OutboundCommand struct {
	CommandID   string        `json:"command_id"`
	DeviceID    string        `json:"device_id"`
	Action      CommandAction `json:"action"`
	TargetLevel *float64      `json:"target_level,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Source      CommandSource `json:"source"`
	IssuedAt    time.Time     `json:"issued_at"`
	RetrievedAt *time.Time    `json:"retrieved_at,omitempty"`
}
