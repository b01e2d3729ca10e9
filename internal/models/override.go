package models

import "time"

// OverrideRecord suspends the sensor-safety interlock for one device.
// At most one per device; expires from the cache after its TTL.
type OverrideRecord struct {
	DeviceID string    `json:"device_id"`
	Enabled  bool      `json:"enabled"`
	Reason   string    `json:"reason,omitempty"`
	SetAt    time.Time `json:"set_at"`
}
