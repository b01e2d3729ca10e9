package repository

import (
	"time"

	"github.com/patrickmn/go-cache"

	"pump-control-backend/internal/models"
)

// Default lifetimes of the ephemeral records. Commands carry their TTL on
// every Put because polling shortens it; the rest are fixed per record kind.
const (
	PauseTTL    = time.Hour
	OverrideTTL = 24 * time.Hour
	SensorTTL   = 10 * time.Minute

	ephemeralCleanup = time.Minute
)

// CommandCache is the in-memory OutboundCommand slot, one entry per device.
type CommandCache struct {
	c *cache.Cache
}

func NewCommandCache() *CommandCache {
	return &CommandCache{c: cache.New(cache.NoExpiration, ephemeralCleanup)}
}

func (s *CommandCache) Put(deviceID string, cmd models.OutboundCommand, ttl time.Duration) {
	s.c.Set(deviceID, cmd, ttl)
}

func (s *CommandCache) Get(deviceID string) (models.OutboundCommand, bool) {
	v, ok := s.c.Get(deviceID)
	if !ok {
		return models.OutboundCommand{}, false
	}
	return v.(models.OutboundCommand), true
}

func (s *CommandCache) Delete(deviceID string) {
	s.c.Delete(deviceID)
}

// PauseCache holds SensorPauseRecords; a record that is never resumed falls
// out on its own after PauseTTL.
type PauseCache struct {
	c *cache.Cache
}

func NewPauseCache() *PauseCache {
	return &PauseCache{c: cache.New(PauseTTL, ephemeralCleanup)}
}

func (s *PauseCache) Put(rec models.SensorPauseRecord) {
	s.c.Set(rec.DeviceID, rec, PauseTTL)
}

func (s *PauseCache) Get(deviceID string) (models.SensorPauseRecord, bool) {
	v, ok := s.c.Get(deviceID)
	if !ok {
		return models.SensorPauseRecord{}, false
	}
	return v.(models.SensorPauseRecord), true
}

func (s *PauseCache) Delete(deviceID string) {
	s.c.Delete(deviceID)
}

// OverrideCache holds interlock overrides; stale overrides age out after a day.
type OverrideCache struct {
	c *cache.Cache
}

func NewOverrideCache() *OverrideCache {
	return &OverrideCache{c: cache.New(OverrideTTL, ephemeralCleanup)}
}

func (s *OverrideCache) Put(rec models.OverrideRecord) {
	s.c.Set(rec.DeviceID, rec, OverrideTTL)
}

func (s *OverrideCache) Get(deviceID string) (models.OverrideRecord, bool) {
	v, ok := s.c.Get(deviceID)
	if !ok {
		return models.OverrideRecord{}, false
	}
	return v.(models.OverrideRecord), true
}

func (s *OverrideCache) Delete(deviceID string) {
	s.c.Delete(deviceID)
}

// SensorCache keeps the latest snapshot per device. A snapshot older than
// SensorTTL is treated as absent, which the interlock reads as unverifiable
// sensors.
type SensorCache struct {
	c *cache.Cache
}

func NewSensorCache() *SensorCache {
	return &SensorCache{c: cache.New(SensorTTL, ephemeralCleanup)}
}

func (s *SensorCache) Put(snap models.SensorSnapshot) {
	s.c.Set(snap.DeviceID, snap, SensorTTL)
}

func (s *SensorCache) Latest(deviceID string) (models.SensorSnapshot, bool) {
	v, ok := s.c.Get(deviceID)
	if !ok {
		return models.SensorSnapshot{}, false
	}
	return v.(models.SensorSnapshot), true
}
