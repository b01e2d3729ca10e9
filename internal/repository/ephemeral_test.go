package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump-control-backend/internal/models"
)

func TestCommandCache_PutReplacesAndExpires(t *testing.T) {
	c := NewCommandCache()

	c.Put("pump-01", models.OutboundCommand{CommandID: "cmd-1"}, time.Minute)
	c.Put("pump-01", models.OutboundCommand{CommandID: "cmd-2"}, time.Minute)

	cmd, ok := c.Get("pump-01")
	require.True(t, ok)
	assert.Equal(t, "cmd-2", cmd.CommandID, "newer command replaces the slot")

	// A tiny TTL expires on its own without waiting for the janitor.
	c.Put("pump-02", models.OutboundCommand{CommandID: "cmd-3"}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok = c.Get("pump-02")
	assert.False(t, ok, "expired command must be invisible")
}

func TestCommandCache_DeleteAndMiss(t *testing.T) {
	c := NewCommandCache()

	_, ok := c.Get("pump-01")
	assert.False(t, ok)

	c.Put("pump-01", models.OutboundCommand{CommandID: "cmd-1"}, time.Minute)
	c.Delete("pump-01")
	_, ok = c.Get("pump-01")
	assert.False(t, ok)
}

func TestPauseCache_RoundTrip(t *testing.T) {
	c := NewPauseCache()

	rec := models.SensorPauseRecord{
		DeviceID:    "pump-01",
		Reason:      "sensor fault: ground=disconnected roof=none",
		GroundFault: models.FaultDisconnected,
	}
	c.Put(rec)

	got, ok := c.Get("pump-01")
	require.True(t, ok)
	assert.Equal(t, rec, got)

	c.Delete("pump-01")
	_, ok = c.Get("pump-01")
	assert.False(t, ok)
}

func TestOverrideCache_RoundTrip(t *testing.T) {
	c := NewOverrideCache()

	rec := models.OverrideRecord{DeviceID: "pump-01", Enabled: true, Reason: "maintenance"}
	c.Put(rec)

	got, ok := c.Get("pump-01")
	require.True(t, ok)
	assert.True(t, got.Enabled)

	c.Delete("pump-01")
	_, ok = c.Get("pump-01")
	assert.False(t, ok)
}

func TestSensorCache_LatestWinsPerDevice(t *testing.T) {
	c := NewSensorCache()

	lvl1, lvl2 := 40.0, 45.0
	c.Put(models.SensorSnapshot{DeviceID: "pump-01", Ground: models.TankReading{LevelPercent: &lvl1}})
	c.Put(models.SensorSnapshot{DeviceID: "pump-01", Ground: models.TankReading{LevelPercent: &lvl2}})

	snap, ok := c.Latest("pump-01")
	require.True(t, ok)
	require.NotNil(t, snap.Ground.LevelPercent)
	assert.Equal(t, 45.0, *snap.Ground.LevelPercent)

	_, ok = c.Latest("pump-02")
	assert.False(t, ok)
}
