package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pump-control-backend/internal/models"
)

func TestEventLogList_NormalizesFilter(t *testing.T) {
	events := &fakeEventRepo{listResp: []models.DeviceEvent{{Type: models.EventSensorPause}}}
	svc := NewEventLogService(events)

	loc := time.FixedZone("UTC+5", 5*3600)
	from := time.Date(2026, 8, 20, 9, 0, 0, 0, loc)
	to := time.Date(2026, 8, 20, 18, 0, 0, 0, loc)

	got, err := svc.List(context.Background(), LogFilter{
		From:     from,
		To:       to,
		Type:     "  sensor_pause ",
		DeviceID: " pump-01 ",
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected passthrough of repo results, got %d", len(got))
	}

	f := events.lastList
	if f.From.Location() != time.UTC || f.To.Location() != time.UTC {
		t.Fatalf("bounds should be normalized to UTC, got %v / %v", f.From.Location(), f.To.Location())
	}
	if !f.From.Equal(from) || !f.To.Equal(to) {
		t.Fatalf("normalization must not change the instants")
	}
	if f.Type != "SENSOR_PAUSE" {
		t.Fatalf("type should be trimmed and uppercased, got %q", f.Type)
	}
	if f.DeviceID != "pump-01" {
		t.Fatalf("device id should be trimmed, got %q", f.DeviceID)
	}
}

func TestEventLogList_RejectsInvertedRange(t *testing.T) {
	svc := NewEventLogService(&fakeEventRepo{})

	now := time.Now().UTC()
	_, err := svc.List(context.Background(), LogFilter{From: now, To: now.Add(-time.Hour)})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("expected errInvalidTimeRange, got %v", err)
	}
}

func TestEventLogList_ZeroBoundsMeanUnbounded(t *testing.T) {
	events := &fakeEventRepo{}
	svc := NewEventLogService(events)

	if _, err := svc.List(context.Background(), LogFilter{}); err != nil {
		t.Fatalf("empty filter should be valid: %v", err)
	}
	if !events.lastList.From.IsZero() || !events.lastList.To.IsZero() {
		t.Fatalf("zero bounds should stay zero")
	}
}

func TestGetMotorState_UnknownDeviceGetsSafeDefault(t *testing.T) {
	tr := newTestRepos()
	svc := NewMonitoringService(tr.repos, "pump-01")

	st, err := svc.GetMotorState(context.Background(), "")
	if err != nil {
		t.Fatalf("GetMotorState returned error: %v", err)
	}
	if st.DeviceID != "pump-01" {
		t.Fatalf("empty device id should resolve to the primary, got %q", st.DeviceID)
	}
	if st.MotorRunning || st.MCUOnline {
		t.Fatalf("default state must be stopped and offline, got %+v", st)
	}
	if st.ControlMode != models.ControlModeAuto {
		t.Fatalf("default control mode should be auto, got %q", st.ControlMode)
	}
	// The default is a read-side view only.
	if _, found, _ := tr.motor.Get(context.Background(), "pump-01"); found {
		t.Fatalf("reading an unknown device must not persist anything")
	}
}

func TestGetSensorPauseStatus(t *testing.T) {
	tr := newTestRepos()
	svc := NewMonitoringService(tr.repos, "pump-01")

	if got := svc.GetSensorPauseStatus("pump-01"); got != nil {
		t.Fatalf("no pause expected, got %+v", got)
	}

	rec := models.SensorPauseRecord{DeviceID: "pump-01", Reason: "sensor fault: ground=disconnected roof=none"}
	tr.pauses.Put(rec)
	got := svc.GetSensorPauseStatus("")
	if got == nil || got.Reason != rec.Reason {
		t.Fatalf("expected the stored pause record, got %+v", got)
	}
}
