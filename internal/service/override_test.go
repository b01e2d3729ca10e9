package service

import (
	"context"
	"testing"

	"pump-control-backend/internal/models"
)

func newOverrideService(tr *testRepos, notify Notifier) *OverrideService {
	if notify == nil {
		notify = NopNotifier{}
	}
	return NewOverrideService(tr.repos, testLogger(), notify)
}

func TestSetOverride_EnableStoresRecordAndAudits(t *testing.T) {
	tr := newTestRepos()
	notify := &recordNotifier{}
	svc := newOverrideService(tr, notify)

	if err := svc.SetOverride(context.Background(), "pump-01", true, "sensor maintenance"); err != nil {
		t.Fatalf("SetOverride returned error: %v", err)
	}

	rec, ok := tr.overrides.Get("pump-01")
	if !ok || !rec.Enabled {
		t.Fatalf("enabled override should be stored, got %+v ok=%v", rec, ok)
	}
	if rec.Reason != "sensor maintenance" {
		t.Fatalf("override reason not recorded, got %q", rec.Reason)
	}
	if !svc.IsOverridden("pump-01") {
		t.Fatalf("IsOverridden should report true after enabling")
	}

	evs := tr.events.events()
	if len(evs) != 1 || evs[0].Type != models.EventOverride {
		t.Fatalf("expected one OVERRIDE event, got %+v", evs)
	}
	kinds := notify.kinds()
	if len(kinds) != 1 || kinds[0] != NotifyOverride {
		t.Fatalf("expected one override notification, got %v", kinds)
	}
}

func TestSetOverride_DisableRemovesRecord(t *testing.T) {
	tr := newTestRepos()
	svc := newOverrideService(tr, nil)

	if err := svc.SetOverride(context.Background(), "pump-01", true, ""); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := svc.SetOverride(context.Background(), "pump-01", false, "maintenance done"); err != nil {
		t.Fatalf("disable: %v", err)
	}

	if _, ok := tr.overrides.Get("pump-01"); ok {
		t.Fatalf("disabling should remove the override record")
	}
	if svc.IsOverridden("pump-01") {
		t.Fatalf("IsOverridden should report false after disabling")
	}
	if got := len(tr.events.events()); got != 2 {
		t.Fatalf("both transitions should be audited, got %d events", got)
	}
}

func TestIsOverridden_UnknownDeviceIsFalse(t *testing.T) {
	tr := newTestRepos()
	svc := newOverrideService(tr, nil)

	if svc.IsOverridden("never-seen") {
		t.Fatalf("unknown device must not be overridden")
	}
}
