package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pump-control-backend/internal/models"
	"pump-control-backend/internal/service"
)

func TestGetLogs_ParsesFiltersAndReturnsEvents(t *testing.T) {
	ev := &mockEventLog{resp: []models.DeviceEvent{
		{EventID: "e1", DeviceID: "pump-01", Type: models.EventSensorPause, Severity: models.SeverityHigh},
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: ev}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet,
		"/api/v1/logs/?from=2026-08-20&to=2026-08-21&type=sensor_pause&device_id=pump-01", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	if ev.lastFrom.IsZero() || ev.lastTo.IsZero() {
		t.Fatalf("date filters were not forwarded: from=%v to=%v", ev.lastFrom, ev.lastTo)
	}
	// Date-only 'to' should extend to the end of that day.
	if ev.lastTo.Hour() != 23 || ev.lastTo.Minute() != 59 {
		t.Fatalf("date-only 'to' should cover the whole day, got %v", ev.lastTo)
	}
	if ev.lastType != "SENSOR_PAUSE" {
		t.Fatalf("type filter not forwarded, got %q", ev.lastType)
	}

	var resp struct {
		Count  int                  `json:"count"`
		Events []models.DeviceEvent `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || len(resp.Events) != 1 || resp.Events[0].EventID != "e1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestGetLogs_BadTimestampIsBadRequest(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: &mockEventLog{}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/logs/?from=not-a-date", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed timestamp, got %d", w.Code)
	}
}

func TestGetLogs_RFC3339Timestamps(t *testing.T) {
	ev := &mockEventLog{}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: ev}
	r := newTestRouter(s)

	from := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet,
		"/api/v1/logs/?from="+from.Format(time.RFC3339), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if !ev.lastFrom.Equal(from) {
		t.Fatalf("RFC3339 'from' not parsed, got %v", ev.lastFrom)
	}
}
