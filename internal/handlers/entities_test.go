package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finbridge"
	"finbridge/internal/coordinator"
	"finbridge/internal/service"
)

func doRequest(router http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetSensors_ReturnsReadings(t *testing.T) {
	entities := &mockEntities{
		sensors: []finbridge.SensorReading{
			{QueryID: "1", Name: "Balance", State: "100", Available: true},
			{QueryID: "2", Name: "Spend", State: finbridge.StateUnknown},
		},
	}
	router := newTestRouter(&service.Service{Entities: entities, Authorization: &mockAuth{parseID: 1}})

	w := doRequest(router, http.MethodGet, "/api/v1/sensors", authHeader("tok"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Count   int                       `json:"count"`
		Sensors []finbridge.SensorReading `json:"sensors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Count != 2 || len(resp.Sensors) != 2 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestGetSensor_NotFoundIs404(t *testing.T) {
	entities := &mockEntities{sensorErr: service.ErrSensorNotFound}
	router := newTestRouter(&service.Service{Entities: entities, Authorization: &mockAuth{parseID: 1}})

	w := doRequest(router, http.MethodGet, "/api/v1/sensors/nope", authHeader("tok"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if entities.lastSensorID != "nope" {
		t.Fatalf("service called with %q", entities.lastSensorID)
	}
}

func TestGetCalendar_ParsesRangeAndDateOnlyToIsEndOfDay(t *testing.T) {
	entities := &mockEntities{events: []finbridge.CalendarEvent{}}
	router := newTestRouter(&service.Service{Entities: entities, Authorization: &mockAuth{parseID: 1}})

	w := doRequest(router, http.MethodGet, "/api/v1/calendar?from=2026-08-01&to=2026-08-31", authHeader("tok"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	wantFrom := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !entities.lastFrom.Equal(wantFrom) {
		t.Fatalf("from = %v, want %v", entities.lastFrom, wantFrom)
	}
	wantTo := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC).Add(24*time.Hour - time.Nanosecond)
	if !entities.lastTo.Equal(wantTo) {
		t.Fatalf("to = %v, want end-of-day %v", entities.lastTo, wantTo)
	}
}

func TestGetCalendar_BadTimeIs400(t *testing.T) {
	router := newTestRouter(&service.Service{Entities: &mockEntities{}, Authorization: &mockAuth{parseID: 1}})

	w := doRequest(router, http.MethodGet, "/api/v1/calendar?from=not-a-date", authHeader("tok"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetCalendar_InvertedRangeIs400(t *testing.T) {
	router := newTestRouter(&service.Service{Entities: &mockEntities{}, Authorization: &mockAuth{parseID: 1}})

	w := doRequest(router, http.MethodGet, "/api/v1/calendar?from=2026-08-31&to=2026-08-01", authHeader("tok"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetNextEvent_FoundAndNotFound(t *testing.T) {
	entities := &mockEntities{
		next:      finbridge.CalendarEvent{Title: "rent"},
		nextFound: true,
	}
	router := newTestRouter(&service.Service{Entities: entities, Authorization: &mockAuth{parseID: 1}})

	w := doRequest(router, http.MethodGet, "/api/v1/calendar/next", authHeader("tok"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["found"] != true {
		t.Fatalf("expected found=true: %v", resp)
	}

	entities.nextFound = false
	w = doRequest(router, http.MethodGet, "/api/v1/calendar/next", authHeader("tok"))
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["found"] != false {
		t.Fatalf("expected found=false: %v", resp)
	}
}

func TestGetStatus_ReportsCoordinatorStatus(t *testing.T) {
	entities := &mockEntities{status: coordinator.Status{Healthy: true, IntervalSec: 300}}
	router := newTestRouter(&service.Service{Entities: entities, Authorization: &mockAuth{parseID: 1}})

	w := doRequest(router, http.MethodGet, "/api/v1/status", authHeader("tok"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var st coordinator.Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !st.Healthy || st.IntervalSec != 300 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestRefresh_SuccessAndFailure(t *testing.T) {
	entities := &mockEntities{}
	router := newTestRouter(&service.Service{Entities: entities, Authorization: &mockAuth{parseID: 1}})

	w := doRequest(router, http.MethodPost, "/api/v1/refresh", authHeader("tok"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if entities.refreshCalls != 1 {
		t.Fatalf("refresh not delegated")
	}

	entities.refresh = errors.New("upstream down")
	w = doRequest(router, http.MethodPost, "/api/v1/refresh", authHeader("tok"))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
}

func TestHealth_NoAuthRequired(t *testing.T) {
	router := newTestRouter(&service.Service{Authorization: &mockAuth{}})

	w := doRequest(router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
