package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"finbridge"
	"finbridge/internal/coordinator"
	"finbridge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, entities *mockEntities) (*websocket.Conn, func()) {
	t.Helper()

	r := gin.New()
	h := NewHandler(&service.Service{Entities: entities}, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial error: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
		srv.Close()
	}
}

type testEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func TestWebSocket_InitialSensorsThenPollUpdates(t *testing.T) {
	entities := &mockEntities{
		sensors: []finbridge.SensorReading{
			{QueryID: "1", Name: "Balance", State: "500", Available: true},
		},
		updates: make(chan coordinator.Update, 8),
	}
	conn, teardown := dialWS(t, entities)
	defer teardown()

	// initial push on connect
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env testEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != "sensors" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var readings []finbridge.SensorReading
	if err := json.Unmarshal(env.Data, &readings); err != nil {
		t.Fatalf("unmarshal readings: %v", err)
	}
	if len(readings) != 1 || readings[0].State != "500" {
		t.Fatalf("unexpected readings: %+v", readings)
	}

	// a successful poll pushes fresh readings
	entities.updates <- coordinator.Update{Success: true, Healthy: true, At: time.Now()}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	env = testEnvelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read after update: %v", err)
	}
	if env.Type != "sensors" {
		t.Fatalf("expected type=sensors, got %+v", env)
	}
}

func TestWebSocket_FailedPollSendsStatusEnvelope(t *testing.T) {
	entities := &mockEntities{
		status:  coordinator.Status{Healthy: false, ConsecutiveFailures: 3},
		updates: make(chan coordinator.Update, 8),
	}
	conn, teardown := dialWS(t, entities)
	defer teardown()

	// drain the initial sensors push
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env testEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}

	entities.updates <- coordinator.Update{Success: false, Healthy: false, At: time.Now()}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	env = testEnvelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read failure envelope: %v", err)
	}
	if env.Type != "poll_failed" {
		t.Fatalf("expected type=poll_failed, got %+v", env)
	}
	var st coordinator.Status
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if st.Healthy || st.ConsecutiveFailures != 3 {
		t.Fatalf("unexpected status: %+v", st)
	}
}
