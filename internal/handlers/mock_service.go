package handlers

import (
	"context"
	"net/http"
	"time"

	"finbridge"
	"finbridge/internal/coordinator"
	"finbridge/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastGenUsername    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockEntities struct {
	sensors   []finbridge.SensorReading
	sensor    finbridge.SensorReading
	sensorErr error
	events    []finbridge.CalendarEvent
	eventsErr error
	next      finbridge.CalendarEvent
	nextFound bool
	status    coordinator.Status
	refresh   error

	lastSensorID string
	lastFrom     time.Time
	lastTo       time.Time
	refreshCalls int

	updates chan coordinator.Update
}

func (m *mockEntities) Sensors(ctx context.Context) []finbridge.SensorReading { return m.sensors }
func (m *mockEntities) Sensor(ctx context.Context, id string) (finbridge.SensorReading, error) {
	m.lastSensorID = id
	return m.sensor, m.sensorErr
}
func (m *mockEntities) Calendar(ctx context.Context, from, to time.Time) ([]finbridge.CalendarEvent, error) {
	m.lastFrom = from
	m.lastTo = to
	return m.events, m.eventsErr
}
func (m *mockEntities) NextEvent(ctx context.Context) (finbridge.CalendarEvent, bool) {
	return m.next, m.nextFound
}
func (m *mockEntities) Status(ctx context.Context) coordinator.Status { return m.status }
func (m *mockEntities) Refresh(ctx context.Context) error {
	m.refreshCalls++
	return m.refresh
}
func (m *mockEntities) Subscribe() (string, <-chan coordinator.Update) {
	if m.updates == nil {
		m.updates = make(chan coordinator.Update, 8)
	}
	return "sub-1", m.updates
}
func (m *mockEntities) Unsubscribe(id string) {}

type mockHistory struct {
	resp       []finbridge.PollRecord
	err        error
	lastFilter service.HistoryFilter
	listCalls  int
}

func (m *mockHistory) List(ctx context.Context, f service.HistoryFilter) ([]finbridge.PollRecord, error) {
	m.listCalls++
	m.lastFilter = f
	return m.resp, m.err
}

type mockSetup struct {
	result     service.ValidationErrors
	lastParams service.ConnectionParams
}

func (m *mockSetup) Validate(ctx context.Context, p service.ConnectionParams) service.ValidationErrors {
	m.lastParams = p
	if m.result == nil {
		return service.ValidationErrors{}
	}
	return m.result
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
