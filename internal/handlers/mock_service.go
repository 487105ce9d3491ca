package handlers

import (
	"context"
	"net/http/httptest"

	"homenode/internal/models"
	"homenode/internal/service"

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

	lastParseToken string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockRelays struct {
	list        []models.Relay
	controlErr  error
	replaceErr  error
	pins        []int
	lastLabel   string
	lastState   bool
	lastReplace []models.Relay
	controls    int
	replaces    int
}

func (m *mockRelays) List() []models.Relay { return m.list }
func (m *mockRelays) Control(ctx context.Context, label string, state bool) error {
	m.controls++
	m.lastLabel, m.lastState = label, state
	return m.controlErr
}
func (m *mockRelays) Replace(ctx context.Context, list []models.Relay) error {
	m.replaces++
	m.lastReplace = list
	return m.replaceErr
}
func (m *mockRelays) AvailablePins() []int { return m.pins }

type mockSensors struct {
	snap map[string]any
}

func (m *mockSensors) Snapshot() map[string]any { return m.snap }

type mockRules struct {
	message  string
	err      error
	lastText string
}

func (m *mockRules) Check(text string) (string, error) {
	m.lastText = text
	return m.message, m.err
}

type mockMonitoring struct {
	status map[string]any
	state  map[string]any
}

func (m *mockMonitoring) Status() map[string]any        { return m.status }
func (m *mockMonitoring) StateSnapshot() map[string]any { return m.state }

type mockEventLog struct {
	resp []models.Event
	err  error
	last service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.Event, error) {
	m.last = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts Options) *gin.Engine {
	h := NewHandler(s, nil, opts)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func defaultService() (*service.Service, *mockRelays, *mockRules) {
	rel := &mockRelays{}
	ru := &mockRules{}
	s := &service.Service{
		Relays:        rel,
		Sensors:       &mockSensors{snap: map[string]any{"temperature": 21.0}},
		Rules:         ru,
		Monitoring:    &mockMonitoring{status: map[string]any{"health": "normal"}, state: map[string]any{}},
		EventLog:      &mockEventLog{},
		Authorization: &mockAuth{},
	}
	return s, rel, ru
}

func testServer(s *service.Service, opts Options) *httptest.Server {
	return httptest.NewServer(newTestRouter(s, opts))
}
