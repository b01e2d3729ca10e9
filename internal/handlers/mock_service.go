package handlers

import (
	"context"
	"time"

	"pump-control-backend/internal/models"
	"pump-control-backend/internal/service"

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
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockCommands struct {
	issueState models.MotorState
	issueErr   error
	pollCmd    *models.OutboundCommand
	pollErr    error
	ackErr     error

	issueCalls []service.CommandParams
	pollCalls  []string
	ackCalls   []service.AckParams
}

func (m *mockCommands) IssueCommand(ctx context.Context, p service.CommandParams) (models.MotorState, error) {
	m.issueCalls = append(m.issueCalls, p)
	return m.issueState, m.issueErr
}
func (m *mockCommands) PollPendingCommand(ctx context.Context, deviceID string) (*models.OutboundCommand, error) {
	m.pollCalls = append(m.pollCalls, deviceID)
	return m.pollCmd, m.pollErr
}
func (m *mockCommands) AcknowledgeCommand(ctx context.Context, p service.AckParams) error {
	m.ackCalls = append(m.ackCalls, p)
	return m.ackErr
}

type mockTelemetry struct {
	hbState models.MotorState
	hbErr   error

	hbCalls     []service.HeartbeatParams
	sensorCalls []models.SensorSnapshot
}

func (m *mockTelemetry) HandleHeartbeat(ctx context.Context, p service.HeartbeatParams) (models.MotorState, error) {
	m.hbCalls = append(m.hbCalls, p)
	return m.hbState, m.hbErr
}
func (m *mockTelemetry) IngestSensors(ctx context.Context, snap models.SensorSnapshot) error {
	m.sensorCalls = append(m.sensorCalls, snap)
	return nil
}

type mockMonitoring struct {
	state  models.MotorState
	states []models.MotorState
	pause  *models.SensorPauseRecord
	err    error
}

func (m *mockMonitoring) GetMotorState(ctx context.Context, deviceID string) (models.MotorState, error) {
	return m.state, m.err
}
func (m *mockMonitoring) GetAllMotorStates(ctx context.Context) ([]models.MotorState, error) {
	return m.states, m.err
}
func (m *mockMonitoring) GetSensorPauseStatus(deviceID string) *models.SensorPauseRecord {
	return m.pause
}

type mockOverrides struct {
	setErr     error
	overridden bool
	setCalls   []struct {
		DeviceID string
		Enabled  bool
		Reason   string
	}
}

func (m *mockOverrides) SetOverride(ctx context.Context, deviceID string, enabled bool, reason string) error {
	m.setCalls = append(m.setCalls, struct {
		DeviceID string
		Enabled  bool
		Reason   string
	}{deviceID, enabled, reason})
	return m.setErr
}
func (m *mockOverrides) IsOverridden(deviceID string) bool { return m.overridden }

type mockInterlock struct {
	forceErr   error
	forceCalls []string
}

func (m *mockInterlock) Run(ctx context.Context, tick time.Duration) {}
func (m *mockInterlock) ForceCheck(ctx context.Context, deviceID string) error {
	m.forceCalls = append(m.forceCalls, deviceID)
	return m.forceErr
}

type mockEventLog struct {
	resp     []models.DeviceEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
