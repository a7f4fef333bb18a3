package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"workout_coach/internal/models"
	"workout_coach/internal/service"

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

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockWorkouts struct {
	timeline   *models.CompiledTimeline
	compileErr error
	workout    models.WorkoutDefinition
	err        error

	lastRaw    []byte
	lastName   string
	lastBlocks []models.Block
}

func (m *mockWorkouts) CreateWorkout(_ context.Context, raw []byte) (models.WorkoutDefinition, error) {
	m.lastRaw = raw
	return m.workout, m.err
}

func (m *mockWorkouts) GetWorkout(_ context.Context, id string) (models.WorkoutDefinition, error) {
	return m.workout, m.err
}

func (m *mockWorkouts) ListWorkouts(context.Context) ([]models.WorkoutDefinition, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []models.WorkoutDefinition{m.workout}, nil
}

func (m *mockWorkouts) CompileTimeline(_ context.Context, name string, blocks []models.Block) (*models.CompiledTimeline, error) {
	m.lastName, m.lastBlocks = name, blocks
	return m.timeline, m.compileErr
}

type mockCatalog struct {
	exercise models.Exercise
	err      error
}

func (m *mockCatalog) Lookup(_ context.Context, id string) models.Exercise { return m.exercise }

func (m *mockCatalog) UpsertExercise(_ context.Context, e models.Exercise) (models.Exercise, error) {
	return e, m.err
}

func (m *mockCatalog) GetExercise(context.Context, string) (models.Exercise, error) {
	return m.exercise, m.err
}

func (m *mockCatalog) ListExercises(context.Context) ([]models.Exercise, error) {
	return []models.Exercise{m.exercise}, m.err
}

type mockTemplates struct {
	templates     []models.ResponseTemplate
	err           error
	lastUpsert    models.ResponseTemplate
	lastDeactived string
}

func (m *mockTemplates) ListTemplates() []models.ResponseTemplate { return m.templates }

func (m *mockTemplates) UpsertTemplate(_ context.Context, t models.ResponseTemplate) (models.ResponseTemplate, error) {
	m.lastUpsert = t
	return t, m.err
}

func (m *mockTemplates) DeactivateTemplate(_ context.Context, id string) error {
	m.lastDeactived = id
	return m.err
}

func (m *mockTemplates) ImportTemplates(context.Context, []models.ResponseTemplate) error { return m.err }

func (m *mockTemplates) LoadTemplates(context.Context) error { return m.err }

type mockSessions struct {
	mu sync.Mutex

	view   service.SessionView
	err    error
	setLog models.SetLog
	result service.TranscriptResult

	stream    chan service.StreamMessage
	streamErr error

	lastStart      service.StartSessionRequest
	lastAction     string
	lastID         string
	lastSet        service.SetLogInput
	lastTranscript service.Transcript
}

func (m *mockSessions) record(action, id string) (service.SessionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastAction, m.lastID = action, id
	return m.view, m.err
}

func (m *mockSessions) StartSession(_ context.Context, req service.StartSessionRequest) (service.SessionView, error) {
	m.lastStart = req
	return m.view, m.err
}

func (m *mockSessions) GetSession(_ context.Context, id string) (service.SessionView, error) {
	return m.record("get", id)
}

func (m *mockSessions) PauseSession(_ context.Context, id string) (service.SessionView, error) {
	return m.record("pause", id)
}

func (m *mockSessions) ResumeSession(_ context.Context, id string) (service.SessionView, error) {
	return m.record("resume", id)
}

func (m *mockSessions) ConfirmReady(_ context.Context, id string) (service.SessionView, error) {
	return m.record("ready", id)
}

func (m *mockSessions) CompleteSet(_ context.Context, id string) (service.SessionView, error) {
	return m.record("complete-set", id)
}

func (m *mockSessions) StopSession(_ context.Context, id string) (service.SessionView, error) {
	return m.record("stop", id)
}

func (m *mockSessions) LogSet(_ context.Context, id string, in service.SetLogInput) (models.SetLog, error) {
	m.lastID, m.lastSet = id, in
	return m.setLog, m.err
}

func (m *mockSessions) HandleTranscript(_ context.Context, id string, in service.Transcript) (service.TranscriptResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastID, m.lastTranscript = id, in
	return m.result, m.err
}

func (m *mockSessions) transcript() service.Transcript {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTranscript
}

func (m *mockSessions) SubscribeSession(string) (<-chan service.StreamMessage, func(), error) {
	if m.streamErr != nil {
		return nil, nil, m.streamErr
	}
	return m.stream, func() {}, nil
}

func (m *mockSessions) Run(context.Context, time.Duration) {}

type mockEventLog struct {
	resp       []models.EventRecord
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.EventRecord, error) {
	m.lastFilter = f
	return m.resp, m.err
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
