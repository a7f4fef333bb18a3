package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"workout_coach/internal/clock"
	"workout_coach/internal/coaching"
	"workout_coach/internal/models"
	"workout_coach/internal/repository"
	"workout_coach/internal/voice"
)

var testEpoch = time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)

// memStores are in-memory repositories shared by the service tests.
type memStores struct {
	mu        sync.Mutex
	workouts  map[string]models.WorkoutDefinition
	exercises map[string]models.Exercise
	sessions  map[string]models.SessionRecord
	setLogs   []models.SetLog
	events    []models.EventRecord
	getCalls  int
}

func newMemStores() *memStores {
	return &memStores{
		workouts:  map[string]models.WorkoutDefinition{},
		exercises: map[string]models.Exercise{},
		sessions:  map[string]models.SessionRecord{},
	}
}

func (m *memStores) repository() *repository.Repository {
	return &repository.Repository{
		Workouts:  memWorkouts{m},
		Exercises: memExercises{m},
		Events:    memEvents{m},
		Sessions:  memSessions{m},
		SetLogs:   memSetLogs{m},
	}
}

func (m *memStores) session(id string) (models.SessionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.sessions[id]
	return r, ok
}

func (m *memStores) eventTypes(sessionID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		if e.SessionID == sessionID {
			out = append(out, e.Type)
		}
	}
	return out
}

type memWorkouts struct{ m *memStores }

func (r memWorkouts) Create(_ context.Context, w models.WorkoutDefinition) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.workouts[w.ID] = w
	return nil
}

func (r memWorkouts) Get(_ context.Context, id string) (models.WorkoutDefinition, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	w, ok := r.m.workouts[id]
	if !ok {
		return models.WorkoutDefinition{}, repository.ErrNotFound
	}
	return w, nil
}

func (r memWorkouts) List(context.Context) ([]models.WorkoutDefinition, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.WorkoutDefinition
	for _, w := range r.m.workouts {
		out = append(out, w)
	}
	return out, nil
}

type memExercises struct{ m *memStores }

func (r memExercises) Upsert(_ context.Context, e models.Exercise) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.exercises[e.ID] = e
	return nil
}

func (r memExercises) Get(_ context.Context, id string) (models.Exercise, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.getCalls++
	e, ok := r.m.exercises[id]
	if !ok {
		return models.Exercise{}, repository.ErrNotFound
	}
	return e, nil
}

func (r memExercises) List(context.Context) ([]models.Exercise, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Exercise
	for _, e := range r.m.exercises {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memEvents struct{ m *memStores }

func (r memEvents) Append(_ context.Context, e models.EventRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.events = append(r.m.events, e)
	return nil
}

func (r memEvents) List(context.Context, repository.EventFilter) ([]models.EventRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append([]models.EventRecord(nil), r.m.events...), nil
}

type memSessions struct{ m *memStores }

func (r memSessions) Save(_ context.Context, s models.SessionRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.sessions[s.ID] = s
	return nil
}

func (r memSessions) Get(_ context.Context, id string) (models.SessionRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok {
		return models.SessionRecord{}, repository.ErrNotFound
	}
	return s, nil
}

type memSetLogs struct{ m *memStores }

func (r memSetLogs) Append(_ context.Context, l models.SetLog) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.setLogs = append(r.m.setLogs, l)
	return nil
}

func (r memSetLogs) ListBySession(_ context.Context, id string) ([]models.SetLog, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.SetLog
	for _, l := range r.m.setLogs {
		if l.SessionID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

// recordingTransport remembers every request's text. It completes each
// request at once unless hold is set, in which case completeNext does.
type recordingTransport struct {
	mu      sync.Mutex
	texts   []string
	pending []string
	hold    bool
	cb      voice.Callbacks
}

func (t *recordingTransport) Bind(cb voice.Callbacks) { t.cb = cb }

func (t *recordingTransport) Speak(_ context.Context, req voice.Request) error {
	t.mu.Lock()
	t.texts = append(t.texts, req.Text)
	if t.hold {
		t.pending = append(t.pending, req.ID)
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()
	t.cb.Completed(req.ID)
	return nil
}

// completeNext reports the oldest held request as finished.
func (t *recordingTransport) completeNext() bool {
	t.mu.Lock()
	if len(t.pending) == 0 {
		t.mu.Unlock()
		return false
	}
	id := t.pending[0]
	t.pending = t.pending[1:]
	t.mu.Unlock()
	t.cb.Completed(id)
	return true
}

func (t *recordingTransport) spoken() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.texts...)
}

func testTemplates() []models.ResponseTemplate {
	mk := func(id string, et models.EventType, text string) models.ResponseTemplate {
		return models.ResponseTemplate{
			ID: id, EventType: et, Pattern: models.AnyMatch, Mode: models.AnyMatch,
			ChatterLevel: models.ChatterMinimal, Locale: "en", TextTemplate: text, Active: true,
		}
	}
	return []models.ResponseTemplate{
		mk("start", models.EventWorkoutStart, "Let's begin, {name}."),
		mk("work", models.EventWorkStart, "{exercise}, set {set} of {sets}."),
		mk("rest", models.EventRestStart, "Rest {seconds} seconds."),
		mk("paused", models.EventWorkoutPaused, "Paused."),
		mk("end", models.EventWorkoutEnd, "Workout complete."),
		mk("stopped", models.EventSessionStopped, "Stopping here."),
	}
}

type sessionFixture struct {
	svc       *SessionService
	clk       *clock.Fake
	stores    *memStores
	transport *recordingTransport
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	return newSessionFixtureWith(t, &recordingTransport{}, nil)
}

func newSessionFixtureWith(t *testing.T, tr *recordingTransport, configure func(*Options)) *sessionFixture {
	t.Helper()
	clk := clock.NewFake(testEpoch)
	stores := newMemStores()
	stores.exercises["squat"] = models.Exercise{ID: "squat", Name: "Squat", Cues: []string{"Chest up"}}

	opts := Options{
		Clock:        clk,
		NewTransport: func(string, voice.AudioSink) voice.Transport { return tr },
	}
	if configure != nil {
		configure(&opts)
	}
	repos := stores.repository()
	catalog := NewCatalogService(repos.Exercises, nil)
	workouts := NewWorkoutService(repos.Workouts, catalog, opts)
	bank := coaching.NewBank(clk, nil, nil)
	bank.Replace(testTemplates())

	svc := NewSessionService(repos, workouts, bank, opts)
	t.Cleanup(svc.shutdown)
	return &sessionFixture{svc: svc, clk: clk, stores: stores, transport: tr}
}

func (f *sessionFixture) live(t *testing.T, id string) *liveSession {
	t.Helper()
	f.svc.mu.RLock()
	defer f.svc.mu.RUnlock()
	ls, ok := f.svc.live[id]
	require.True(t, ok, "session %s is not live", id)
	return ls
}

// step advances the fake clock and runs one scheduler tick.
func (f *sessionFixture) step(ls *liveSession, d time.Duration) {
	f.clk.Advance(d)
	ls.scheduler.Tick()
}

func waitDone(t *testing.T, ls *liveSession) {
	t.Helper()
	select {
	case <-ls.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session teardown did not finish")
	}
}

// squatSets is one straight-sets block: work 5s, rest 4s, work 5s.
func squatSets() []models.Block {
	return []models.Block{{
		ID:        "b1",
		Pattern:   models.PatternStraightSets,
		WorkSec:   models.IntPtr(5),
		RestSec:   models.IntPtr(4),
		Sets:      models.IntPtr(2),
		Exercises: []models.ExerciseRef{{ExerciseID: "squat"}},
	}}
}
