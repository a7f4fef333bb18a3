package coaching

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workout_coach/internal/clock"
	"workout_coach/internal/models"
	"workout_coach/internal/playback"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type eventLog struct {
	mu  sync.Mutex
	evs []models.CoachingEvent
}

func (l *eventLog) add(ev models.CoachingEvent) {
	l.mu.Lock()
	l.evs = append(l.evs, ev)
	l.mu.Unlock()
}

func (l *eventLog) types() []models.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.EventType, len(l.evs))
	for i, ev := range l.evs {
		out[i] = ev.Type
	}
	return out
}

func mkStep(i int, typ models.StepType, start, end int64, ex string) models.Step {
	return models.Step{Index: i, Type: typ, StartMs: start, EndMs: end, ExerciseID: ex, ExerciseName: ex, Mode: models.ModeTime, Pattern: models.PatternSuperset}
}

func sampleTimeline() *models.CompiledTimeline {
	return &models.CompiledTimeline{Steps: []models.Step{
		mkStep(0, models.StepWork, 0, 10000, "squat"),
		{Index: 1, Type: models.StepRest, StartMs: 10000, EndMs: 15000, NextExerciseName: "press"},
		mkStep(2, models.StepWork, 15000, 25000, "press"),
	}}
}

func run(t *testing.T, tl *models.CompiledTimeline) (*playback.Scheduler, *clock.Fake, *Router, *eventLog) {
	t.Helper()
	fake := clock.NewFake(t0)
	s := playback.New(playback.Config{Clock: fake})
	r := NewRouter("sess-1", nil)
	r.Attach(s)
	log := &eventLog{}
	r.Subscribe(log.add)
	require.NoError(t, s.Start(context.Background(), tl))
	t.Cleanup(s.Stop)
	return s, fake, r, log
}

func TestRouter_FullWorkout(t *testing.T) {
	s, fake, r, log := run(t, sampleTimeline())

	for i := 0; i < 260; i++ {
		fake.Advance(100 * time.Millisecond)
		s.Tick()
	}

	assert.Equal(t, []models.EventType{
		models.EventWorkoutStart,
		models.EventWorkStart,
		models.EventWorkEnd,
		models.EventRestStart,
		models.EventRestEnd,
		models.EventWorkStart,
		models.EventWorkEnd,
		models.EventWorkoutEnd,
	}, log.types())
	assert.True(t, r.Finished())

	log.mu.Lock()
	defer log.mu.Unlock()
	assert.Equal(t, "squat", log.evs[1].Payload.ExerciseID)
	assert.Equal(t, int64(10000), log.evs[1].Payload.DurationMs)
	assert.Equal(t, "squat", log.evs[2].Payload.ExerciseID)
	assert.Equal(t, "press", log.evs[3].Payload.NextExerciseName)
	assert.Equal(t, "sess-1", log.evs[7].SessionID)
	assert.Equal(t, int64(25000), log.evs[7].Payload.DurationMs)
}

func TestRouter_JumpReportsEverySkippedBoundary(t *testing.T) {
	tl := &models.CompiledTimeline{Steps: []models.Step{
		mkStep(0, models.StepWork, 0, 10000, "squat"),
		{Index: 1, Type: models.StepRest, StartMs: 10000, EndMs: 15000},
		mkStep(2, models.StepWork, 15000, 25000, "press"),
		{Index: 3, Type: models.StepRest, StartMs: 25000, EndMs: 30000},
		mkStep(4, models.StepWork, 30000, 40000, "row"),
	}}
	s, fake, _, log := run(t, tl)

	fake.Advance(31 * time.Second)
	s.Tick()

	assert.Equal(t, []models.EventType{
		models.EventWorkoutStart,
		models.EventWorkStart,
		models.EventWorkEnd,
		models.EventRestStart,
		models.EventRestEnd,
		models.EventWorkStart,
		models.EventWorkEnd,
		models.EventRestStart,
		models.EventRestEnd,
		models.EventWorkStart,
	}, log.types())

	log.mu.Lock()
	var indices []int
	var exercises []string
	for i, ev := range log.evs[1:] {
		indices = append(indices, ev.Payload.StepIndex)
		if ev.Type == models.EventWorkStart || ev.Type == models.EventWorkEnd {
			exercises = append(exercises, ev.Payload.ExerciseID)
		}
		if i > 0 {
			assert.Equal(t, int64(31000), ev.Payload.ElapsedMs)
		}
	}
	log.mu.Unlock()
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2, 3, 3, 4}, indices)
	assert.Equal(t, []string{"squat", "squat", "press", "press", "row"}, exercises)

	// Later ticks inside the same step add nothing.
	fake.Advance(time.Second)
	s.Tick()
	assert.Len(t, log.types(), 10)
}

func TestRouter_JumpToEndClosesEveryStep(t *testing.T) {
	s, fake, r, log := run(t, sampleTimeline())

	fake.Advance(30 * time.Second)
	s.Tick()

	assert.Equal(t, []models.EventType{
		models.EventWorkoutStart,
		models.EventWorkStart,
		models.EventWorkEnd,
		models.EventRestStart,
		models.EventRestEnd,
		models.EventWorkStart,
		models.EventWorkEnd,
		models.EventWorkoutEnd,
	}, log.types())
	assert.True(t, r.Finished())
}

func TestRouter_NoDuplicatesForReplayedTransitions(t *testing.T) {
	r := NewRouter("s", nil)
	log := &eventLog{}
	r.Subscribe(log.add)

	tl := sampleTimeline()
	enter := func(from, to int) playback.Transition {
		tr := playback.Transition{Kind: playback.KindStep, From: from, To: to}
		if from >= 0 {
			tr.Left = &tl.Steps[from]
		}
		tr.Entered = &tl.Steps[to]
		return tr
	}

	r.Handle(enter(-1, 0))
	r.Handle(enter(0, 1))
	r.Handle(enter(0, 1))
	tr := enter(-1, 1)
	tr.Resync = true
	r.Handle(tr)

	assert.Equal(t, []models.EventType{
		models.EventWorkoutStart,
		models.EventWorkStart,
		models.EventWorkEnd,
		models.EventRestStart,
	}, log.types())
}

func TestRouter_PauseResumeAndGate(t *testing.T) {
	tl := &models.CompiledTimeline{Steps: []models.Step{
		mkStep(0, models.StepAwaitReady, 0, 0, "squat"),
		mkStep(1, models.StepWork, 0, 10000, "squat"),
	}}
	s, fake, _, log := run(t, tl)

	assert.Equal(t, []models.EventType{models.EventWorkoutStart, models.EventAwaitReady}, log.types())

	fake.Advance(3 * time.Second)
	s.ConfirmReady()
	s.Pause()
	s.Resume()

	assert.Equal(t, []models.EventType{
		models.EventWorkoutStart,
		models.EventAwaitReady,
		models.EventWorkStart,
		models.EventWorkoutPaused,
		models.EventWorkoutResumed,
	}, log.types())
}

func TestRouter_StopEmitsOnce(t *testing.T) {
	s, _, r, log := run(t, sampleTimeline())
	s.Stop()

	assert.True(t, r.Stop(t0, 1200))
	assert.False(t, r.Stop(t0, 1300))

	types := log.types()
	assert.Equal(t, models.EventSessionStopped, types[len(types)-1])
	assert.Len(t, types, 3)
}

func TestRouter_StopAfterEndIsSilent(t *testing.T) {
	s, fake, r, log := run(t, sampleTimeline())
	fake.Advance(30 * time.Second)
	s.Tick()

	n := len(log.types())
	assert.False(t, r.Stop(t0, 30000))
	assert.Len(t, log.types(), n)
}

func TestRouter_Unsubscribe(t *testing.T) {
	r := NewRouter("s", nil)
	log := &eventLog{}
	unsub := r.Subscribe(log.add)
	unsub()
	unsub()
	r.Stop(t0, 0)
	assert.Empty(t, log.types())
}
