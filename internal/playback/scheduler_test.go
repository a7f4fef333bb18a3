package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workout_coach/internal/clock"
	"workout_coach/internal/models"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu  sync.Mutex
	got []Transition
}

func (r *recorder) listen(tr Transition) {
	r.mu.Lock()
	r.got = append(r.got, tr)
	r.mu.Unlock()
}

func (r *recorder) all() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transition, len(r.got))
	copy(out, r.got)
	return out
}

func (r *recorder) steps() [][2]int {
	var out [][2]int
	for _, tr := range r.all() {
		if tr.Kind == KindStep {
			out = append(out, [2]int{tr.From, tr.To})
		}
	}
	return out
}

func step(i int, typ models.StepType, start, end int64) models.Step {
	return models.Step{Index: i, Type: typ, StartMs: start, EndMs: end, Mode: models.ModeTime}
}

func threeSteps() *models.CompiledTimeline {
	return &models.CompiledTimeline{
		Name:    "three",
		TotalMs: 25000,
		Steps: []models.Step{
			step(0, models.StepWork, 0, 10000),
			step(1, models.StepRest, 10000, 15000),
			step(2, models.StepWork, 15000, 25000),
		},
	}
}

func gated() *models.CompiledTimeline {
	return &models.CompiledTimeline{
		Name:    "gated",
		TotalMs: 35000,
		Steps: []models.Step{
			step(0, models.StepWork, 0, 5000),
			step(1, models.StepAwaitReady, 5000, 5000),
			step(2, models.StepWork, 5000, 35000),
		},
	}
}

func startScheduler(t *testing.T, tl *models.CompiledTimeline) (*Scheduler, *clock.Fake, *recorder) {
	t.Helper()
	fake := clock.NewFake(epoch)
	s := New(Config{Clock: fake})
	rec := &recorder{}
	s.Subscribe(rec.listen)
	require.NoError(t, s.Start(context.Background(), tl))
	t.Cleanup(s.Stop)
	return s, fake, rec
}

func TestScheduler_WalksTimeline(t *testing.T) {
	s, fake, rec := startScheduler(t, threeSteps())

	assert.Equal(t, [][2]int{{-1, 0}}, rec.steps())

	fake.Advance(10 * time.Second)
	s.Tick()
	fake.Advance(5 * time.Second)
	s.Tick()
	assert.Equal(t, [][2]int{{-1, 0}, {0, 1}, {1, 2}}, rec.steps())
	assert.Equal(t, models.StatusRunning, s.Status())

	fake.Advance(10 * time.Second)
	s.Tick()
	all := rec.all()
	last := all[len(all)-1]
	assert.Equal(t, KindCompleted, last.Kind)
	assert.Equal(t, 2, last.From)
	require.NotNil(t, last.Left)
	assert.Equal(t, models.StepWork, last.Left.Type)
	assert.Equal(t, models.StatusComplete, s.Status())
}

func TestScheduler_RepeatedTicksDoNotDuplicate(t *testing.T) {
	s, fake, rec := startScheduler(t, threeSteps())

	for i := 0; i < 300; i++ {
		fake.Advance(100 * time.Millisecond)
		s.Tick()
		s.Tick()
	}
	assert.Equal(t, [][2]int{{-1, 0}, {0, 1}, {1, 2}}, rec.steps())

	completed := 0
	for _, tr := range rec.all() {
		if tr.Kind == KindCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestScheduler_PauseConservesElapsed(t *testing.T) {
	s, fake, rec := startScheduler(t, threeSteps())

	fake.Advance(3 * time.Second)
	s.Tick()
	s.Pause()
	before := s.Snapshot()
	assert.Equal(t, models.StatusPaused, before.Status)
	assert.Equal(t, int64(3000), before.ElapsedMs)
	require.NotNil(t, before.PauseStartEpoch)

	fake.Advance(time.Minute)
	s.Tick()
	assert.Equal(t, int64(3000), s.Snapshot().ElapsedMs)

	s.Resume()
	after := s.Snapshot()
	assert.Equal(t, models.StatusRunning, after.Status)
	assert.Equal(t, int64(3000), after.ElapsedMs)
	assert.Equal(t, time.Minute, after.TotalPausedDuration)
	assert.Nil(t, after.PauseStartEpoch)

	var kinds []TransitionKind
	for _, tr := range rec.all() {
		kinds = append(kinds, tr.Kind)
	}
	assert.Equal(t, []TransitionKind{KindStep, KindPaused, KindResumed}, kinds)
}

func TestScheduler_PauseOutsideRunningIsNoop(t *testing.T) {
	s, _, rec := startScheduler(t, threeSteps())
	s.Pause()
	s.Pause()
	s.Resume()
	s.Resume()

	paused, resumed := 0, 0
	for _, tr := range rec.all() {
		switch tr.Kind {
		case KindPaused:
			paused++
		case KindResumed:
			resumed++
		}
	}
	assert.Equal(t, 1, paused)
	assert.Equal(t, 1, resumed)
}

func TestScheduler_AwaitReadyReanchors(t *testing.T) {
	s, fake, rec := startScheduler(t, gated())

	fake.Advance(5 * time.Second)
	s.Tick()
	snap := s.Snapshot()
	assert.Equal(t, models.StatusAwaitingReady, snap.Status)
	assert.True(t, snap.IsAwaitingReady)
	assert.Equal(t, 1, snap.CurrentStepIndex)

	fake.Advance(7 * time.Second)
	s.Tick()
	s.Resume()
	assert.Equal(t, 1, s.Snapshot().CurrentStepIndex, "resume must not release the gate")
	assert.Equal(t, int64(5000), s.Snapshot().ElapsedMs)

	s.ConfirmReady()
	snap = s.Snapshot()
	assert.Equal(t, models.StatusRunning, snap.Status)
	assert.Equal(t, int64(5000), snap.ElapsedMs)
	assert.Equal(t, 2, snap.CurrentStepIndex)
	assert.Equal(t, 7*time.Second, snap.TotalPausedDuration)
	assert.Equal(t, [][2]int{{-1, 0}, {0, 1}, {1, 2}}, rec.steps())
}

func TestScheduler_GateNotSkippedByLargeJump(t *testing.T) {
	s, fake, rec := startScheduler(t, gated())

	fake.Advance(30 * time.Second)
	s.Tick()
	assert.Equal(t, 1, s.Snapshot().CurrentStepIndex)
	assert.Equal(t, models.StatusAwaitingReady, s.Status())
	assert.Equal(t, [][2]int{{-1, 0}, {0, 1}}, rec.steps())
}

func TestScheduler_ConfirmReadyOutsideGateIsNoop(t *testing.T) {
	s, fake, rec := startScheduler(t, threeSteps())
	fake.Advance(2 * time.Second)
	s.Tick()

	before := s.Snapshot()
	s.ConfirmReady()
	after := s.Snapshot()
	assert.Equal(t, before, after)
	assert.Len(t, rec.all(), 1)
}

func TestScheduler_CompleteSet(t *testing.T) {
	tl := &models.CompiledTimeline{
		Steps: []models.Step{
			{Index: 0, Type: models.StepWork, Mode: models.ModeReps, StartMs: 0, EndMs: 30000},
			step(1, models.StepRest, 30000, 40000),
			step(2, models.StepWork, 40000, 50000),
		},
	}
	s, fake, rec := startScheduler(t, tl)

	fake.Advance(4 * time.Second)
	s.Tick()
	assert.True(t, s.CompleteSet())
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.CurrentStepIndex)
	assert.Equal(t, int64(30000), snap.ElapsedMs)
	assert.Equal(t, [][2]int{{-1, 0}, {0, 1}}, rec.steps())

	assert.False(t, s.CompleteSet(), "rest step")
	fake.Advance(10 * time.Second)
	s.Tick()
	assert.False(t, s.CompleteSet(), "time-mode work")
}

func TestScheduler_EmptyTimelineCompletesImmediately(t *testing.T) {
	s, _, rec := startScheduler(t, &models.CompiledTimeline{})
	assert.Equal(t, models.StatusComplete, s.Status())
	all := rec.all()
	require.Len(t, all, 1)
	assert.Equal(t, KindCompleted, all[0].Kind)
	assert.Nil(t, all[0].Left)
}

func TestScheduler_StartErrors(t *testing.T) {
	s := New(Config{Clock: clock.NewFake(epoch)})
	assert.ErrorIs(t, s.Start(context.Background(), nil), ErrNilTimeline)
	require.NoError(t, s.Start(context.Background(), threeSteps()))
	assert.ErrorIs(t, s.Start(context.Background(), threeSteps()), ErrAlreadyStarted)
	s.Stop()
}

func TestScheduler_StopSilencesEverything(t *testing.T) {
	s, fake, rec := startScheduler(t, threeSteps())
	fired := false
	s.ScheduleDelay(2*time.Second, func() { fired = true })

	s.Stop()
	s.Stop()
	fake.Advance(time.Minute)
	s.Tick()
	s.Pause()
	s.Resume()

	assert.False(t, fired)
	assert.Equal(t, 0, fake.Pending())
	assert.Len(t, rec.all(), 1)
	assert.Equal(t, models.StatusStopped, s.Status())

	s.ScheduleDelay(time.Second, func() { fired = true })
	assert.Equal(t, 0, s.PendingDelays())
}

func TestScheduler_StopFromListenerHaltsDispatch(t *testing.T) {
	tl := &models.CompiledTimeline{
		Steps: []models.Step{
			step(0, models.StepWork, 0, 1000),
			step(1, models.StepWork, 1000, 2000),
		},
	}
	fake := clock.NewFake(epoch)
	s := New(Config{Clock: fake})
	rec := &recorder{}
	s.Subscribe(func(tr Transition) {
		rec.listen(tr)
		if tr.To == 1 {
			s.Stop()
		}
	})
	require.NoError(t, s.Start(context.Background(), tl))

	fake.Advance(2500 * time.Millisecond)
	s.Tick()
	for _, tr := range rec.all() {
		assert.NotEqual(t, KindCompleted, tr.Kind)
	}
	assert.Equal(t, models.StatusStopped, s.Status())
}

func TestScheduler_StopDuringListenerSkipsRemainingListeners(t *testing.T) {
	fake := clock.NewFake(epoch)
	s := New(Config{Clock: fake})

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	s.Subscribe(func(tr Transition) {
		if tr.To == 1 {
			once.Do(func() { close(entered) })
			<-release
		}
	})
	second := &recorder{}
	s.Subscribe(second.listen)
	require.NoError(t, s.Start(context.Background(), threeSteps()))
	require.Len(t, second.all(), 1)

	fake.Advance(11 * time.Second)
	ticked := make(chan struct{})
	go func() {
		s.Tick()
		close(ticked)
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first listener never saw the rest step")
	}
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked behind a running listener")
	}

	close(release)
	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("tick did not return")
	}

	assert.Len(t, second.all(), 1, "second listener got a transition after Stop returned")
	assert.Equal(t, models.StatusStopped, s.Status())
}

func TestScheduler_StepTransitionsCarryTimeline(t *testing.T) {
	s, fake, rec := startScheduler(t, threeSteps())

	fake.Advance(16 * time.Second)
	s.Tick()

	all := rec.all()
	last := all[len(all)-1]
	assert.Equal(t, KindStep, last.Kind)
	assert.Equal(t, 0, last.From)
	assert.Equal(t, 2, last.To)
	require.Len(t, last.Steps, 3)
	assert.Equal(t, models.StepRest, last.Steps[1].Type)
}

func TestScheduler_UnsubscribeIsIdempotent(t *testing.T) {
	fake := clock.NewFake(epoch)
	s := New(Config{Clock: fake})
	a, b := &recorder{}, &recorder{}
	unsubA := s.Subscribe(a.listen)
	s.Subscribe(b.listen)

	unsubA()
	unsubA()
	require.NoError(t, s.Start(context.Background(), threeSteps()))
	defer s.Stop()

	assert.Empty(t, a.all())
	assert.Len(t, b.all(), 1)
}

func TestScheduler_DriftResyncForward(t *testing.T) {
	fake := clock.NewFake(epoch)
	s := New(Config{Clock: fake})
	s.locate = func(_ []models.Step, from, _ int, _ int64) int { return from }
	rec := &recorder{}
	s.Subscribe(rec.listen)
	require.NoError(t, s.Start(context.Background(), threeSteps()))
	defer s.Stop()

	// Stuck scan: the step never changes until the drift check runs.
	fake.Advance(12 * time.Second)
	s.Tick()
	assert.Equal(t, -1, s.Snapshot().CurrentStepIndex)

	fake.Advance(4 * time.Second)
	s.Tick()
	all := rec.all()
	require.Len(t, all, 1)
	assert.True(t, all[0].Resync)
	assert.Equal(t, 2, all[0].To)
}

func TestScheduler_DriftBackwardIsSilent(t *testing.T) {
	s, fake, rec := startScheduler(t, threeSteps())

	fake.Advance(16 * time.Second)
	s.Tick()
	assert.Equal(t, 2, s.Snapshot().CurrentStepIndex)
	n := len(rec.all())

	fake.Set(epoch.Add(12 * time.Second))
	s.Tick()
	assert.Equal(t, 1, s.Snapshot().CurrentStepIndex)

	fake.Advance(4 * time.Second)
	s.Tick()
	assert.Equal(t, 2, s.Snapshot().CurrentStepIndex)
	assert.Len(t, rec.all(), n, "re-entered steps are not reported again")
}

func TestScheduler_TickPanicRecovered(t *testing.T) {
	s, fake, _ := startScheduler(t, threeSteps())
	s.locate = func([]models.Step, int, int, int64) int { panic("boom") }

	fake.Advance(11 * time.Second)
	assert.NotPanics(t, s.Tick)
	assert.Equal(t, models.StatusRunning, s.Status())
}

func TestScheduler_ListenerPanicRecovered(t *testing.T) {
	fake := clock.NewFake(epoch)
	s := New(Config{Clock: fake})
	rec := &recorder{}
	s.Subscribe(func(Transition) { panic("listener") })
	s.Subscribe(rec.listen)

	assert.NotPanics(t, func() {
		require.NoError(t, s.Start(context.Background(), threeSteps()))
	})
	defer s.Stop()
	assert.Len(t, rec.all(), 1)
}

func TestScheduler_Delays(t *testing.T) {
	s, fake, _ := startScheduler(t, threeSteps())

	var fired []string
	s.ScheduleDelay(3*time.Second, func() { fired = append(fired, "a") })
	cancelB := s.ScheduleDelay(2*time.Second, func() { fired = append(fired, "b") })
	s.ScheduleDelay(time.Second, func() { fired = append(fired, "c") })
	assert.Equal(t, 3, s.PendingDelays())

	cancelB()
	cancelB()
	fake.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"c"}, fired)

	s.CancelDelays()
	fake.Advance(5 * time.Second)
	assert.Equal(t, []string{"c"}, fired)
	assert.Equal(t, 0, s.PendingDelays())
}
