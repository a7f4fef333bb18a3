// Package playback drives a compiled timeline against wall-clock time.
package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"workout_coach/internal/clock"
	"workout_coach/internal/logger"
	"workout_coach/internal/models"
)

const (
	DefaultTickPeriod         = 100 * time.Millisecond
	DefaultDriftCheckInterval = 15 * time.Second
)

var (
	ErrAlreadyStarted = errors.New("scheduler already started")
	ErrNilTimeline    = errors.New("timeline is nil")
)

// Config configures a Scheduler. Zero values take the defaults.
type Config struct {
	TickPeriod         time.Duration
	DriftCheckInterval time.Duration
	Clock              clock.Clock
	Log                *logger.Logger
}

type listenerEntry struct {
	id int
	fn Listener
}

// Scheduler owns the playback state of one session. All exported methods are
// safe for concurrent use; transitions are delivered to listeners in order.
type Scheduler struct {
	clock      clock.Clock
	log        *logger.Logger
	tickPeriod time.Duration
	driftEvery int64 // ms of elapsed time between drift checks

	// emitMu serializes compute+dispatch so listeners see transitions in order.
	emitMu sync.Mutex

	mu          sync.Mutex
	timeline    *models.CompiledTimeline
	status      models.SchedulerStatus
	startEpoch  time.Time
	pausedTotal time.Duration
	pauseStart  *time.Time
	index       int
	highWater   int
	lastDriftMs int64
	stopLoop    context.CancelFunc

	listeners []listenerEntry
	nextID    int

	delays    map[int]clock.Timer
	nextDelay int

	// locate is swappable so tests can simulate a failing tick.
	locate func(steps []models.Step, from, highWater int, elapsed int64) int
}

// New returns an idle scheduler.
func New(cfg Config) *Scheduler {
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = DefaultTickPeriod
	}
	if cfg.DriftCheckInterval <= 0 {
		cfg.DriftCheckInterval = DefaultDriftCheckInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &Scheduler{
		clock:      cfg.Clock,
		log:        logger.OrNop(cfg.Log),
		tickPeriod: cfg.TickPeriod,
		driftEvery: cfg.DriftCheckInterval.Milliseconds(),
		status:     models.StatusIdle,
		index:      -1,
		highWater:  -1,
		delays:     make(map[int]clock.Timer),
		locate:     locateStep,
	}
}

// Start begins playback of tl and starts the periodic tick. The tick loop
// ends when ctx is canceled, on Stop, or on completion.
func (s *Scheduler) Start(ctx context.Context, tl *models.CompiledTimeline) error {
	if tl == nil {
		return ErrNilTimeline
	}
	s.mu.Lock()
	if s.status != models.StatusIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.timeline = tl
	s.startEpoch = s.clock.Now()
	s.pausedTotal = 0
	s.pauseStart = nil
	s.index = -1
	s.highWater = -1
	s.lastDriftMs = 0
	s.status = models.StatusRunning
	s.stopLoop = cancel
	ticker := s.clock.NewTicker(s.tickPeriod)
	s.mu.Unlock()

	go s.run(loopCtx, ticker)
	s.Tick()
	return nil
}

func (s *Scheduler) run(ctx context.Context, ticker clock.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.Tick()
		}
	}
}

// Tick advances playback to the current wall-clock position. It is called by
// the periodic loop and may be called directly.
func (s *Scheduler) Tick() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.dispatch(s.advance())
}

func (s *Scheduler) advance() (out []Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.log.Warnw("scheduler_tick_failed", "panic", r, "index", s.index)
			out = nil
		}
	}()

	if s.status != models.StatusRunning {
		return nil
	}
	now := s.clock.Now()
	elapsed := s.elapsedLocked(now)
	steps := s.timeline.Steps

	if target := s.locate(steps, s.index, s.highWater, elapsed); target != s.index {
		if tr, ok := s.moveLocked(target, elapsed, now, false); ok {
			out = append(out, tr)
		}
	}
	if s.status == models.StatusRunning {
		if tr, ok := s.checkDriftLocked(elapsed, now); ok {
			out = append(out, tr)
		}
	}

	if s.status == models.StatusRunning && s.finishedLocked(elapsed) {
		s.status = models.StatusComplete
		if s.stopLoop != nil {
			s.stopLoop()
		}
		tr := Transition{Kind: KindCompleted, From: s.index, To: -1, ElapsedMs: elapsed, At: now, Steps: steps}
		if s.index >= 0 {
			left := steps[s.index]
			tr.Left = &left
		}
		out = append(out, tr)
	}
	return out
}

// moveLocked sets the current index and reports whether listeners should be
// told. Indices at or below the high-water mark were already reported.
func (s *Scheduler) moveLocked(target int, elapsed int64, now time.Time, resync bool) (Transition, bool) {
	from := s.index
	s.index = target
	if target <= s.highWater {
		return Transition{}, false
	}
	s.highWater = target

	steps := s.timeline.Steps
	tr := Transition{Kind: KindStep, From: from, To: target, ElapsedMs: elapsed, At: now, Resync: resync, Steps: steps}
	if from >= 0 {
		left := steps[from]
		tr.Left = &left
	}
	if target >= 0 {
		entered := steps[target]
		tr.Entered = &entered
		if entered.Type == models.StepAwaitReady {
			s.status = models.StatusAwaitingReady
			s.pauseStart = &now
		}
	}
	return tr, true
}

func (s *Scheduler) checkDriftLocked(elapsed int64, now time.Time) (Transition, bool) {
	// A clock that moved backwards is checked right away.
	if elapsed >= s.lastDriftMs && elapsed-s.lastDriftMs < s.driftEvery {
		return Transition{}, false
	}
	s.lastDriftMs = elapsed

	expected := expectedStep(s.timeline.Steps, s.highWater, elapsed)
	if expected == s.index {
		return Transition{}, false
	}
	s.log.Warnw("drift_corrected", "from", s.index, "to", expected, "elapsed_ms", elapsed)
	return s.moveLocked(expected, elapsed, now, true)
}

func (s *Scheduler) finishedLocked(elapsed int64) bool {
	steps := s.timeline.Steps
	if len(steps) == 0 {
		return true
	}
	if s.index != len(steps)-1 {
		return false
	}
	last := steps[s.index]
	return last.Type != models.StepAwaitReady && elapsed >= last.EndMs
}

func (s *Scheduler) elapsedLocked(now time.Time) int64 {
	d := now.Sub(s.startEpoch) - s.pausedTotal
	if s.pauseStart != nil {
		d -= now.Sub(*s.pauseStart)
	}
	return d.Milliseconds()
}

func (s *Scheduler) dispatch(trs []Transition) {
	for _, tr := range trs {
		s.mu.Lock()
		if s.status == models.StatusStopped {
			s.mu.Unlock()
			return
		}
		ls := make([]listenerEntry, len(s.listeners))
		copy(ls, s.listeners)
		s.mu.Unlock()

		for _, l := range ls {
			// A listener may stop the scheduler, or Stop may land while one
			// runs; nothing is delivered after that.
			if s.Status() == models.StatusStopped {
				return
			}
			s.callListener(l.fn, tr)
		}
	}
}

func (s *Scheduler) callListener(fn Listener, tr Transition) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("scheduler_listener_panicked", "panic", r, "kind", tr.Kind, "to", tr.To)
		}
	}()
	fn(tr)
}

// emit delivers a single lifecycle transition under the ordering lock.
func (s *Scheduler) emit(tr Transition) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.dispatch([]Transition{tr})
}

// Pause freezes elapsed time. It is a no-op unless the scheduler is running.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	if s.status != models.StatusRunning {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	s.pauseStart = &now
	s.status = models.StatusPaused
	tr := Transition{Kind: KindPaused, From: s.index, To: s.index, ElapsedMs: s.elapsedLocked(now), At: now}
	s.mu.Unlock()

	s.emit(tr)
}

// Resume continues after Pause. It does not release an await-ready gate;
// only ConfirmReady does.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	if s.status != models.StatusPaused {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	s.pausedTotal += now.Sub(*s.pauseStart)
	s.pauseStart = nil
	s.status = models.StatusRunning
	tr := Transition{Kind: KindResumed, From: s.index, To: s.index, ElapsedMs: s.elapsedLocked(now), At: now}
	s.mu.Unlock()

	s.emit(tr)
	s.Tick()
}

// ConfirmReady releases an await-ready gate and re-anchors the timeline so
// that elapsed equals the gate's offset at this instant. The following step
// is entered immediately. Outside AwaitingReady it does nothing.
func (s *Scheduler) ConfirmReady() {
	s.mu.Lock()
	if s.status != models.StatusAwaitingReady {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	gate := s.timeline.Steps[s.index]
	s.pausedTotal += now.Sub(*s.pauseStart)
	s.pauseStart = nil
	s.startEpoch = now.Add(-s.pausedTotal - time.Duration(gate.StartMs)*time.Millisecond)
	s.status = models.StatusRunning
	s.mu.Unlock()

	s.Tick()
}

// CompleteSet ends a rep-mode work step early by re-anchoring the timeline
// forward to the step's end. It reports whether anything changed; time-mode
// work and non-work steps are left alone.
func (s *Scheduler) CompleteSet() bool {
	s.mu.Lock()
	if s.status != models.StatusRunning || s.index < 0 {
		s.mu.Unlock()
		return false
	}
	step := s.timeline.Steps[s.index]
	if step.Type != models.StepWork || step.Mode != models.ModeReps {
		s.mu.Unlock()
		return false
	}
	now := s.clock.Now()
	if skip := step.EndMs - s.elapsedLocked(now); skip > 0 {
		s.startEpoch = s.startEpoch.Add(-time.Duration(skip) * time.Millisecond)
	}
	s.mu.Unlock()

	s.Tick()
	return true
}

// Stop cancels the tick loop and every pending delay. No transition is
// delivered after Stop returns. Stop is terminal and idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.status == models.StatusStopped {
		s.mu.Unlock()
		return
	}
	s.status = models.StatusStopped
	if s.stopLoop != nil {
		s.stopLoop()
	}
	s.mu.Unlock()

	s.CancelDelays()
}

// Subscribe registers l and returns an idempotent unsubscribe function.
func (s *Scheduler) Subscribe(l Listener) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, e := range s.listeners {
				if e.id == id {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Snapshot returns a copy of the scheduler state at the current instant.
func (s *Scheduler) Snapshot() models.SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.SchedulerState{
		Status:              s.status,
		StartEpoch:          s.startEpoch,
		TotalPausedDuration: s.pausedTotal,
		CurrentStepIndex:    s.index,
		IsAwaitingReady:     s.status == models.StatusAwaitingReady,
	}
	if s.pauseStart != nil {
		ps := *s.pauseStart
		st.PauseStartEpoch = &ps
	}
	if s.status == models.StatusIdle {
		return st
	}
	st.ElapsedMs = s.elapsedLocked(s.clock.Now())
	if s.index >= 0 {
		if rem := s.timeline.Steps[s.index].EndMs - st.ElapsedMs; rem > 0 {
			st.RemainingInStepMs = rem
		}
	}
	return st
}

// Timeline returns the timeline being played, or nil before Start.
func (s *Scheduler) Timeline() *models.CompiledTimeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline
}

// Status returns the current state machine position.
func (s *Scheduler) Status() models.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
