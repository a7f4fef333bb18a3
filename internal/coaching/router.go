// Package coaching turns scheduler transitions into coaching events and
// picks the line to speak for each of them.
package coaching

import (
	"sync"
	"time"

	"workout_coach/internal/logger"
	"workout_coach/internal/models"
	"workout_coach/internal/playback"
)

// EventListener receives coaching events in boundary order.
type EventListener func(models.CoachingEvent)

type eventListenerEntry struct {
	id int
	fn EventListener
}

// Router synthesizes one coaching event per step boundary. It remembers the
// highest boundary already reported on each side (enter and leave) and only
// reports forward progress. A forward jump reports every skipped boundary
// once; a backward jump reports nothing.
type Router struct {
	sessionID string
	log       *logger.Logger

	emitMu sync.Mutex

	mu          sync.Mutex
	lastEntered int
	lastLeft    int
	finished    bool
	listeners   []eventListenerEntry
	nextID      int
}

func NewRouter(sessionID string, log *logger.Logger) *Router {
	return &Router{
		sessionID:   sessionID,
		log:         logger.OrNop(log),
		lastEntered: -1,
		lastLeft:    -1,
	}
}

// Attach subscribes the router to s. The returned function detaches it.
func (r *Router) Attach(s *playback.Scheduler) func() {
	return s.Subscribe(r.Handle)
}

// Subscribe registers l and returns an idempotent unsubscribe function.
func (r *Router) Subscribe(l EventListener) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, eventListenerEntry{id: id, fn: l})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, e := range r.listeners {
				if e.id == id {
					r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Handle translates one scheduler transition and delivers the resulting
// events.
func (r *Router) Handle(tr playback.Transition) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	events := r.translateLocked(tr)
	r.mu.Unlock()

	r.deliver(events)
}

// Stop emits session_stopped unless the workout already ended, and closes the
// router. It reports whether the event was emitted.
func (r *Router) Stop(at time.Time, elapsedMs int64) bool {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return false
	}
	r.finished = true
	step := r.lastEntered
	r.mu.Unlock()

	r.deliver([]models.CoachingEvent{{
		Type:       models.EventSessionStopped,
		SessionID:  r.sessionID,
		OccurredAt: at,
		Payload:    models.EventPayload{StepIndex: step, ElapsedMs: elapsedMs},
	}})
	return true
}

// Finished reports whether workout_end or session_stopped was emitted.
func (r *Router) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

func (r *Router) translateLocked(tr playback.Transition) []models.CoachingEvent {
	if r.finished {
		return nil
	}
	var out []models.CoachingEvent
	mk := func(t models.EventType, st *models.Step) models.CoachingEvent {
		ev := models.CoachingEvent{Type: t, SessionID: r.sessionID, OccurredAt: tr.At}
		if st != nil {
			ev.Payload = payloadFor(st)
		} else {
			ev.Payload.StepIndex = tr.To
		}
		ev.Payload.ElapsedMs = tr.ElapsedMs
		return ev
	}

	switch tr.Kind {
	case playback.KindStep:
		if tr.Entered != nil {
			out = r.catchUpLocked(tr, tr.To, mk, out)
		} else if tr.Left != nil && tr.From > r.lastLeft {
			r.lastLeft = tr.From
			if t, ok := leaveEvent(tr.Left.Type); ok {
				out = append(out, mk(t, tr.Left))
			}
		}
		if tr.Resync {
			r.log.Debugw("router_resync", "session_id", r.sessionID, "from", tr.From, "to", tr.To)
		}

	case playback.KindPaused:
		out = append(out, mk(models.EventWorkoutPaused, tr.Entered))
	case playback.KindResumed:
		out = append(out, mk(models.EventWorkoutResumed, tr.Entered))

	case playback.KindCompleted:
		if tr.From >= 0 {
			out = r.catchUpLocked(tr, tr.From, mk, out)
		}
		if st := stepAt(tr, tr.From); st != nil && tr.From > r.lastLeft {
			r.lastLeft = tr.From
			if t, ok := leaveEvent(st.Type); ok {
				out = append(out, mk(t, st))
			}
		}
		end := mk(models.EventWorkoutEnd, nil)
		end.Payload.StepIndex = tr.From
		end.Payload.DurationMs = tr.ElapsedMs
		out = append(out, end)
		r.finished = true
	}
	return out
}

// catchUpLocked reports every boundary between the last entered step and to.
// A jump over several steps still leaves and enters each one in order.
func (r *Router) catchUpLocked(tr playback.Transition, to int, mk func(models.EventType, *models.Step) models.CoachingEvent, out []models.CoachingEvent) []models.CoachingEvent {
	for i := r.lastEntered + 1; i <= to; i++ {
		if prev := i - 1; prev >= 0 && prev > r.lastLeft {
			r.lastLeft = prev
			if st := stepAt(tr, prev); st != nil {
				if t, ok := leaveEvent(st.Type); ok {
					out = append(out, mk(t, st))
				}
			}
		}
		st := stepAt(tr, i)
		if r.lastEntered < 0 && st != nil {
			out = append(out, mk(models.EventWorkoutStart, st))
		}
		r.lastEntered = i
		if st == nil {
			continue
		}
		if t, ok := enterEvent(st.Type); ok {
			out = append(out, mk(t, st))
		}
	}
	return out
}

// stepAt resolves step i from the transition's timeline, falling back to the
// endpoint copies when no timeline is attached.
func stepAt(tr playback.Transition, i int) *models.Step {
	switch {
	case i >= 0 && i < len(tr.Steps):
		return &tr.Steps[i]
	case i == tr.To && tr.Entered != nil:
		return tr.Entered
	case i == tr.From && tr.Left != nil:
		return tr.Left
	}
	return nil
}

func (r *Router) deliver(events []models.CoachingEvent) {
	if len(events) == 0 {
		return
	}
	r.mu.Lock()
	ls := make([]eventListenerEntry, len(r.listeners))
	copy(ls, r.listeners)
	r.mu.Unlock()

	for _, ev := range events {
		for _, l := range ls {
			r.call(l.fn, ev)
		}
	}
}

func (r *Router) call(fn EventListener, ev models.CoachingEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorw("router_listener_panicked", "panic", rec, "event", ev.Type)
		}
	}()
	fn(ev)
}

// Transitions between blocks are spoken like rests.
func enterEvent(t models.StepType) (models.EventType, bool) {
	switch t {
	case models.StepWork:
		return models.EventWorkStart, true
	case models.StepRest, models.StepTransition:
		return models.EventRestStart, true
	case models.StepAwaitReady:
		return models.EventAwaitReady, true
	}
	return "", false
}

func leaveEvent(t models.StepType) (models.EventType, bool) {
	switch t {
	case models.StepWork:
		return models.EventWorkEnd, true
	case models.StepRest, models.StepTransition:
		return models.EventRestEnd, true
	}
	return "", false
}

func payloadFor(st *models.Step) models.EventPayload {
	return models.EventPayload{
		StepIndex:        st.Index,
		BlockID:          st.BlockID,
		Pattern:          string(st.Pattern),
		Mode:             string(st.Mode),
		ExerciseID:       st.ExerciseID,
		ExerciseName:     st.ExerciseName,
		NextExerciseID:   st.NextExerciseID,
		NextExerciseName: st.NextExerciseName,
		Set:              st.Set,
		Sets:             st.Sets,
		Round:            st.Round,
		Rounds:           st.Rounds,
		TargetReps:       st.TargetReps,
		DurationMs:       st.DurationMs(),
		Cue:              st.Cue,
	}
}
