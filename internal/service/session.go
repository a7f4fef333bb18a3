package service

import (
	"sync"
	"time"

	"workout_coach/internal/clock"
	"workout_coach/internal/coaching"
	"workout_coach/internal/logger"
	"workout_coach/internal/models"
	"workout_coach/internal/playback"
	"workout_coach/internal/voice"
)

// countdownFrom is the number of countdown beeps before a step ends.
const countdownFrom = 3

// liveSession wires one scheduler, router and voice gate together. Coaching
// events flow scheduler -> router -> onEvent, which persists them, picks a
// line for the gate and publishes stream messages.
type liveSession struct {
	id       string
	settings models.CoachSettings
	vars     map[string]string
	timeline *models.CompiledTimeline

	scheduler *playback.Scheduler
	router    *coaching.Router
	gate      *voice.Gate
	bank      *coaching.Bank
	hub       *Hub
	events    *eventWriter
	clock     clock.Clock
	log       *logger.Logger

	// onFinished is called after workout_end and must not block.
	onFinished func(*liveSession, models.SchedulerStatus)

	mu        sync.Mutex
	record    models.SessionRecord
	finishing bool
	done      chan struct{}
}

func (s *liveSession) selection() coaching.SelectionContext {
	return coaching.SelectionContext{
		ChatterLevel: s.settings.ChatterLevel,
		Locale:       s.settings.Locale,
		Vars:         s.vars,
	}
}

func (s *liveSession) onEvent(ev models.CoachingEvent) {
	s.hub.Publish(StreamMessage{Type: StreamEvent, SessionID: s.id, At: ev.OccurredAt, Event: &ev})
	s.cueBeeps(ev)

	rec := models.EventRecord{
		SessionID:  s.id,
		OccurredAt: ev.OccurredAt,
		Type:       string(ev.Type),
		Metadata:   map[string]any{"payload": ev.Payload},
	}
	if u, ok := s.bank.Select(ev, s.selection()); ok {
		rec.Description = u.Text
		rec.Metadata = map[string]any{"payload": ev.Payload, "template_id": u.TemplateID}
		s.hub.Publish(StreamMessage{
			Type:      StreamCaption,
			SessionID: s.id,
			At:        ev.OccurredAt,
			Caption:   &Caption{TemplateID: u.TemplateID, EventType: string(ev.Type), Text: u.Text},
		})
		s.gate.Request(voice.Request{
			SessionID: s.id,
			EventName: string(ev.Type),
			Text:      u.Text,
			Payload:   ev.Payload,
		})
	}
	s.events.Enqueue(rec)

	if ev.Type == models.EventWorkoutEnd && s.onFinished != nil {
		s.onFinished(s, models.StatusComplete)
	}
}

func (s *liveSession) cueBeeps(ev models.CoachingEvent) {
	switch ev.Type {
	case models.EventWorkStart:
		s.beep(BeepStart, 0)
		s.scheduleCountdown(ev.Payload.StepIndex, ev.Payload.ElapsedMs)
	case models.EventRestStart:
		s.scheduleCountdown(ev.Payload.StepIndex, ev.Payload.ElapsedMs)
	case models.EventWorkEnd:
		s.scheduler.CancelDelays()
		s.beep(BeepEnd, 0)
	case models.EventRestEnd, models.EventWorkoutPaused, models.EventSessionStopped:
		s.scheduler.CancelDelays()
	case models.EventWorkoutEnd:
		s.scheduler.CancelDelays()
		s.beep(BeepEnd, 0)
	case models.EventWorkoutResumed:
		st := s.scheduler.Snapshot()
		s.scheduleCountdown(st.CurrentStepIndex, st.ElapsedMs)
	}
}

// scheduleCountdown arms the beeps 3, 2 and 1 seconds before the end of the
// work or rest step at idx, as seen from elapsedMs.
func (s *liveSession) scheduleCountdown(idx int, elapsedMs int64) {
	if idx < 0 || idx >= len(s.timeline.Steps) {
		return
	}
	step := s.timeline.Steps[idx]
	if step.Type != models.StepWork && step.Type != models.StepRest {
		return
	}
	if step.DurationMs() < countdownFrom*1000 {
		return
	}
	remaining := step.EndMs - elapsedMs
	for n := countdownFrom; n >= 1; n-- {
		n := n
		wait := remaining - int64(n)*1000
		if wait < 0 {
			continue
		}
		s.scheduler.ScheduleDelay(time.Duration(wait)*time.Millisecond, func() {
			s.beep(BeepCountdown, n)
		})
	}
}

func (s *liveSession) beep(kind BeepKind, n int) {
	s.hub.Publish(StreamMessage{Type: StreamBeep, SessionID: s.id, At: s.clock.Now(), Beep: kind, Countdown: n})
}

// onAudio is the voice transport's audio sink.
func (s *liveSession) onAudio(req voice.Request, audio []byte, contentType string) {
	s.hub.Publish(StreamMessage{
		Type:      StreamAudio,
		SessionID: s.id,
		At:        s.clock.Now(),
		Audio:     &AudioChunk{RequestID: req.ID, ContentType: contentType, Data: audio},
	})
}

// markFinishing reports whether the caller is the first to finish s.
func (s *liveSession) markFinishing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finishing {
		return false
	}
	s.finishing = true
	return true
}

// snapshotRecord returns the session record updated from st.
func (s *liveSession) snapshotRecord(st models.SchedulerState, now time.Time) models.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.Status = st.Status
	s.record.ElapsedMs = st.ElapsedMs
	s.record.UpdatedAt = now.UTC()
	return s.record
}

// finalRecord closes the record with status.
func (s *liveSession) finalRecord(status models.SchedulerStatus, elapsedMs int64, now time.Time) models.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := now.UTC()
	s.record.Status = status
	s.record.ElapsedMs = elapsedMs
	s.record.EndedAt = &end
	s.record.UpdatedAt = end
	return s.record
}

func (s *liveSession) view(withTimeline bool) SessionView {
	st := s.scheduler.Snapshot()
	v := SessionView{
		SessionRecord: s.snapshotRecord(st, s.clock.Now()),
		Settings:      s.settings,
		State:         &st,
	}
	if i := st.CurrentStepIndex; i >= 0 && i < len(s.timeline.Steps) {
		step := s.timeline.Steps[i]
		v.CurrentStep = &step
	}
	if withTimeline {
		v.Timeline = s.timeline
	}
	return v
}

// Done is closed once the session has been torn down.
func (s *liveSession) Done() <-chan struct{} { return s.done }
