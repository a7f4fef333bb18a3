package playback

import (
	"time"

	"workout_coach/internal/clock"
	"workout_coach/internal/models"
)

// ScheduleDelay runs fn after d unless canceled first. Each delay can be
// canceled on its own through the returned function, and all of them are
// canceled together by CancelDelays and Stop. Nothing is scheduled once the
// scheduler is terminal.
func (s *Scheduler) ScheduleDelay(d time.Duration, fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return func() {}
	}

	s.nextDelay++
	id := s.nextDelay
	s.delays[id] = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		_, pending := s.delays[id]
		delete(s.delays, id)
		stopped := s.status == models.StatusStopped
		s.mu.Unlock()
		if pending && !stopped {
			fn()
		}
	})

	return func() {
		s.mu.Lock()
		t, ok := s.delays[id]
		delete(s.delays, id)
		s.mu.Unlock()
		if ok {
			t.Stop()
		}
	}
}

// CancelDelays cancels every pending delay.
func (s *Scheduler) CancelDelays() {
	s.mu.Lock()
	pending := s.delays
	s.delays = make(map[int]clock.Timer, len(pending))
	s.mu.Unlock()

	for _, t := range pending {
		t.Stop()
	}
}

// PendingDelays reports how many delays are armed.
func (s *Scheduler) PendingDelays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}
