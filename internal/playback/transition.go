package playback

import (
	"time"

	"workout_coach/internal/models"
)

// TransitionKind classifies scheduler notifications.
type TransitionKind string

const (
	KindStep      TransitionKind = "step"
	KindPaused    TransitionKind = "paused"
	KindResumed   TransitionKind = "resumed"
	KindCompleted TransitionKind = "completed"
)

// Transition is delivered to scheduler listeners. For KindStep, From is the
// index being left (-1 before the first step) and To the index entered. For
// KindCompleted, From is the final index and To is -1.
type Transition struct {
	Kind      TransitionKind
	From      int
	To        int
	ElapsedMs int64
	At        time.Time
	// Resync marks a step change found by drift correction rather than by
	// the regular tick scan.
	Resync bool
	// Left and Entered are copies of the affected steps, when they exist.
	Left    *models.Step
	Entered *models.Step
	// Steps is the timeline being played. It is shared and must not be
	// modified.
	Steps []models.Step
}

// Listener receives scheduler transitions in order. It runs on the ticking
// goroutine and must not block for long. A listener may call Stop,
// ScheduleDelay, CancelDelays and Snapshot; the other control methods would
// deadlock.
type Listener func(Transition)
