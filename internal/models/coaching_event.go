package models

import "time"

// EventType is the closed set of coaching events produced by the router.
type EventType string

const (
	EventWorkoutStart   EventType = "workout_start"
	EventWorkStart      EventType = "work_start"
	EventWorkEnd        EventType = "work_end"
	EventRestStart      EventType = "rest_start"
	EventRestEnd        EventType = "rest_end"
	EventAwaitReady     EventType = "await_ready"
	EventWorkoutPaused  EventType = "workout_paused"
	EventWorkoutResumed EventType = "workout_resumed"
	EventWorkoutEnd     EventType = "workout_end"
	EventSessionStopped EventType = "session_stopped"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventWorkoutStart, EventWorkStart, EventWorkEnd, EventRestStart, EventRestEnd,
		EventAwaitReady, EventWorkoutPaused, EventWorkoutResumed, EventWorkoutEnd, EventSessionStopped:
		return true
	}
	return false
}

// EventPayload carries the fields relevant to each event type; unused fields stay zero.
type EventPayload struct {
	StepIndex        int    `json:"step_index"`
	BlockID          string `json:"block_id,omitempty"`
	Pattern          string `json:"pattern,omitempty"`
	Mode             string `json:"mode,omitempty"`
	ExerciseID       string `json:"exercise_id,omitempty"`
	ExerciseName     string `json:"exercise_name,omitempty"`
	NextExerciseID   string `json:"next_exercise_id,omitempty"`
	NextExerciseName string `json:"next_exercise_name,omitempty"`
	Set              int    `json:"set,omitempty"`
	Sets             int    `json:"sets,omitempty"`
	Round            int    `json:"round,omitempty"`
	Rounds           int    `json:"rounds,omitempty"`
	TargetReps       int    `json:"target_reps,omitempty"`
	DurationMs       int64  `json:"duration_ms,omitempty"`
	ElapsedMs        int64  `json:"elapsed_ms"`
	Cue              string `json:"cue,omitempty"`
}

// CoachingEvent is an ephemeral value produced once per scheduler transition.
type CoachingEvent struct {
	Type       EventType    `json:"type"`
	SessionID  string       `json:"session_id,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
	Payload    EventPayload `json:"payload"`
}

// EventRecord is a persisted coaching event log entry.
type EventRecord struct {
	EventID     string    `json:"event_id"`
	SessionID   string    `json:"session_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"` // spoken text, if any
	Metadata    any       `json:"metadata,omitempty"`
}
