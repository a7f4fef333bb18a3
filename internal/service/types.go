package service

import (
	"time"

	"workout_coach/internal/models"
)

// LogFilter supports history filtering by time range, type and session.
type LogFilter struct {
	From      time.Time // inclusive; zero means no lower bound
	To        time.Time // inclusive; zero means no upper bound
	Type      string    // "" or a coaching event type
	SessionID string
}

// StartSessionRequest starts a session from a stored workout (WorkoutID) or
// from inline blocks.
type StartSessionRequest struct {
	WorkoutID    string              `json:"workout_id"`
	Name         string              `json:"name"`
	Blocks       []models.Block      `json:"blocks"`
	ChatterLevel models.ChatterLevel `json:"chatter_level"`
	Locale       string              `json:"locale"`
	AthleteName  string              `json:"athlete_name"`
	UserID       string              `json:"-"`
}

// SessionView is a session record joined with its live scheduler state.
type SessionView struct {
	models.SessionRecord
	Settings    models.CoachSettings     `json:"settings"`
	State       *models.SchedulerState   `json:"state,omitempty"`
	CurrentStep *models.Step             `json:"current_step,omitempty"`
	Timeline    *models.CompiledTimeline `json:"timeline,omitempty"`
}

// SetLogInput records a performed set. Zero ExerciseID and nil StepIndex
// default to the session's current step.
type SetLogInput struct {
	ExerciseID string   `json:"exercise_id"`
	StepIndex  *int     `json:"step_index"`
	Set        int      `json:"set"`
	Reps       int      `json:"reps"`
	WeightKg   float64  `json:"weight_kg"`
	RIR        *float64 `json:"rir"`
}

// Transcript is a speech-to-text result from the voice transport.
type Transcript struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// Transcript actions.
const (
	ActionNone    = "none"
	ActionReady   = "ready"
	ActionPause   = "pause"
	ActionResume  = "resume"
	ActionIgnored = "ignored"
)

type TranscriptResult struct {
	Action  string      `json:"action"`
	Session SessionView `json:"session"`
}
