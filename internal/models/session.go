package models

import "time"

// CoachSettings are the per-session selector context values.
type CoachSettings struct {
	ChatterLevel ChatterLevel `json:"chatter_level"`
	Locale       string       `json:"locale"`
}

// SessionRecord is the persisted summary of one workout session.
type SessionRecord struct {
	ID          string          `json:"id"`
	WorkoutID   string          `json:"workout_id,omitempty"`
	WorkoutName string          `json:"workout_name"`
	UserID      string          `json:"user_id,omitempty"`
	Status      SchedulerStatus `json:"status"`
	TotalMs     int64           `json:"total_ms"`
	ElapsedMs   int64           `json:"elapsed_ms"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SetLog is a write-only record of one performed set.
type SetLog struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	ExerciseID string    `json:"exercise_id"`
	StepIndex  int       `json:"step_index"`
	Set        int       `json:"set"`
	Reps       int       `json:"reps"`
	WeightKg   float64   `json:"weight_kg,omitempty"`
	RIR        *float64  `json:"rir,omitempty"`
	LoggedAt   time.Time `json:"logged_at"`
}
