package models

import "time"

// Pattern governs how a block interleaves its exercises and rests.
type Pattern string

const (
	PatternSuperset     Pattern = "superset"
	PatternStraightSets Pattern = "straight_sets"
	PatternCircuit      Pattern = "circuit"
	PatternCustom       Pattern = "custom"
)

// Valid reports whether p is one of the known patterns.
func (p Pattern) Valid() bool {
	switch p {
	case PatternSuperset, PatternStraightSets, PatternCircuit, PatternCustom:
		return true
	}
	return false
}

// Mode selects whether work is timed or counted in reps.
type Mode string

const (
	ModeTime Mode = "time"
	ModeReps Mode = "reps"
)

func (m Mode) Valid() bool {
	return m == ModeTime || m == ModeReps
}

// ExerciseRef points at a catalog exercise. The optional timing fields are
// only honored by the custom pattern, which takes the list literally.
type ExerciseRef struct {
	ExerciseID string `json:"exercise_id"`
	Name       string `json:"name,omitempty"`
	WorkSec    *int   `json:"work_sec,omitempty"`
	RestSec    *int   `json:"rest_sec,omitempty"`
	Reps       *int   `json:"reps,omitempty"`
}

// Block is an authored group of exercises sharing one timing pattern.
// Nil numeric fields fall back to the compiler defaults.
type Block struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Pattern       Pattern       `json:"pattern"`
	Mode          Mode          `json:"mode"`
	WorkSec       *int          `json:"work_sec,omitempty"`
	RestSec       *int          `json:"rest_sec,omitempty"`
	RoundRestSec  *int          `json:"round_rest_sec,omitempty"`
	Sets          *int          `json:"sets,omitempty"` // sets per exercise, or rounds for superset/circuit
	TargetRepsMin *int          `json:"target_reps_min,omitempty"`
	TargetRepsMax *int          `json:"target_reps_max,omitempty"`
	Exercises     []ExerciseRef `json:"exercises"`
	RequireReady  bool          `json:"require_ready,omitempty"`
}

// WorkoutDefinition is the persisted, authored workout. It is a read-only
// input to the timeline compiler.
type WorkoutDefinition struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Blocks    []Block   `json:"blocks"`
	CreatedAt time.Time `json:"created_at"`
}

// Exercise is a catalog entry.
type Exercise struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Cues        []string `json:"cues,omitempty"`
	Equipment   []string `json:"equipment,omitempty"`
	MuscleGroup string   `json:"muscle_group,omitempty"`
}

// IntPtr is a small helper for building blocks in code.
func IntPtr(v int) *int { return &v }
