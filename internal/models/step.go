package models

// StepType is the closed set of compiled step kinds.
type StepType string

const (
	StepInstruction StepType = "instruction"
	StepAwaitReady  StepType = "await_ready"
	StepWork        StepType = "work"
	StepRest        StepType = "rest"
	StepTransition  StepType = "transition"
)

// Step is one compiled, time-bounded unit of the timeline. Offsets are in
// milliseconds from workout start; EndMs == StartMs for zero-duration steps.
type Step struct {
	Index            int      `json:"index"`
	Type             StepType `json:"type"`
	StartMs          int64    `json:"start_ms"`
	EndMs            int64    `json:"end_ms"`
	BlockID          string   `json:"block_id,omitempty"`
	BlockIndex       int      `json:"block_index"`
	Pattern          Pattern  `json:"pattern,omitempty"`
	Mode             Mode     `json:"mode,omitempty"`
	ExerciseID       string   `json:"exercise_id,omitempty"`
	ExerciseName     string   `json:"exercise_name,omitempty"`
	NextExerciseID   string   `json:"next_exercise_id,omitempty"`
	NextExerciseName string   `json:"next_exercise_name,omitempty"`
	Set              int      `json:"set,omitempty"`
	Sets             int      `json:"sets,omitempty"`
	Round            int      `json:"round,omitempty"`
	Rounds           int      `json:"rounds,omitempty"`
	TargetReps       int      `json:"target_reps,omitempty"`
	Cue              string   `json:"cue,omitempty"`
}

// DurationMs is EndMs-StartMs.
func (s Step) DurationMs() int64 { return s.EndMs - s.StartMs }

// ZeroDuration reports whether the step occupies no time on the timeline.
func (s Step) ZeroDuration() bool { return s.EndMs == s.StartMs }

// CompiledTimeline is the read-only step sequence for one workout instance.
type CompiledTimeline struct {
	WorkoutID    string `json:"workout_id,omitempty"`
	Name         string `json:"name"`
	TotalMs      int64  `json:"total_ms"`
	PreWorkoutMs int64  `json:"pre_workout_ms"`
	Steps        []Step `json:"steps"`
	// SkippedBlocks lists blocks that compiled to no steps (no exercises).
	SkippedBlocks []string `json:"skipped_blocks,omitempty"`
}

// LastEndMs returns the end offset of the final step, or 0 for an empty timeline.
func (t *CompiledTimeline) LastEndMs() int64 {
	if len(t.Steps) == 0 {
		return 0
	}
	return t.Steps[len(t.Steps)-1].EndMs
}
