package timeline

// Documented parameter defaults applied when a block omits a value.
const (
	DefaultWorkSec      = 45
	DefaultRestSec      = 10
	DefaultRoundRestSec = 0
	DefaultSets         = 3
	DefaultTargetReps   = 10
	DefaultRepPaceMs    = 3000
)

// ExerciseInfo resolves a display name and a short coaching cue for an
// exercise id. Either value may be empty.
type ExerciseInfo func(exerciseID string) (name, cue string)

// Options tune compilation. The zero value compiles with no pre-workout
// instruction, zero-length transitions and the default rep pace.
type Options struct {
	WorkoutID     string
	Name          string
	PreWorkoutSec int
	TransitionSec int
	// RepPaceMs is the externally supplied estimate of one rep's duration;
	// rep-mode work lasts reps*RepPaceMs.
	RepPaceMs int64
	// StrictGating gates every block that requires ready confirmation,
	// not just the first one.
	StrictGating bool
	Exercises    ExerciseInfo
}

func (o Options) validate() error {
	if o.PreWorkoutSec < 0 {
		return &CompilationError{BlockIndex: -1, Param: "pre_workout_sec", Reason: "must not be negative"}
	}
	if o.TransitionSec < 0 {
		return &CompilationError{BlockIndex: -1, Param: "transition_sec", Reason: "must not be negative"}
	}
	if o.RepPaceMs < 0 {
		return &CompilationError{BlockIndex: -1, Param: "rep_pace_ms", Reason: "must not be negative"}
	}
	return nil
}

func (o Options) repPaceMs() int64 {
	if o.RepPaceMs == 0 {
		return DefaultRepPaceMs
	}
	return o.RepPaceMs
}

func (o Options) lookup(id string) (string, string) {
	if o.Exercises == nil {
		return "", ""
	}
	return o.Exercises(id)
}
