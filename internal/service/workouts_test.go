package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workout_coach/internal/clock"
	"workout_coach/internal/models"
	"workout_coach/internal/timeline"
)

func newWorkoutFixture(opts Options) (*WorkoutService, *memStores) {
	stores := newMemStores()
	stores.exercises["squat"] = models.Exercise{ID: "squat", Name: "Squat", Cues: []string{"Chest up"}}
	stores.exercises["pushup"] = models.Exercise{ID: "pushup", Name: "Push-up"}
	if opts.Clock == nil {
		opts.Clock = clock.NewFake(testEpoch)
	}
	catalog := NewCatalogService(memExercises{stores}, nil)
	return NewWorkoutService(memWorkouts{stores}, catalog, opts), stores
}

func TestWorkoutService_CreateWorkout(t *testing.T) {
	svc, stores := newWorkoutFixture(Options{})
	raw := []byte(`{
		"name": "  Legs  ",
		"blocks": [{"id": "b1", "pattern": "straight_sets", "sets": 2, "work_sec": 30,
			"exercises": [{"exercise_id": "squat"}]}]
	}`)

	w, err := svc.CreateWorkout(context.Background(), raw)
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)
	assert.Equal(t, "Legs", w.Name)
	assert.Equal(t, testEpoch, w.CreatedAt)
	assert.Contains(t, stores.workouts, w.ID)

	got, err := svc.GetWorkout(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Len(t, got.Blocks, 1)

	list, err := svc.ListWorkouts(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWorkoutService_CreateWorkoutRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{`, ErrInvalidInput},
		{"missing blocks", `{"name": "x"}`, ErrInvalidInput},
		{"exercise without id", `{"name": "x", "blocks": [{"pattern": "circuit", "exercises": [{}]}]}`, ErrInvalidInput},
		{"unknown pattern", `{"name": "x", "blocks": [{"pattern": "pyramid", "exercises": []}]}`, timeline.ErrInvalidWorkout},
		{"zero sets", `{"name": "x", "blocks": [{"pattern": "circuit", "sets": 0, "exercises": [{"exercise_id": "squat"}]}]}`, timeline.ErrInvalidWorkout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, stores := newWorkoutFixture(Options{})
			_, err := svc.CreateWorkout(context.Background(), []byte(tt.raw))
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, stores.workouts)
		})
	}
}

func TestWorkoutService_GetWorkoutNotFound(t *testing.T) {
	svc, _ := newWorkoutFixture(Options{})
	_, err := svc.GetWorkout(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
}

func TestWorkoutService_CompileTimelineUsesCatalogAndOptions(t *testing.T) {
	svc, _ := newWorkoutFixture(Options{PreWorkoutSec: 10, TransitionSec: 15})
	blocks := []models.Block{
		{ID: "a", Pattern: models.PatternStraightSets, Sets: models.IntPtr(1), WorkSec: models.IntPtr(20),
			Exercises: []models.ExerciseRef{{ExerciseID: "squat"}}},
		{ID: "b", Pattern: models.PatternCircuit, Sets: models.IntPtr(1), WorkSec: models.IntPtr(20),
			Exercises: []models.ExerciseRef{{ExerciseID: "pushup"}, {ExerciseID: "lunge"}}},
	}

	tl, err := svc.CompileTimeline(context.Background(), "Mixed", blocks)
	require.NoError(t, err)

	var types []models.StepType
	for _, s := range tl.Steps {
		types = append(types, s.Type)
	}
	assert.Equal(t, []models.StepType{
		models.StepInstruction, models.StepWork, models.StepTransition,
		models.StepWork, models.StepRest, models.StepWork,
	}, types)
	assert.Equal(t, "Mixed", tl.Steps[0].Cue)
	assert.Equal(t, "Chest up", tl.Steps[1].Cue)
	assert.Equal(t, "Push-up", tl.Steps[2].NextExerciseName)
	assert.Equal(t, PlaceholderExerciseName, tl.Steps[5].ExerciseName)
	assert.Equal(t, int64(10000+20000+15000+20000+10000+20000), tl.TotalMs)
	require.NoError(t, timeline.CheckOrdering(tl.Steps))
}

func TestWorkoutService_CompileTimelineError(t *testing.T) {
	svc, _ := newWorkoutFixture(Options{})
	_, err := svc.CompileTimeline(context.Background(), "bad", []models.Block{{
		ID: "x", Pattern: models.PatternStraightSets, RestSec: models.IntPtr(-5),
		Exercises: []models.ExerciseRef{{ExerciseID: "squat"}},
	}})
	var cerr *timeline.CompilationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 0, cerr.BlockIndex)
	assert.Equal(t, "rest_sec", cerr.Param)
}
