package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workout_coach/internal/models"
	"workout_coach/internal/service"
	"workout_coach/internal/timeline"
)

func TestCompileTimeline(t *testing.T) {
	tl := &models.CompiledTimeline{Name: "Legs", TotalMs: 5000, Steps: []models.Step{
		{Index: 0, Type: models.StepWork, StartMs: 0, EndMs: 5000, ExerciseID: "squat"},
	}}
	workouts := &mockWorkouts{timeline: tl}
	s := &service.Service{Authorization: &mockAuth{}, Workouts: workouts}

	w := doJSON(t, s, http.MethodPost, "/api/v1/timeline/compile",
		`{"name":"Legs","blocks":[{"pattern":"straight_sets","work_sec":5,"sets":1,"exercises":[{"exercise_id":"squat"}]}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Legs", workouts.lastName)
	require.Len(t, workouts.lastBlocks, 1)
	assert.Equal(t, models.PatternStraightSets, workouts.lastBlocks[0].Pattern)

	var got models.CompiledTimeline
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(5000), got.TotalMs)
	assert.Equal(t, tl.Steps, got.Steps)
}

func TestCompileTimeline_Errors(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{}, Workouts: &mockWorkouts{}}
	w := doJSON(t, s, http.MethodPost, "/api/v1/timeline/compile", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cerr := &timeline.CompilationError{BlockIndex: 0, Param: "rest_sec", Reason: "must not be negative, got -1"}
	s = &service.Service{Authorization: &mockAuth{}, Workouts: &mockWorkouts{compileErr: cerr}}
	w = doJSON(t, s, http.MethodPost, "/api/v1/timeline/compile", `{"blocks":[]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body compileErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rest_sec", body.Param)
}

func TestWorkouts_CreatePassesRawBody(t *testing.T) {
	workouts := &mockWorkouts{workout: models.WorkoutDefinition{ID: "w1", Name: "Legs"}}
	s := &service.Service{Authorization: &mockAuth{}, Workouts: workouts}

	body := `{"name":"Legs","blocks":[]}`
	w := doJSON(t, s, http.MethodPost, "/api/v1/workouts", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, body, string(workouts.lastRaw))

	workouts.err = fmt.Errorf("%w: missing properties: 'blocks'", service.ErrInvalidInput)
	w = doJSON(t, s, http.MethodPost, "/api/v1/workouts", `{"name":"Legs"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkouts_GetAndList(t *testing.T) {
	workouts := &mockWorkouts{workout: models.WorkoutDefinition{ID: "w1", Name: "Legs"}}
	s := &service.Service{Authorization: &mockAuth{}, Workouts: workouts}

	w := doGet(t, s, "/api/v1/workouts")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	w = doGet(t, s, "/api/v1/workouts/w1")
	assert.Equal(t, http.StatusOK, w.Code)

	workouts.err = service.ErrWorkoutNotFound
	w = doGet(t, s, "/api/v1/workouts/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExercises(t *testing.T) {
	catalog := &mockCatalog{exercise: models.Exercise{ID: "squat", Name: "Squat"}}
	s := &service.Service{Authorization: &mockAuth{}, Catalog: catalog}

	w := doJSON(t, s, http.MethodPost, "/api/v1/exercises", `{"id":"row","name":"Row","cues":["Pull elbows back"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var e models.Exercise
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, []string{"Pull elbows back"}, e.Cues)

	w = doGet(t, s, "/api/v1/exercises/squat")
	assert.Equal(t, http.StatusOK, w.Code)

	catalog.err = service.ErrExerciseNotFound
	w = doGet(t, s, "/api/v1/exercises/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)

	catalog.err = fmt.Errorf("%w: id and name are required", service.ErrInvalidInput)
	w = doJSON(t, s, http.MethodPost, "/api/v1/exercises", `{"id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
