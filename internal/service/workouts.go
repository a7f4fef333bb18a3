package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"workout_coach/internal/clock"
	"workout_coach/internal/models"
	"workout_coach/internal/repository"
	"workout_coach/internal/timeline"
)

type WorkoutService struct {
	repo    repository.WorkoutRepo
	catalog *CatalogService
	clock   clock.Clock
	opts    Options
}

func NewWorkoutService(repo repository.WorkoutRepo, catalog *CatalogService, opts Options) *WorkoutService {
	opts = opts.withDefaults()
	return &WorkoutService{repo: repo, catalog: catalog, clock: opts.Clock, opts: opts}
}

// CreateWorkout validates raw JSON against the workout schema, checks that it
// compiles and stores it.
func (s *WorkoutService) CreateWorkout(ctx context.Context, raw []byte) (models.WorkoutDefinition, error) {
	if err := timeline.ValidateDefinition(raw); err != nil {
		return models.WorkoutDefinition{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	var w models.WorkoutDefinition
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.WorkoutDefinition{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	w.Name = strings.TrimSpace(w.Name)
	if _, err := s.compile(ctx, w.ID, w.Name, w.Blocks); err != nil {
		return models.WorkoutDefinition{}, err
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.CreatedAt = s.clock.Now().UTC()
	if err := s.repo.Create(ctx, w); err != nil {
		return models.WorkoutDefinition{}, err
	}
	return w, nil
}

func (s *WorkoutService) GetWorkout(ctx context.Context, id string) (models.WorkoutDefinition, error) {
	w, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.WorkoutDefinition{}, ErrWorkoutNotFound
	}
	return w, err
}

func (s *WorkoutService) ListWorkouts(ctx context.Context) ([]models.WorkoutDefinition, error) {
	return s.repo.List(ctx)
}

// CompileTimeline compiles blocks with the configured options. Failures are
// *timeline.CompilationError.
func (s *WorkoutService) CompileTimeline(ctx context.Context, name string, blocks []models.Block) (*models.CompiledTimeline, error) {
	return s.compile(ctx, "", name, blocks)
}

func (s *WorkoutService) compile(ctx context.Context, workoutID, name string, blocks []models.Block) (*models.CompiledTimeline, error) {
	opts := timeline.Options{
		WorkoutID:     workoutID,
		Name:          name,
		PreWorkoutSec: s.opts.PreWorkoutSec,
		TransitionSec: s.opts.TransitionSec,
		RepPaceMs:     s.opts.RepPaceMs,
		StrictGating:  s.opts.StrictGating,
	}
	if s.catalog != nil {
		opts.Exercises = s.catalog.Info(ctx)
	}
	return timeline.Compile(blocks, opts)
}
