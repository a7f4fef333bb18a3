package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"workout_coach/internal/logger"
	"workout_coach/internal/models"
	"workout_coach/internal/repository"
)

// PlaceholderExerciseName is used for ids the catalog does not know.
const PlaceholderExerciseName = "Exercise"

// CatalogService caches exercise metadata. Concurrent lookups of the same id
// share one repository read.
type CatalogService struct {
	repo  repository.ExerciseRepo
	log   *logger.Logger
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]models.Exercise
}

func NewCatalogService(repo repository.ExerciseRepo, log *logger.Logger) *CatalogService {
	return &CatalogService{repo: repo, log: logger.OrNop(log), cache: make(map[string]models.Exercise)}
}

func placeholderExercise(id string) models.Exercise {
	return models.Exercise{ID: id, Name: PlaceholderExerciseName, Cues: []string{}}
}

// Lookup returns the catalog entry for id, or a placeholder when the id is
// unknown or the store is unavailable.
func (s *CatalogService) Lookup(ctx context.Context, id string) models.Exercise {
	s.mu.RLock()
	e, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	v, _, _ := s.group.Do(id, func() (any, error) {
		e, err := s.repo.Get(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrNotFound):
			e = placeholderExercise(id)
		default:
			s.log.Warnw("catalog_lookup_failed", "exercise_id", id, "error", err)
			return placeholderExercise(id), nil
		}
		s.mu.Lock()
		s.cache[id] = e
		s.mu.Unlock()
		return e, nil
	})
	return v.(models.Exercise)
}

// Info adapts Lookup to the compiler's exercise resolver.
func (s *CatalogService) Info(ctx context.Context) func(id string) (string, string) {
	return func(id string) (string, string) {
		e := s.Lookup(ctx, id)
		cue := ""
		if len(e.Cues) > 0 {
			cue = e.Cues[0]
		}
		return e.Name, cue
	}
}

func (s *CatalogService) UpsertExercise(ctx context.Context, e models.Exercise) (models.Exercise, error) {
	e.ID = strings.TrimSpace(e.ID)
	e.Name = strings.TrimSpace(e.Name)
	if e.ID == "" || e.Name == "" {
		return models.Exercise{}, fmt.Errorf("%w: id and name are required", ErrInvalidInput)
	}
	if err := s.repo.Upsert(ctx, e); err != nil {
		return models.Exercise{}, err
	}
	s.mu.Lock()
	s.cache[e.ID] = e
	s.mu.Unlock()
	return e, nil
}

func (s *CatalogService) GetExercise(ctx context.Context, id string) (models.Exercise, error) {
	e, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Exercise{}, ErrExerciseNotFound
	}
	return e, err
}

func (s *CatalogService) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	return s.repo.List(ctx)
}
