package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"workout_coach/internal/models"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

type Authorization interface {
	Create(ctx context.Context, username, passwordHash string) (int, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

type WorkoutRepo interface {
	Create(ctx context.Context, w models.WorkoutDefinition) error
	Get(ctx context.Context, id string) (models.WorkoutDefinition, error)
	List(ctx context.Context) ([]models.WorkoutDefinition, error)
}

type ExerciseRepo interface {
	Upsert(ctx context.Context, e models.Exercise) error
	Get(ctx context.Context, id string) (models.Exercise, error)
	List(ctx context.Context) ([]models.Exercise, error)
}

type TemplateRepo interface {
	Upsert(ctx context.Context, t models.ResponseTemplate) error
	List(ctx context.Context) ([]models.ResponseTemplate, error)
	SetActive(ctx context.Context, id string, active bool) error
	RecordUsage(ctx context.Context, id string, count int, at time.Time) error
}

// EventFilter narrows an event log listing. Zero fields do not filter.
type EventFilter struct {
	From      time.Time
	To        time.Time
	Type      string
	SessionID string
}

type EventRepo interface {
	Append(ctx context.Context, e models.EventRecord) error
	List(ctx context.Context, f EventFilter) ([]models.EventRecord, error)
}

type SessionRepo interface {
	Save(ctx context.Context, s models.SessionRecord) error
	Get(ctx context.Context, id string) (models.SessionRecord, error)
}

type SetLogRepo interface {
	Append(ctx context.Context, l models.SetLog) error
	ListBySession(ctx context.Context, sessionID string) ([]models.SetLog, error)
}

type Repository struct {
	Auth      Authorization
	Workouts  WorkoutRepo
	Exercises ExerciseRepo
	Templates TemplateRepo
	Events    EventRepo
	Sessions  SessionRepo
	SetLogs   SetLogRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Auth:      NewUserSQLite(db),
		Workouts:  NewWorkoutSQLite(db),
		Exercises: NewExerciseSQLite(db),
		Templates: NewTemplateSQLite(db),
		Events:    NewEventSQLite(db),
		Sessions:  NewSessionSQLite(db),
		SetLogs:   NewSetLogSQLite(db),
	}
}
