package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"workout_coach/internal/models"
)

type WorkoutSQLite struct {
	db *sql.DB
}

func NewWorkoutSQLite(db *sql.DB) *WorkoutSQLite { return &WorkoutSQLite{db: db} }

const (
	insertWorkoutSQL  = `INSERT INTO workouts (id, name, blocks, created_at) VALUES (?, ?, ?, ?)`
	selectWorkoutSQL  = `SELECT id, name, blocks, created_at FROM workouts WHERE id = ?`
	selectWorkoutsSQL = `SELECT id, name, blocks, created_at FROM workouts ORDER BY created_at DESC`
)

// Create stores a workout definition. Blocks are kept as JSON.
func (r *WorkoutSQLite) Create(ctx context.Context, w models.WorkoutDefinition) error {
	blocks, err := json.Marshal(w.Blocks)
	if err != nil {
		return fmt.Errorf("marshal blocks of workout %q: %w", w.ID, err)
	}
	created := w.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	if _, err := r.db.ExecContext(ctx, insertWorkoutSQL, w.ID, w.Name, string(blocks), created.UTC()); err != nil {
		return fmt.Errorf("insert workout %q: %w", w.ID, err)
	}
	return nil
}

func (r *WorkoutSQLite) Get(ctx context.Context, id string) (models.WorkoutDefinition, error) {
	w, err := scanWorkout(r.db.QueryRowContext(ctx, selectWorkoutSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.WorkoutDefinition{}, ErrNotFound
	}
	return w, err
}

func (r *WorkoutSQLite) List(ctx context.Context) ([]models.WorkoutDefinition, error) {
	rows, err := r.db.QueryContext(ctx, selectWorkoutsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WorkoutDefinition
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row rowScanner) (models.WorkoutDefinition, error) {
	var (
		w      models.WorkoutDefinition
		blocks string
	)
	if err := row.Scan(&w.ID, &w.Name, &blocks, &w.CreatedAt); err != nil {
		return models.WorkoutDefinition{}, err
	}
	if err := json.Unmarshal([]byte(blocks), &w.Blocks); err != nil {
		return models.WorkoutDefinition{}, fmt.Errorf("decode blocks of workout %q: %w", w.ID, err)
	}
	w.CreatedAt = w.CreatedAt.UTC()
	return w, nil
}
