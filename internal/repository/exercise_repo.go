package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"workout_coach/internal/models"
)

type ExerciseSQLite struct {
	db *sql.DB
}

func NewExerciseSQLite(db *sql.DB) *ExerciseSQLite { return &ExerciseSQLite{db: db} }

const (
	upsertExerciseSQL = `
		INSERT INTO exercises (id, name, cues, equipment, muscle_group)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			cues=excluded.cues,
			equipment=excluded.equipment,
			muscle_group=excluded.muscle_group
	`
	selectExerciseSQL  = `SELECT id, name, cues, equipment, muscle_group FROM exercises WHERE id = ?`
	selectExercisesSQL = `SELECT id, name, cues, equipment, muscle_group FROM exercises ORDER BY name ASC`
)

func (r *ExerciseSQLite) Upsert(ctx context.Context, e models.Exercise) error {
	cues, err := marshalStrings(e.Cues)
	if err != nil {
		return err
	}
	equipment, err := marshalStrings(e.Equipment)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertExerciseSQL, e.ID, e.Name, cues, equipment, nullString(e.MuscleGroup)); err != nil {
		return fmt.Errorf("upsert exercise %q: %w", e.ID, err)
	}
	return nil
}

func (r *ExerciseSQLite) Get(ctx context.Context, id string) (models.Exercise, error) {
	e, err := scanExercise(r.db.QueryRowContext(ctx, selectExerciseSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Exercise{}, ErrNotFound
	}
	return e, err
}

func (r *ExerciseSQLite) List(ctx context.Context) ([]models.Exercise, error) {
	rows, err := r.db.QueryContext(ctx, selectExercisesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanExercise(row rowScanner) (models.Exercise, error) {
	var (
		e                      models.Exercise
		cues, equipment, group sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Name, &cues, &equipment, &group); err != nil {
		return models.Exercise{}, err
	}
	var err error
	if e.Cues, err = unmarshalStrings(cues.String); err != nil {
		return models.Exercise{}, fmt.Errorf("decode cues of exercise %q: %w", e.ID, err)
	}
	if e.Equipment, err = unmarshalStrings(equipment.String); err != nil {
		return models.Exercise{}, fmt.Errorf("decode equipment of exercise %q: %w", e.ID, err)
	}
	e.MuscleGroup = group.String
	return e, nil
}

// marshalStrings converts the slice to a JSON string.
func marshalStrings(v []string) (string, error) {
	if len(v) == 0 {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// unmarshalStrings parses a JSON string into a slice.
func unmarshalStrings(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
