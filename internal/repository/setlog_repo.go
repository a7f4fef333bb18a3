package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"workout_coach/internal/models"
)

type SetLogSQLite struct {
	db *sql.DB
}

func NewSetLogSQLite(db *sql.DB) *SetLogSQLite { return &SetLogSQLite{db: db} }

const (
	insertSetLogSQL = `
		INSERT INTO set_logs (id, session_id, exercise_id, step_index, set_number, reps, weight_kg, rir, logged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	selectSetLogsSQL = `
		SELECT id, session_id, exercise_id, step_index, set_number, reps, weight_kg, rir, logged_at
		FROM set_logs WHERE session_id = ? ORDER BY logged_at ASC
	`
)

// Append stores a set log, filling in ID and LoggedAt when empty.
func (r *SetLogSQLite) Append(ctx context.Context, l models.SetLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.LoggedAt.IsZero() {
		l.LoggedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertSetLogSQL,
		l.ID, l.SessionID, l.ExerciseID, l.StepIndex, l.Set, l.Reps, l.WeightKg, l.RIR, l.LoggedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert set log for session %q: %w", l.SessionID, err)
	}
	return nil
}

func (r *SetLogSQLite) ListBySession(ctx context.Context, sessionID string) ([]models.SetLog, error) {
	rows, err := r.db.QueryContext(ctx, selectSetLogsSQL, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SetLog
	for rows.Next() {
		var (
			l      models.SetLog
			weight sql.NullFloat64
			rir    sql.NullFloat64
		)
		if err := rows.Scan(&l.ID, &l.SessionID, &l.ExerciseID, &l.StepIndex, &l.Set, &l.Reps, &weight, &rir, &l.LoggedAt); err != nil {
			return nil, err
		}
		l.WeightKg = weight.Float64
		if rir.Valid {
			v := rir.Float64
			l.RIR = &v
		}
		l.LoggedAt = l.LoggedAt.UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}
