package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"workout_coach/internal/models"
)

type SessionSQLite struct {
	db *sql.DB
}

func NewSessionSQLite(db *sql.DB) *SessionSQLite {
	return &SessionSQLite{db: db}
}

const (
	upsertSessionSQL = `
		INSERT INTO sessions (id, workout_id, workout_name, user_id, status, total_ms, elapsed_ms, started_at, ended_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			elapsed_ms=excluded.elapsed_ms,
			ended_at=excluded.ended_at,
			updated_at=excluded.updated_at
	`

	selectSessionSQL = `
		SELECT id, workout_id, workout_name, user_id, status, total_ms, elapsed_ms, started_at, ended_at, updated_at
		FROM sessions WHERE id=?
	`
)

// Save inserts the session or updates its progress columns.
func (r *SessionSQLite) Save(ctx context.Context, s models.SessionRecord) error {
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	} else {
		updated = updated.UTC()
	}
	var ended *time.Time
	if s.EndedAt != nil {
		e := s.EndedAt.UTC()
		ended = &e
	}

	_, err := r.db.ExecContext(ctx, upsertSessionSQL,
		s.ID,
		nullString(s.WorkoutID),
		s.WorkoutName,
		nullString(s.UserID),
		string(s.Status),
		s.TotalMs,
		s.ElapsedMs,
		s.StartedAt.UTC(),
		ended,
		updated,
	)
	return err
}

// Get loads a session record by id.
func (r *SessionSQLite) Get(ctx context.Context, id string) (models.SessionRecord, error) {
	var (
		s                 models.SessionRecord
		workoutID, userID sql.NullString
		status            string
		ended             sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, selectSessionSQL, id).Scan(
		&s.ID,
		&workoutID,
		&s.WorkoutName,
		&userID,
		&status,
		&s.TotalMs,
		&s.ElapsedMs,
		&s.StartedAt,
		&ended,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SessionRecord{}, ErrNotFound
		}
		return models.SessionRecord{}, err
	}
	s.WorkoutID = workoutID.String
	s.UserID = userID.String
	s.Status = models.SchedulerStatus(status)
	s.StartedAt = s.StartedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	if ended.Valid {
		e := ended.Time.UTC()
		s.EndedAt = &e
	}
	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
