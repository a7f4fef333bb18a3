package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"workout_coach/internal/models"
)

type TemplateSQLite struct {
	db *sql.DB
}

func NewTemplateSQLite(db *sql.DB) *TemplateSQLite { return &TemplateSQLite{db: db} }

const (
	// Usage columns are owned by RecordUsage and left alone on upsert.
	upsertTemplateSQL = `
		INSERT INTO response_templates (id, event_type, pattern, mode, chatter_level, locale, text_template, priority, cooldown_seconds, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			event_type=excluded.event_type,
			pattern=excluded.pattern,
			mode=excluded.mode,
			chatter_level=excluded.chatter_level,
			locale=excluded.locale,
			text_template=excluded.text_template,
			priority=excluded.priority,
			cooldown_seconds=excluded.cooldown_seconds,
			active=excluded.active
	`
	selectTemplatesSQL = `
		SELECT id, event_type, pattern, mode, chatter_level, locale, text_template, priority, cooldown_seconds, active, usage_count, last_used_at
		FROM response_templates ORDER BY event_type ASC, id ASC
	`
	setTemplateActiveSQL = `UPDATE response_templates SET active = ? WHERE id = ?`
	recordUsageSQL       = `UPDATE response_templates SET usage_count = ?, last_used_at = ? WHERE id = ? AND usage_count < ?`
)

func (r *TemplateSQLite) Upsert(ctx context.Context, t models.ResponseTemplate) error {
	_, err := r.db.ExecContext(ctx, upsertTemplateSQL,
		t.ID,
		string(t.EventType),
		t.Pattern,
		t.Mode,
		string(t.ChatterLevel),
		t.Locale,
		t.TextTemplate,
		t.Priority,
		t.CooldownSeconds,
		t.Active,
	)
	if err != nil {
		return fmt.Errorf("upsert template %q: %w", t.ID, err)
	}
	return nil
}

func (r *TemplateSQLite) List(ctx context.Context) ([]models.ResponseTemplate, error) {
	rows, err := r.db.QueryContext(ctx, selectTemplatesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ResponseTemplate
	for rows.Next() {
		var (
			t                  models.ResponseTemplate
			eventType, chatter string
			lastUsed           sql.NullTime
		)
		if err := rows.Scan(&t.ID, &eventType, &t.Pattern, &t.Mode, &chatter, &t.Locale, &t.TextTemplate,
			&t.Priority, &t.CooldownSeconds, &t.Active, &t.UsageCount, &lastUsed); err != nil {
			return nil, err
		}
		t.EventType = models.EventType(eventType)
		t.ChatterLevel = models.ChatterLevel(chatter)
		if lastUsed.Valid {
			at := lastUsed.Time.UTC()
			t.LastUsedAt = &at
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetActive flips the active flag. It returns ErrNotFound for unknown ids.
func (r *TemplateSQLite) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, setTemplateActiveSQL, active, id)
	if err != nil {
		return fmt.Errorf("set template %q active=%t: %w", id, active, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordUsage stores the selector's counters. Writes that arrive out of order
// never move the counter backwards.
func (r *TemplateSQLite) RecordUsage(ctx context.Context, id string, count int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, recordUsageSQL, count, at.UTC(), id, count)
	if err != nil {
		return fmt.Errorf("record usage of template %q: %w", id, err)
	}
	return nil
}
