package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"workout_coach/internal/clock"
	"workout_coach/internal/coaching"
	"workout_coach/internal/logger"
	"workout_coach/internal/models"
	"workout_coach/internal/repository"
)

const usageWriteTimeout = 5 * time.Second

// TemplateService owns the in-memory template bank and keeps the stored copy
// in step with it. Selection usage is written through asynchronously.
type TemplateService struct {
	repo repository.TemplateRepo
	bank *coaching.Bank
	log  *logger.Logger
}

func NewTemplateService(repo repository.TemplateRepo, clk clock.Clock, log *logger.Logger) *TemplateService {
	s := &TemplateService{repo: repo, log: logger.OrNop(log)}
	s.bank = coaching.NewBank(clk, s.log, s.recordUsage)
	return s
}

// Bank returns the selector shared by all sessions.
func (s *TemplateService) Bank() *coaching.Bank { return s.bank }

func (s *TemplateService) recordUsage(t models.ResponseTemplate) {
	if t.LastUsedAt == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), usageWriteTimeout)
		defer cancel()
		if err := s.repo.RecordUsage(ctx, t.ID, t.UsageCount, *t.LastUsedAt); err != nil {
			s.log.Warnw("template_usage_write_failed", "template_id", t.ID, "error", err)
		}
	}()
}

func (s *TemplateService) LoadTemplates(ctx context.Context) error {
	ts, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	s.bank.Replace(ts)
	s.log.Infow("templates_loaded", "count", len(ts))
	return nil
}

// ImportTemplates upserts seed templates and reloads the bank. Stored usage
// counters survive the import.
func (s *TemplateService) ImportTemplates(ctx context.Context, ts []models.ResponseTemplate) error {
	for _, t := range ts {
		if err := coaching.ValidateTemplate(t); err != nil {
			return fmt.Errorf("%w: template %q: %v", ErrInvalidInput, t.ID, err)
		}
	}
	for _, t := range ts {
		if err := s.repo.Upsert(ctx, t); err != nil {
			return err
		}
	}
	return s.LoadTemplates(ctx)
}

func (s *TemplateService) ListTemplates() []models.ResponseTemplate {
	return s.bank.List()
}

func (s *TemplateService) UpsertTemplate(ctx context.Context, t models.ResponseTemplate) (models.ResponseTemplate, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Pattern == "" {
		t.Pattern = models.AnyMatch
	}
	if t.Mode == "" {
		t.Mode = models.AnyMatch
	}
	if t.Locale == "" {
		t.Locale = "en"
	}
	if t.ChatterLevel == "" {
		t.ChatterLevel = models.ChatterMinimal
	}
	if err := coaching.ValidateTemplate(t); err != nil {
		return models.ResponseTemplate{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.Upsert(ctx, t); err != nil {
		return models.ResponseTemplate{}, err
	}
	s.bank.Upsert(t)
	stored, _ := s.bank.Get(t.ID)
	return stored, nil
}

func (s *TemplateService) DeactivateTemplate(ctx context.Context, id string) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	s.bank.Deactivate(id)
	return nil
}
