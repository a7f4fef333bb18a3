package coaching

import (
	"sort"
	"sync"
	"time"

	"workout_coach/internal/clock"
	"workout_coach/internal/logger"
	"workout_coach/internal/models"
)

// SelectionContext is the coaching context a line is selected for. Empty
// Pattern and Mode fall back to the event payload.
type SelectionContext struct {
	Pattern      string
	Mode         string
	ChatterLevel models.ChatterLevel
	Locale       string
	Vars         map[string]string
}

// Utterance is a selected and rendered template.
type Utterance struct {
	TemplateID string
	EventType  models.EventType
	Text       string
}

// UsageFunc observes template usage after each selection, outside the bank
// lock.
type UsageFunc func(models.ResponseTemplate)

// Bank is the in-memory template bank and response selector. Selection,
// cooldown checks and usage updates happen under one lock, so two events can
// never both claim a cooldown-limited template.
type Bank struct {
	clock   clock.Clock
	log     *logger.Logger
	onUsage UsageFunc

	mu        sync.Mutex
	templates map[string]*models.ResponseTemplate
}

func NewBank(clk clock.Clock, log *logger.Logger, onUsage UsageFunc) *Bank {
	if clk == nil {
		clk = clock.Real()
	}
	return &Bank{
		clock:     clk,
		log:       logger.OrNop(log),
		onUsage:   onUsage,
		templates: make(map[string]*models.ResponseTemplate),
	}
}

// Replace swaps the bank contents for ts. Usage counters already known for a
// template id are kept when they are ahead of the incoming ones.
func (b *Bank) Replace(ts []models.ResponseTemplate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make(map[string]*models.ResponseTemplate, len(ts))
	for _, t := range ts {
		t := t
		if old, ok := b.templates[t.ID]; ok {
			mergeUsage(&t, old)
		}
		next[t.ID] = &t
	}
	b.templates = next
}

// Upsert adds or replaces a single template, keeping known usage.
func (b *Bank) Upsert(t models.ResponseTemplate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.templates[t.ID]; ok {
		mergeUsage(&t, old)
	}
	b.templates[t.ID] = &t
}

// Deactivate marks a template inactive. It reports whether the id exists.
func (b *Bank) Deactivate(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.templates[id]
	if ok {
		t.Active = false
	}
	return ok
}

// Get returns a copy of the template with the given id.
func (b *Bank) Get(id string) (models.ResponseTemplate, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.templates[id]
	if !ok {
		return models.ResponseTemplate{}, false
	}
	return copyTemplate(t), true
}

// List returns copies of all templates ordered by event type, then id.
func (b *Bank) List() []models.ResponseTemplate {
	b.mu.Lock()
	out := make([]models.ResponseTemplate, 0, len(b.templates))
	for _, t := range b.templates {
		out = append(out, copyTemplate(t))
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EventType != out[j].EventType {
			return out[i].EventType < out[j].EventType
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of templates.
func (b *Bank) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.templates)
}

// Select picks the line to speak for ev. ok is false when nothing matches,
// which is a normal outcome. The chosen template's usage is updated.
func (b *Bank) Select(ev models.CoachingEvent, c SelectionContext) (Utterance, bool) {
	if c.ChatterLevel == models.ChatterSilent {
		return Utterance{}, false
	}
	if c.Pattern == "" {
		c.Pattern = ev.Payload.Pattern
	}
	if c.Mode == "" {
		c.Mode = ev.Payload.Mode
	}

	b.mu.Lock()
	now := b.clock.Now()
	var best *models.ResponseTemplate
	for _, t := range b.templates {
		if !eligible(t, ev.Type, c, now) {
			continue
		}
		if best == nil || better(t, best) {
			best = t
		}
	}
	if best == nil {
		b.mu.Unlock()
		return Utterance{}, false
	}
	best.UsageCount++
	used := now
	best.LastUsedAt = &used
	chosen := copyTemplate(best)
	b.mu.Unlock()

	if b.onUsage != nil {
		b.onUsage(chosen)
	}
	return Utterance{
		TemplateID: chosen.ID,
		EventType:  ev.Type,
		Text:       Render(chosen.TextTemplate, Vars(ev, c.Vars)),
	}, true
}

func eligible(t *models.ResponseTemplate, et models.EventType, c SelectionContext, now time.Time) bool {
	switch {
	case !t.Active, t.EventType != et:
		return false
	case t.Pattern != models.AnyMatch && t.Pattern != c.Pattern:
		return false
	case t.Mode != models.AnyMatch && t.Mode != c.Mode:
		return false
	case t.ChatterLevel != c.ChatterLevel, t.Locale != c.Locale:
		return false
	}
	if t.LastUsedAt == nil {
		return true
	}
	return now.Sub(*t.LastUsedAt) >= time.Duration(t.CooldownSeconds)*time.Second
}

// better orders by priority desc, then least recently used (never used
// first), then id for a stable result.
func better(a, b *models.ResponseTemplate) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	switch {
	case a.LastUsedAt == nil && b.LastUsedAt != nil:
		return true
	case a.LastUsedAt != nil && b.LastUsedAt == nil:
		return false
	case a.LastUsedAt != nil && !a.LastUsedAt.Equal(*b.LastUsedAt):
		return a.LastUsedAt.Before(*b.LastUsedAt)
	}
	return a.ID < b.ID
}

func mergeUsage(t *models.ResponseTemplate, old *models.ResponseTemplate) {
	if old.UsageCount > t.UsageCount {
		t.UsageCount = old.UsageCount
	}
	if old.LastUsedAt != nil && (t.LastUsedAt == nil || old.LastUsedAt.After(*t.LastUsedAt)) {
		at := *old.LastUsedAt
		t.LastUsedAt = &at
	}
}

func copyTemplate(t *models.ResponseTemplate) models.ResponseTemplate {
	c := *t
	if t.LastUsedAt != nil {
		at := *t.LastUsedAt
		c.LastUsedAt = &at
	}
	return c
}
