package coaching

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"workout_coach/internal/models"
)

// templateFile is the on-disk shape of a template seed file:
//
//	templates:
//	  - id: rest-any-1
//	    event_type: rest_start
//	    text: "Rest. {next_exercise} is next."
type templateFile struct {
	Templates []templateEntry `yaml:"templates"`
}

type templateEntry struct {
	ID              string `yaml:"id"`
	EventType       string `yaml:"event_type"`
	Pattern         string `yaml:"pattern"`
	Mode            string `yaml:"mode"`
	ChatterLevel    string `yaml:"chatter_level"`
	Locale          string `yaml:"locale"`
	Text            string `yaml:"text"`
	Priority        int    `yaml:"priority"`
	CooldownSeconds int    `yaml:"cooldown_seconds"`
	Active          *bool  `yaml:"active"`
}

// LoadTemplateFile reads a YAML template seed file.
func LoadTemplateFile(path string) ([]models.ResponseTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates %s: %w", path, err)
	}
	ts, err := ParseTemplates(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse templates %s: %w", path, err)
	}
	return ts, nil
}

// ParseTemplates decodes templates and applies defaults: pattern and mode
// "any", chatter "minimal", locale "en", active true.
func ParseTemplates(r io.Reader) ([]models.ResponseTemplate, error) {
	var f templateFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	seen := make(map[string]bool, len(f.Templates))
	out := make([]models.ResponseTemplate, 0, len(f.Templates))
	for i, e := range f.Templates {
		t, err := e.toTemplate()
		if err != nil {
			return nil, fmt.Errorf("template %d (%s): %w", i, e.ID, err)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("template %d: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out, nil
}

func (e templateEntry) toTemplate() (models.ResponseTemplate, error) {
	t := models.ResponseTemplate{
		ID:              e.ID,
		EventType:       models.EventType(e.EventType),
		Pattern:         orDefault(e.Pattern, models.AnyMatch),
		Mode:            orDefault(e.Mode, models.AnyMatch),
		ChatterLevel:    models.ChatterLevel(orDefault(e.ChatterLevel, string(models.ChatterMinimal))),
		Locale:          orDefault(e.Locale, "en"),
		TextTemplate:    e.Text,
		Priority:        e.Priority,
		CooldownSeconds: e.CooldownSeconds,
		Active:          e.Active == nil || *e.Active,
	}
	return t, ValidateTemplate(t)
}

// ValidateTemplate checks the closed-set fields of t.
func ValidateTemplate(t models.ResponseTemplate) error {
	switch {
	case t.ID == "":
		return errors.New("id is required")
	case !t.EventType.Valid():
		return fmt.Errorf("unknown event_type %q", t.EventType)
	case t.Pattern != models.AnyMatch && !models.Pattern(t.Pattern).Valid():
		return fmt.Errorf("unknown pattern %q", t.Pattern)
	case t.Mode != models.AnyMatch && !models.Mode(t.Mode).Valid():
		return fmt.Errorf("unknown mode %q", t.Mode)
	case !t.ChatterLevel.Valid():
		return fmt.Errorf("unknown chatter_level %q", t.ChatterLevel)
	case t.Locale == "":
		return errors.New("locale is required")
	case t.TextTemplate == "":
		return errors.New("text is required")
	case t.CooldownSeconds < 0:
		return fmt.Errorf("cooldown_seconds must not be negative, got %d", t.CooldownSeconds)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
