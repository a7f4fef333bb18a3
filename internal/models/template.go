package models

import "time"

// ChatterLevel is the coaching verbosity setting.
type ChatterLevel string

const (
	ChatterSilent  ChatterLevel = "silent"
	ChatterMinimal ChatterLevel = "minimal"
	ChatterHigh    ChatterLevel = "high"
)

func (c ChatterLevel) Valid() bool {
	return c == ChatterSilent || c == ChatterMinimal || c == ChatterHigh
}

// AnyMatch is the wildcard accepted by template pattern and mode fields.
const AnyMatch = "any"

// ResponseTemplate is one coaching line in the template bank.
type ResponseTemplate struct {
	ID              string       `json:"id" yaml:"id"`
	EventType       EventType    `json:"event_type" yaml:"event_type"`
	Pattern         string       `json:"pattern" yaml:"pattern"` // a Pattern or "any"
	Mode            string       `json:"mode" yaml:"mode"`       // a Mode or "any"
	ChatterLevel    ChatterLevel `json:"chatter_level" yaml:"chatter_level"`
	Locale          string       `json:"locale" yaml:"locale"`
	TextTemplate    string       `json:"text_template" yaml:"text"`
	Priority        int          `json:"priority" yaml:"priority"`
	CooldownSeconds int          `json:"cooldown_seconds" yaml:"cooldown_seconds"`
	Active          bool         `json:"active" yaml:"active"`
	UsageCount      int          `json:"usage_count" yaml:"-"`
	LastUsedAt      *time.Time   `json:"last_used_at,omitempty" yaml:"-"`
}
