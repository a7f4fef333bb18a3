// Package config loads service configuration from configs/config.yml and
// COACH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"workout_coach/internal/models"
)

type Config struct {
	Port      string          `mapstructure:"port"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Compile   CompileConfig   `mapstructure:"compile"`
	Voice     VoiceConfig     `mapstructure:"voice"`
	Coach     CoachConfig     `mapstructure:"coach"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type SchedulerConfig struct {
	TickMs      int `mapstructure:"tick_ms"`
	DriftCheckS int `mapstructure:"drift_check_s"`
}

func (s SchedulerConfig) TickPeriod() time.Duration {
	return time.Duration(s.TickMs) * time.Millisecond
}

func (s SchedulerConfig) DriftCheckInterval() time.Duration {
	return time.Duration(s.DriftCheckS) * time.Second
}

type CompileConfig struct {
	PreWorkoutS  int   `mapstructure:"pre_workout_s"`
	TransitionS  int   `mapstructure:"transition_s"`
	RepPaceMs    int64 `mapstructure:"rep_pace_ms"`
	StrictGating bool  `mapstructure:"strict_gating"`
}

type VoiceConfig struct {
	Provider  string      `mapstructure:"provider"`
	FallbackS int         `mapstructure:"fallback_s"`
	Polly     PollyConfig `mapstructure:"polly"`
}

func (v VoiceConfig) Fallback() time.Duration {
	return time.Duration(v.FallbackS) * time.Second
}

type PollyConfig struct {
	Region string `mapstructure:"region"`
	Voice  string `mapstructure:"voice"`
	Engine string `mapstructure:"engine"`
}

type CoachConfig struct {
	TemplatesFile  string `mapstructure:"templates_file"`
	WatchTemplates bool   `mapstructure:"watch_templates"`
	Locale         string `mapstructure:"locale"`
	Chatter        string `mapstructure:"chatter"`
}

// Voice providers.
const (
	VoiceLog   = "log"
	VoicePolly = "polly"
)

const envPrefix = "COACH"

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", "coach.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("scheduler.tick_ms", 100)
	v.SetDefault("scheduler.drift_check_s", 15)
	v.SetDefault("compile.pre_workout_s", 10)
	v.SetDefault("compile.transition_s", 15)
	v.SetDefault("compile.rep_pace_ms", 3000)
	v.SetDefault("compile.strict_gating", false)
	v.SetDefault("voice.provider", VoiceLog)
	v.SetDefault("voice.fallback_s", 12)
	v.SetDefault("voice.polly.region", "us-east-1")
	v.SetDefault("voice.polly.voice", "Joanna")
	v.SetDefault("voice.polly.engine", "neural")
	v.SetDefault("coach.templates_file", "")
	v.SetDefault("coach.watch_templates", false)
	v.SetDefault("coach.locale", "en")
	v.SetDefault("coach.chatter", string(models.ChatterMinimal))
}

// Load reads config.yml from dirs (first match wins), then applies COACH_*
// environment overrides, e.g. COACH_DB_PATH or COACH_VOICE_POLLY_REGION. A
// missing file is not an error; defaults cover every key.
func Load(dirs ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Port == "":
		return errors.New("port is required")
	case c.DB.Path == "":
		return errors.New("db.path is required")
	case c.Scheduler.TickMs <= 0:
		return fmt.Errorf("scheduler.tick_ms must be positive, got %d", c.Scheduler.TickMs)
	case c.Scheduler.DriftCheckS <= 0:
		return fmt.Errorf("scheduler.drift_check_s must be positive, got %d", c.Scheduler.DriftCheckS)
	case c.Compile.PreWorkoutS < 0 || c.Compile.TransitionS < 0:
		return errors.New("compile durations must not be negative")
	case c.Compile.RepPaceMs <= 0:
		return fmt.Errorf("compile.rep_pace_ms must be positive, got %d", c.Compile.RepPaceMs)
	case c.Voice.Provider != VoiceLog && c.Voice.Provider != VoicePolly:
		return fmt.Errorf("voice.provider must be %q or %q, got %q", VoiceLog, VoicePolly, c.Voice.Provider)
	case c.Voice.FallbackS <= 0:
		return fmt.Errorf("voice.fallback_s must be positive, got %d", c.Voice.FallbackS)
	case !models.ChatterLevel(c.Coach.Chatter).Valid():
		return fmt.Errorf("coach.chatter: unknown level %q", c.Coach.Chatter)
	case c.Coach.WatchTemplates && c.Coach.TemplatesFile == "":
		return errors.New("coach.watch_templates requires coach.templates_file")
	}
	return nil
}
