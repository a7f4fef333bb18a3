package service

import (
	"context"
	"time"

	"workout_coach/internal/clock"
	"workout_coach/internal/logger"
	"workout_coach/internal/models"
	"workout_coach/internal/repository"
	"workout_coach/internal/voice"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Workouts stores authored workouts and compiles them into timelines.
type Workouts interface {
	CreateWorkout(ctx context.Context, raw []byte) (models.WorkoutDefinition, error)
	GetWorkout(ctx context.Context, id string) (models.WorkoutDefinition, error)
	ListWorkouts(ctx context.Context) ([]models.WorkoutDefinition, error)
	CompileTimeline(ctx context.Context, name string, blocks []models.Block) (*models.CompiledTimeline, error)
}

// Catalog resolves exercise metadata. Lookup never fails; unknown ids get a
// placeholder entry.
type Catalog interface {
	Lookup(ctx context.Context, id string) models.Exercise
	UpsertExercise(ctx context.Context, e models.Exercise) (models.Exercise, error)
	GetExercise(ctx context.Context, id string) (models.Exercise, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
}

// Templates manages the response template bank and its persisted copy.
type Templates interface {
	ListTemplates() []models.ResponseTemplate
	UpsertTemplate(ctx context.Context, t models.ResponseTemplate) (models.ResponseTemplate, error)
	DeactivateTemplate(ctx context.Context, id string) error
	ImportTemplates(ctx context.Context, ts []models.ResponseTemplate) error
	// LoadTemplates replaces the in-memory bank with the stored templates.
	LoadTemplates(ctx context.Context) error
}

// Sessions runs live workout sessions.
type Sessions interface {
	StartSession(ctx context.Context, req StartSessionRequest) (SessionView, error)
	GetSession(ctx context.Context, id string) (SessionView, error)
	PauseSession(ctx context.Context, id string) (SessionView, error)
	ResumeSession(ctx context.Context, id string) (SessionView, error)
	ConfirmReady(ctx context.Context, id string) (SessionView, error)
	CompleteSet(ctx context.Context, id string) (SessionView, error)
	StopSession(ctx context.Context, id string) (SessionView, error)
	LogSet(ctx context.Context, id string, in SetLogInput) (models.SetLog, error)
	HandleTranscript(ctx context.Context, id string, in Transcript) (TranscriptResult, error)
	SubscribeSession(id string) (<-chan StreamMessage, func(), error)
	// Run periodically checkpoints active sessions until ctx is done, then
	// stops every session still running.
	Run(ctx context.Context, every time.Duration)
}

// EventLog exposes the append-only coaching event log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.EventRecord, error)
}

type Service struct {
	Authorization
	Workouts
	Catalog
	Templates
	Sessions
	EventLog
}

// Options carries runtime settings shared by the sub-services.
type Options struct {
	Clock clock.Clock
	Log   *logger.Logger

	JWTSecret string
	TokenTTL  time.Duration

	PreWorkoutSec int
	TransitionSec int
	RepPaceMs     int64
	StrictGating  bool

	TickPeriod    time.Duration
	DriftCheck    time.Duration
	VoiceFallback time.Duration

	Locale  string
	Chatter models.ChatterLevel

	// NewTransport builds the speech transport for one session. Nil selects
	// the log transport.
	NewTransport func(sessionID string, sink voice.AudioSink) voice.Transport
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	o.Log = logger.OrNop(o.Log)
	if o.TokenTTL <= 0 {
		o.TokenTTL = time.Hour
	}
	if o.Locale == "" {
		o.Locale = "en"
	}
	if o.Chatter == "" {
		o.Chatter = models.ChatterMinimal
	}
	if o.NewTransport == nil {
		log := o.Log
		o.NewTransport = func(string, voice.AudioSink) voice.Transport { return voice.NewLogTransport(log) }
	}
	return o
}

func NewService(repos *repository.Repository, opts Options) *Service {
	opts = opts.withDefaults()
	catalog := NewCatalogService(repos.Exercises, opts.Log)
	workouts := NewWorkoutService(repos.Workouts, catalog, opts)
	templates := NewTemplateService(repos.Templates, opts.Clock, opts.Log)
	return &Service{
		Authorization: NewAuthService(repos.Auth, opts.JWTSecret, opts.TokenTTL),
		Workouts:      workouts,
		Catalog:       catalog,
		Templates:     templates,
		Sessions:      NewSessionService(repos, workouts, templates.Bank(), opts),
		EventLog:      NewEventLogService(repos.Events),
	}
}
