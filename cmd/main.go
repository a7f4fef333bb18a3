package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	_ "workout_coach/docs"
	"workout_coach/internal/coaching"
	"workout_coach/internal/config"
	"workout_coach/internal/handlers"
	"workout_coach/internal/logger"
	"workout_coach/internal/models"
	"workout_coach/internal/repository"
	"workout_coach/internal/repository/db"
	"workout_coach/internal/server"
	"workout_coach/internal/service"
	"workout_coach/internal/voice"
)

const (
	checkpointEvery = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// @title                       Workout Coach API
// @version                     1.0
// @description                 Compiles workouts into timelines and coaches live sessions.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load("configs", ".")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.GetWithFormat(cfg.Log.Level, cfg.Log.Format)

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := serviceOptions(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to configure services", "err", err)
	}
	services := service.NewService(repository.NewRepository(conn), opts)

	if err := seedTemplates(ctx, cfg, services, log); err != nil {
		log.Fatalw("failed to load response templates", "err", err)
	}

	srv := server.New(cfg.Port, handlers.NewHandler(services, log).InitRoutes())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("http server listening", "addr", srv.Addr())
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		services.Run(gctx, checkpointEvery)
		return nil
	})
	if cfg.Coach.WatchTemplates {
		w := coaching.NewWatcher(cfg.Coach.TemplatesFile, func(ts []models.ResponseTemplate) {
			if err := services.ImportTemplates(gctx, ts); err != nil {
				log.Warnw("template_reload_rejected", "err", err)
			}
		}, log)
		g.Go(func() error { return w.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func serviceOptions(ctx context.Context, cfg *config.Config, log *logger.Logger) (service.Options, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warnw("auth.jwt_secret not set; tokens will not survive a restart")
	}

	opts := service.Options{
		Log:           log,
		JWTSecret:     secret,
		TokenTTL:      cfg.Auth.TokenTTL,
		PreWorkoutSec: cfg.Compile.PreWorkoutS,
		TransitionSec: cfg.Compile.TransitionS,
		RepPaceMs:     cfg.Compile.RepPaceMs,
		StrictGating:  cfg.Compile.StrictGating,
		TickPeriod:    cfg.Scheduler.TickPeriod(),
		DriftCheck:    cfg.Scheduler.DriftCheckInterval(),
		VoiceFallback: cfg.Voice.Fallback(),
		Locale:        cfg.Coach.Locale,
		Chatter:       models.ChatterLevel(cfg.Coach.Chatter),
	}

	if cfg.Voice.Provider == config.VoicePolly {
		client, err := voice.NewPollyClient(ctx, cfg.Voice.Polly.Region)
		if err != nil {
			return opts, err
		}
		pcfg := voice.PollyConfig{
			Region:  cfg.Voice.Polly.Region,
			VoiceID: cfg.Voice.Polly.Voice,
			Engine:  cfg.Voice.Polly.Engine,
		}
		opts.NewTransport = func(sessionID string, sink voice.AudioSink) voice.Transport {
			return voice.NewPollyTransport(client, pcfg, sink, log.With("session_id", sessionID))
		}
		log.Infow("speech via amazon polly", "region", cfg.Voice.Polly.Region, "voice", cfg.Voice.Polly.Voice)
	}
	return opts, nil
}

// seedTemplates imports the seed file when configured, otherwise loads the
// templates already stored.
func seedTemplates(ctx context.Context, cfg *config.Config, services *service.Service, log *logger.Logger) error {
	if cfg.Coach.TemplatesFile == "" {
		return services.LoadTemplates(ctx)
	}
	ts, err := coaching.LoadTemplateFile(cfg.Coach.TemplatesFile)
	if err != nil {
		return err
	}
	if err := services.ImportTemplates(ctx, ts); err != nil {
		return err
	}
	log.Infow("response templates imported", "file", cfg.Coach.TemplatesFile, "count", len(ts))
	return nil
}
