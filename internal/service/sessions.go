package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"workout_coach/internal/coaching"
	"workout_coach/internal/models"
	"workout_coach/internal/playback"
	"workout_coach/internal/repository"
	"workout_coach/internal/voice"
)

const (
	teardownTimeout   = 30 * time.Second
	checkpointTimeout = 5 * time.Second
)

// SessionService owns the live sessions of this process.
type SessionService struct {
	workouts *WorkoutService
	store    repository.SessionRepo
	setLogs  repository.SetLogRepo
	bank     *coaching.Bank
	hub      *Hub
	events   *eventWriter
	opts     Options

	mu   sync.RWMutex
	live map[string]*liveSession
	wg   sync.WaitGroup
}

func NewSessionService(repos *repository.Repository, workouts *WorkoutService, bank *coaching.Bank, opts Options) *SessionService {
	opts = opts.withDefaults()
	return &SessionService{
		workouts: workouts,
		store:    repos.Sessions,
		setLogs:  repos.SetLogs,
		bank:     bank,
		hub:      NewHub(defaultHubBuffer),
		events:   newEventWriter(repos.Events, opts.Log, eventQueueSize),
		opts:     opts,
		live:     make(map[string]*liveSession),
	}
}

// StartSession compiles the workout and starts playback.
func (s *SessionService) StartSession(ctx context.Context, req StartSessionRequest) (SessionView, error) {
	name, blocks := strings.TrimSpace(req.Name), req.Blocks
	if req.WorkoutID != "" {
		w, err := s.workouts.GetWorkout(ctx, req.WorkoutID)
		if err != nil {
			return SessionView{}, err
		}
		blocks = w.Blocks
		if name == "" {
			name = w.Name
		}
	} else if len(blocks) == 0 {
		return SessionView{}, fmt.Errorf("%w: workout_id or blocks required", ErrInvalidInput)
	}

	settings := models.CoachSettings{ChatterLevel: req.ChatterLevel, Locale: strings.TrimSpace(req.Locale)}
	if settings.ChatterLevel == "" {
		settings.ChatterLevel = s.opts.Chatter
	}
	if settings.Locale == "" {
		settings.Locale = s.opts.Locale
	}
	if !settings.ChatterLevel.Valid() {
		return SessionView{}, fmt.Errorf("%w: unknown chatter_level %q", ErrInvalidInput, settings.ChatterLevel)
	}

	tl, err := s.workouts.compile(ctx, req.WorkoutID, name, blocks)
	if err != nil {
		return SessionView{}, err
	}

	now := s.opts.Clock.Now().UTC()
	rec := models.SessionRecord{
		ID:          uuid.NewString(),
		WorkoutID:   req.WorkoutID,
		WorkoutName: tl.Name,
		UserID:      req.UserID,
		Status:      models.StatusRunning,
		TotalMs:     tl.TotalMs,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return SessionView{}, err
	}

	ls := s.newLiveSession(rec, settings, tl, strings.TrimSpace(req.AthleteName))
	s.mu.Lock()
	s.live[rec.ID] = ls
	s.mu.Unlock()

	if err := ls.scheduler.Start(context.Background(), tl); err != nil {
		s.mu.Lock()
		delete(s.live, rec.ID)
		s.mu.Unlock()
		return SessionView{}, err
	}
	s.opts.Log.Infow("session_started", "session_id", rec.ID, "workout", tl.Name,
		"steps", len(tl.Steps), "total_ms", tl.TotalMs)
	return ls.view(true), nil
}

func (s *SessionService) newLiveSession(rec models.SessionRecord, settings models.CoachSettings,
	tl *models.CompiledTimeline, athlete string) *liveSession {
	log := s.opts.Log.With("session_id", rec.ID)
	ls := &liveSession{
		id:         rec.ID,
		settings:   settings,
		vars:       map[string]string{"name": athlete},
		timeline:   tl,
		bank:       s.bank,
		hub:        s.hub,
		events:     s.events,
		clock:      s.opts.Clock,
		log:        log,
		onFinished: s.finish,
		record:     rec,
		done:       make(chan struct{}),
	}
	ls.scheduler = playback.New(playback.Config{
		TickPeriod:         s.opts.TickPeriod,
		DriftCheckInterval: s.opts.DriftCheck,
		Clock:              s.opts.Clock,
		Log:                log,
	})
	ls.router = coaching.NewRouter(rec.ID, log)
	ls.router.Attach(ls.scheduler)
	ls.router.Subscribe(ls.onEvent)
	ls.gate = voice.NewGate(s.opts.NewTransport(rec.ID, ls.onAudio), voice.GateConfig{
		Fallback: s.opts.VoiceFallback,
		Clock:    s.opts.Clock,
		Log:      log,
	})
	return ls
}

// lookup returns the live session for id. Sessions that exist only in storage
// yield ErrSessionNotActive.
func (s *SessionService) lookup(ctx context.Context, id string) (*liveSession, error) {
	s.mu.RLock()
	ls, ok := s.live[id]
	s.mu.RUnlock()
	if ok {
		return ls, nil
	}
	if _, err := s.stored(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrSessionNotActive
}

func (s *SessionService) stored(ctx context.Context, id string) (models.SessionRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.SessionRecord{}, ErrSessionNotFound
	}
	return rec, err
}

func (s *SessionService) GetSession(ctx context.Context, id string) (SessionView, error) {
	s.mu.RLock()
	ls, ok := s.live[id]
	s.mu.RUnlock()
	if ok {
		return ls.view(false), nil
	}
	rec, err := s.stored(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	return SessionView{SessionRecord: rec}, nil
}

func (s *SessionService) control(ctx context.Context, id string, fn func(*liveSession)) (SessionView, error) {
	ls, err := s.lookup(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	fn(ls)
	return ls.view(false), nil
}

func (s *SessionService) PauseSession(ctx context.Context, id string) (SessionView, error) {
	return s.control(ctx, id, func(ls *liveSession) { ls.scheduler.Pause() })
}

func (s *SessionService) ResumeSession(ctx context.Context, id string) (SessionView, error) {
	return s.control(ctx, id, func(ls *liveSession) { ls.scheduler.Resume() })
}

func (s *SessionService) ConfirmReady(ctx context.Context, id string) (SessionView, error) {
	return s.control(ctx, id, func(ls *liveSession) { ls.scheduler.ConfirmReady() })
}

func (s *SessionService) CompleteSet(ctx context.Context, id string) (SessionView, error) {
	return s.control(ctx, id, func(ls *liveSession) { ls.scheduler.CompleteSet() })
}

// StopSession ends playback, speaks the farewell line and tears the session
// down in the background.
func (s *SessionService) StopSession(ctx context.Context, id string) (SessionView, error) {
	ls, err := s.lookup(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	s.stop(ls)
	return ls.view(false), nil
}

func (s *SessionService) stop(ls *liveSession) {
	if ls.scheduler.Status() == models.StatusComplete {
		return
	}
	ls.scheduler.Stop()
	st := ls.scheduler.Snapshot()
	ls.router.Stop(s.opts.Clock.Now(), st.ElapsedMs)
	s.finish(ls, models.StatusStopped)
}

// finish tears ls down once: it waits for the voice gate to drain, persists
// the final record and closes the session's streams.
func (s *SessionService) finish(ls *liveSession, status models.SchedulerStatus) {
	if !ls.markFinishing() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.teardown(ls, status)
	}()
}

func (s *SessionService) teardown(ls *liveSession, status models.SchedulerStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	// Each release may start the next queued line, so wait until the
	// queue is empty too.
	for ls.gate.Active() || ls.gate.Pending() > 0 {
		if !ls.gate.WaitForIdle(ctx) || ctx.Err() != nil {
			ls.log.Warnw("voice_idle_wait_expired", "pending", ls.gate.Pending())
			break
		}
	}
	ls.gate.Close()
	if !ls.scheduler.Status().Terminal() {
		ls.scheduler.Stop()
	}

	now := s.opts.Clock.Now()
	st := ls.scheduler.Snapshot()
	rec := ls.finalRecord(status, st.ElapsedMs, now)
	if err := s.store.Save(ctx, rec); err != nil {
		ls.log.Errorw("session_save_failed", "error", err)
	}

	s.mu.Lock()
	delete(s.live, ls.id)
	s.mu.Unlock()

	s.hub.Publish(StreamMessage{Type: StreamClosed, SessionID: ls.id, At: now, State: &st})
	s.hub.CloseSession(ls.id)
	close(ls.done)
	ls.log.Infow("session_finished", "status", status, "elapsed_ms", st.ElapsedMs)
}

// LogSet records a performed set. For live sessions missing fields default
// to the current step.
func (s *SessionService) LogSet(ctx context.Context, id string, in SetLogInput) (models.SetLog, error) {
	entry := models.SetLog{
		ID:         uuid.NewString(),
		SessionID:  id,
		ExerciseID: strings.TrimSpace(in.ExerciseID),
		Set:        in.Set,
		Reps:       in.Reps,
		WeightKg:   in.WeightKg,
		RIR:        in.RIR,
		LoggedAt:   s.opts.Clock.Now().UTC(),
		StepIndex:  -1,
	}
	if in.StepIndex != nil {
		entry.StepIndex = *in.StepIndex
	}

	s.mu.RLock()
	ls, ok := s.live[id]
	s.mu.RUnlock()
	if ok {
		if entry.StepIndex < 0 {
			entry.StepIndex = ls.scheduler.Snapshot().CurrentStepIndex
		}
		if i := entry.StepIndex; i >= 0 && i < len(ls.timeline.Steps) {
			step := ls.timeline.Steps[i]
			if entry.ExerciseID == "" {
				entry.ExerciseID = step.ExerciseID
			}
			if entry.Set == 0 {
				entry.Set = step.Set
			}
		}
	} else if _, err := s.stored(ctx, id); err != nil {
		return models.SetLog{}, err
	}

	switch {
	case entry.ExerciseID == "":
		return models.SetLog{}, fmt.Errorf("%w: exercise_id is required", ErrInvalidInput)
	case entry.Reps < 0 || entry.Set < 0 || entry.WeightKg < 0:
		return models.SetLog{}, fmt.Errorf("%w: set, reps and weight must not be negative", ErrInvalidInput)
	}
	if err := s.setLogs.Append(ctx, entry); err != nil {
		return models.SetLog{}, err
	}
	return entry, nil
}

// HandleTranscript applies a voice command from a final transcript.
func (s *SessionService) HandleTranscript(ctx context.Context, id string, in Transcript) (TranscriptResult, error) {
	ls, err := s.lookup(ctx, id)
	if err != nil {
		return TranscriptResult{}, err
	}
	if !in.IsFinal {
		return TranscriptResult{Action: ActionIgnored, Session: ls.view(false)}, nil
	}
	action := parseCommand(in.Text)
	switch action {
	case ActionReady:
		ls.scheduler.ConfirmReady()
	case ActionPause:
		ls.scheduler.Pause()
	case ActionResume:
		ls.scheduler.Resume()
	}
	ls.log.Debugw("transcript_handled", "text", in.Text, "action", action)
	return TranscriptResult{Action: action, Session: ls.view(false)}, nil
}

// SubscribeSession streams the messages of a live session.
func (s *SessionService) SubscribeSession(id string) (<-chan StreamMessage, func(), error) {
	s.mu.RLock()
	_, ok := s.live[id]
	if !ok {
		s.mu.RUnlock()
		return nil, nil, ErrSessionNotActive
	}
	ch, unsubscribe := s.hub.Subscribe(id)
	s.mu.RUnlock()
	return ch, unsubscribe, nil
}

func (s *SessionService) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Second
	}
	ticker := s.opts.Clock.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-ticker.C():
			s.checkpoint(ctx)
		}
	}
}

// checkpoint persists and broadcasts the state of every live session.
func (s *SessionService) checkpoint(ctx context.Context) {
	for _, ls := range s.snapshotLive() {
		st := ls.scheduler.Snapshot()
		if st.Status.Terminal() {
			continue
		}
		now := s.opts.Clock.Now()
		rec := ls.snapshotRecord(st, now)
		s.hub.Publish(StreamMessage{Type: StreamState, SessionID: ls.id, At: now, State: &st})

		cctx, cancel := context.WithTimeout(ctx, checkpointTimeout)
		if err := s.store.Save(cctx, rec); err != nil {
			ls.log.Warnw("session_checkpoint_failed", "error", err)
		}
		cancel()
	}
}

// shutdown stops every live session and waits for their teardown.
func (s *SessionService) shutdown() {
	for _, ls := range s.snapshotLive() {
		s.stop(ls)
	}
	s.wg.Wait()
	s.events.Close()
}

func (s *SessionService) snapshotLive() []*liveSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*liveSession, 0, len(s.live))
	for _, ls := range s.live {
		out = append(out, ls)
	}
	return out
}
