package voice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"workout_coach/internal/clock"
	"workout_coach/internal/logger"
)

const DefaultFallback = 12 * time.Second

// GateConfig configures a Gate. Zero values take defaults.
type GateConfig struct {
	Fallback time.Duration
	Clock    clock.Clock
	Log      *logger.Logger
}

// Gate forwards at most one request at a time to its transport. Requests
// made while one is in flight are queued in order. A fallback timer releases
// the gate when the transport never reports completion.
type Gate struct {
	transport Transport
	clock     clock.Clock
	fallback  time.Duration
	log       *logger.Logger

	mu        sync.Mutex
	active    bool
	current   Request
	startedAt time.Time
	queue     []Request
	timer     clock.Timer
	waiters   []chan struct{}
	closed    bool
}

func NewGate(t Transport, cfg GateConfig) *Gate {
	if cfg.Fallback <= 0 {
		cfg.Fallback = DefaultFallback
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	g := &Gate{
		transport: t,
		clock:     cfg.Clock,
		fallback:  cfg.Fallback,
		log:       logger.OrNop(cfg.Log),
	}
	if b, ok := t.(Binder); ok {
		b.Bind(Callbacks{Started: g.generationStarted, Completed: g.Complete})
	}
	return g
}

// Request forwards req immediately when the gate is idle and queues it
// otherwise. An empty ID is filled in.
func (g *Gate) Request(req Request) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	if g.active {
		g.queue = append(g.queue, req)
		g.mu.Unlock()
		return
	}
	g.startLocked(req)
	g.mu.Unlock()

	g.forward(req)
}

// NotifyGenerationComplete releases the gate for whatever request is in
// flight.
func (g *Gate) NotifyGenerationComplete() {
	g.finish("", "complete")
}

// Complete releases the gate if id is the request in flight. Late
// completions for requests already released by the fallback are ignored.
func (g *Gate) Complete(id string) {
	g.finish(id, "complete")
}

// WaitForIdle returns true once the gate is idle, or false when the fallback
// period or ctx runs out first.
func (g *Gate) WaitForIdle(ctx context.Context) bool {
	g.mu.Lock()
	if !g.active {
		g.mu.Unlock()
		return true
	}
	ch := make(chan struct{})
	g.waiters = append(g.waiters, ch)
	g.mu.Unlock()

	timeout := make(chan struct{})
	t := g.clock.AfterFunc(g.fallback, func() { close(timeout) })
	defer t.Stop()

	select {
	case <-ch:
		return true
	case <-timeout:
		return false
	case <-ctx.Done():
		return false
	}
}

// Active reports whether a request is in flight.
func (g *Gate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Pending returns the number of queued requests.
func (g *Gate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// Close drops queued requests and releases waiters. Later requests are
// ignored.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.queue = nil
	g.active = false
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
}

func (g *Gate) startLocked(req Request) {
	g.active = true
	g.current = req
	g.startedAt = g.clock.Now()
	id := req.ID
	g.timer = g.clock.AfterFunc(g.fallback, func() {
		g.log.Warnw("voice_fallback_fired", "request_id", id, "event", req.EventName, "after", g.fallback.String())
		g.finish(id, "fallback")
	})
}

func (g *Gate) forward(req Request) {
	if err := g.transport.Speak(context.Background(), req); err != nil {
		g.log.Warnw("voice_speak_failed", "request_id", req.ID, "event", req.EventName, "error", err)
		g.finish(req.ID, "speak_failed")
	}
}

func (g *Gate) generationStarted(id string) {
	g.log.Debugw("voice_generation_started", "request_id", id)
}

func (g *Gate) finish(id, reason string) {
	g.mu.Lock()
	if !g.active || (id != "" && g.current.ID != id) {
		g.mu.Unlock()
		return
	}
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.log.Debugw("voice_generation_finished", "request_id", g.current.ID, "reason", reason,
		"took", g.clock.Now().Sub(g.startedAt).String())
	g.active = false
	g.current = Request{}
	waiters := g.waiters
	g.waiters = nil

	var next Request
	hasNext := len(g.queue) > 0
	if hasNext {
		next = g.queue[0]
		g.queue = g.queue[1:]
		g.startLocked(next)
	}
	g.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
	if hasNext {
		g.forward(next)
	}
}
