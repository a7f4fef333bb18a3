// Package voice serializes spoken coaching output through a single-flight
// gate in front of a speech transport.
package voice

import (
	"context"

	"workout_coach/internal/logger"
	"workout_coach/internal/models"
)

// Request is one utterance handed to a transport.
type Request struct {
	ID        string
	SessionID string
	EventName string
	Text      string
	Payload   models.EventPayload
}

// Transport starts speaking a request. Speak must not block until playback
// ends; completion is reported through the callbacks given to Bind.
type Transport interface {
	Speak(ctx context.Context, req Request) error
}

// Callbacks are the generation lifecycle hooks a transport reports to.
type Callbacks struct {
	Started   func(id string)
	Completed func(id string)
}

// Binder is implemented by transports that report generation lifecycle. The
// gate binds itself as the only subscriber.
type Binder interface {
	Bind(Callbacks)
}

// LogTransport writes utterances to the log and completes them at once. It is
// the transport used when no speech provider is configured.
type LogTransport struct {
	log *logger.Logger
	cb  Callbacks
}

func NewLogTransport(log *logger.Logger) *LogTransport {
	return &LogTransport{log: logger.OrNop(log)}
}

func (t *LogTransport) Bind(cb Callbacks) { t.cb = cb }

func (t *LogTransport) Speak(_ context.Context, req Request) error {
	if t.cb.Started != nil {
		t.cb.Started(req.ID)
	}
	t.log.Infow("voice_utterance", "session_id", req.SessionID, "event", req.EventName, "text", req.Text)
	if t.cb.Completed != nil {
		t.cb.Completed(req.ID)
	}
	return nil
}
