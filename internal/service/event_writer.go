package service

import (
	"context"
	"sync"
	"time"

	"workout_coach/internal/logger"
	"workout_coach/internal/models"
	"workout_coach/internal/repository"
)

const (
	eventQueueSize    = 256
	eventWriteTimeout = 5 * time.Second
)

// eventWriter appends coaching events to the log from a single goroutine so
// the scheduler never waits on storage.
type eventWriter struct {
	repo repository.EventRepo
	log  *logger.Logger

	mu     sync.Mutex
	closed bool
	ch     chan models.EventRecord
	done   chan struct{}
}

func newEventWriter(repo repository.EventRepo, log *logger.Logger, size int) *eventWriter {
	if size <= 0 {
		size = eventQueueSize
	}
	w := &eventWriter{
		repo: repo,
		log:  logger.OrNop(log),
		ch:   make(chan models.EventRecord, size),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Enqueue queues rec for writing. It reports false when the queue is full or
// the writer is closed.
func (w *eventWriter) Enqueue(rec models.EventRecord) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	select {
	case w.ch <- rec:
		return true
	default:
		w.log.Warnw("event_log_dropped", "session_id", rec.SessionID, "type", rec.Type)
		return false
	}
}

// Close flushes queued events and stops the writer.
func (w *eventWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()
	<-w.done
}

func (w *eventWriter) loop() {
	defer close(w.done)
	for rec := range w.ch {
		ctx, cancel := context.WithTimeout(context.Background(), eventWriteTimeout)
		if err := w.repo.Append(ctx, rec); err != nil {
			w.log.Errorw("event_log_append_failed", "session_id", rec.SessionID, "type", rec.Type, "error", err)
		}
		cancel()
	}
}
