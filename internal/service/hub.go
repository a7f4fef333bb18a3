package service

import (
	"sync"
	"time"

	"workout_coach/internal/models"
)

// Stream message types.
const (
	StreamEvent   = "event"
	StreamCaption = "caption"
	StreamBeep    = "beep"
	StreamAudio   = "audio"
	StreamState   = "state"
	StreamClosed  = "closed"
)

// BeepKind is the cue a client plays for a beep message.
type BeepKind string

const (
	BeepStart     BeepKind = "start"
	BeepEnd       BeepKind = "end"
	BeepCountdown BeepKind = "countdown"
)

// Caption is the text of one selected utterance.
type Caption struct {
	TemplateID string `json:"template_id"`
	EventType  string `json:"event_type"`
	Text       string `json:"text"`
}

// AudioChunk is synthesized speech for one utterance. Data is base64 in JSON.
type AudioChunk struct {
	RequestID   string `json:"request_id"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// StreamMessage is the envelope pushed to session stream subscribers.
type StreamMessage struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id"`
	At        time.Time              `json:"at"`
	Event     *models.CoachingEvent  `json:"event,omitempty"`
	Caption   *Caption               `json:"caption,omitempty"`
	Beep      BeepKind               `json:"beep,omitempty"`
	Countdown int                    `json:"countdown,omitempty"`
	Audio     *AudioChunk            `json:"audio,omitempty"`
	State     *models.SchedulerState `json:"state,omitempty"`
}

const defaultHubBuffer = 64

// Hub fans session messages out to subscribers over buffered channels.
// Publish never blocks: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string][]chan StreamMessage
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultHubBuffer
	}
	return &Hub{subs: make(map[string][]chan StreamMessage), buffer: buffer}
}

// Subscribe returns a channel of messages for sessionID and an unsubscribe
// function. The channel is closed on unsubscribe or CloseSession.
func (h *Hub) Subscribe(sessionID string) (<-chan StreamMessage, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan StreamMessage, h.buffer)
	h.subs[sessionID] = append(h.subs[sessionID], ch)

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		subs := h.subs[sessionID]
		for i, sub := range subs {
			if sub == ch {
				h.subs[sessionID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
		if len(h.subs[sessionID]) == 0 {
			delete(h.subs, sessionID)
		}
	}
}

// Publish delivers msg to every subscriber of msg.SessionID and returns how
// many received it.
func (h *Hub) Publish(msg StreamMessage) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, ch := range h.subs[msg.SessionID] {
		select {
		case ch <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

// CloseSession closes every subscriber channel of sessionID.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[sessionID] {
		close(ch)
	}
	delete(h.subs, sessionID)
}

// Subscribers returns the subscriber count for sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
