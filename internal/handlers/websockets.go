package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"workout_coach/internal/service"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
)

// wsEnvelope wraps every message written to a session stream. Type is one
// of the service stream types: event, caption, beep, audio, state or closed.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// wsClientMessage is a frame sent by the client. Only transcripts are
// understood; other frames are ignored.
type wsClientMessage struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

const wsTypeTranscript = "transcript"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Stream a live session
// @Description  Websocket of event, caption, beep, audio and periodic state envelopes. Clients may send {"type":"transcript","text":"ready","is_final":true}.
// @Tags         sessions
// @Param        id            path   string  true   "Session id"
// @Param        interval      query  string  false  "State snapshot period, e.g. 500ms (max 10s)"
// @Param        access_token  query  string  false  "JWT for clients that cannot set headers"
// @Success      101
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /ws/sessions/{id} [get]
func (h *Handler) wsSession(c *gin.Context) {
	id := c.Param("id")
	interval := h.parseInterval(c)

	// Subscribe before upgrading so unknown sessions get a plain HTTP error.
	msgs, unsubscribe, err := h.services.SubscribeSession(id)
	if err != nil {
		if _, gerr := h.services.GetSession(c.Request.Context(), id); gerr != nil {
			err = gerr
		}
		h.respondError(c, "ws_subscribe_failed", err, "session_id", id)
		return
	}
	defer unsubscribe()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, id, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	if err := h.sendState(c, conn, id); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "session_id", id, "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session finished"))
				return
			}
			if err := h.write(conn, wsEnvelope{Type: msg.Type, Data: msg}); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "session_id", id, "err", err)
				}
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "session_id", id, "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendState(c, conn, id); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "session_id", id, "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// startReader drains client frames, forwards transcripts to the session and
// detects closure.
func (h *Handler) startReader(conn *websocket.Conn, sessionID string, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "session_id", sessionID, "err", err)
			}
			return
		}
		var m wsClientMessage
		if err := json.Unmarshal(data, &m); err != nil || m.Type != wsTypeTranscript {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		_, err = h.services.HandleTranscript(ctx, sessionID, service.Transcript{Text: m.Text, IsFinal: m.IsFinal})
		cancel()
		if err != nil && h.log != nil {
			h.log.Infow("ws_transcript_failed", "session_id", sessionID, "err", err)
		}
	}
}

// sendState writes the session's current view.
func (h *Handler) sendState(c *gin.Context, conn *websocket.Conn, id string) error {
	view, err := h.services.GetSession(c.Request.Context(), id)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_get_session_failed", "session_id", id, "err", err)
		}
		return err
	}
	return h.write(conn, wsEnvelope{Type: service.StreamState, Data: view})
}

func (h *Handler) write(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
