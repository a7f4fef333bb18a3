package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"workout_coach/internal/service"
)

// @Summary      Start a session
// @Description  Starts playback of a stored workout (workout_id) or of inline blocks.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body  body      service.StartSessionRequest  true  "Session settings"
// @Success      201   {object}  service.SessionView
// @Failure      400   {object}  compileErrorResponse
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/sessions [post]
// @Security     BearerAuth
func (h *Handler) startSession(c *gin.Context) {
	var req service.StartSessionRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	req.UserID = currentUser(c)
	view, err := h.services.StartSession(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "session_start_failed", err, "workout_id", req.WorkoutID)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// @Summary      Get a session
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  service.SessionView
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/sessions/{id} [get]
// @Security     BearerAuth
func (h *Handler) getSession(c *gin.Context) {
	h.sessionAction(c, "session_get_failed", h.services.GetSession)
}

// @Summary      Pause a session
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  service.SessionView
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/sessions/{id}/pause [post]
// @Security     BearerAuth
func (h *Handler) pauseSession(c *gin.Context) {
	h.sessionAction(c, "session_pause_failed", h.services.PauseSession)
}

// @Summary      Resume a paused session
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  service.SessionView
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/sessions/{id}/resume [post]
// @Security     BearerAuth
func (h *Handler) resumeSession(c *gin.Context) {
	h.sessionAction(c, "session_resume_failed", h.services.ResumeSession)
}

// @Summary      Confirm ready at an await-ready gate
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  service.SessionView
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/sessions/{id}/ready [post]
// @Security     BearerAuth
func (h *Handler) confirmReady(c *gin.Context) {
	h.sessionAction(c, "session_ready_failed", h.services.ConfirmReady)
}

// @Summary      Complete the current rep-mode set
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  service.SessionView
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/sessions/{id}/complete-set [post]
// @Security     BearerAuth
func (h *Handler) completeSet(c *gin.Context) {
	h.sessionAction(c, "session_complete_set_failed", h.services.CompleteSet)
}

// @Summary      Stop a session
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  service.SessionView
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/sessions/{id}/stop [post]
// @Security     BearerAuth
func (h *Handler) stopSession(c *gin.Context) {
	h.sessionAction(c, "session_stop_failed", h.services.StopSession)
}

func (h *Handler) sessionAction(c *gin.Context, logKey string,
	fn func(ctx context.Context, id string) (service.SessionView, error)) {
	id := c.Param("id")
	view, err := fn(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, logKey, err, "session_id", id)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Log a performed set
// @Description  Omitted exercise_id, step_index and set default to the live session's current step.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Session id"
// @Param        body  body      service.SetLogInput  true  "Set"
// @Success      201   {object}  models.SetLog
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/sessions/{id}/sets [post]
// @Security     BearerAuth
func (h *Handler) logSet(c *gin.Context) {
	var in service.SetLogInput
	if !h.bindJSONOrBadRequest(c, &in) {
		return
	}
	id := c.Param("id")
	entry, err := h.services.LogSet(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, "set_log_failed", err, "session_id", id)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// @Summary      Submit a speech transcript
// @Description  Final transcripts containing ready, pause or resume words drive the session.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Session id"
// @Param        body  body      service.Transcript  true  "Transcript"
// @Success      200   {object}  service.TranscriptResult
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/sessions/{id}/transcript [post]
// @Security     BearerAuth
func (h *Handler) transcript(c *gin.Context) {
	var in service.Transcript
	if !h.bindJSONOrBadRequest(c, &in) {
		return
	}
	id := c.Param("id")
	res, err := h.services.HandleTranscript(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, "transcript_failed", err, "session_id", id)
		return
	}
	c.JSON(http.StatusOK, res)
}
