package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"workout_coach/internal/service"
	"workout_coach/internal/timeline"
)

const (
	errInternal        = "internal error"
	errInvalidBodyPref = "invalid body: "
	errCompileFailed   = "workout does not compile"
)

// compileErrorResponse is the 400 body for a block that fails to compile.
type compileErrorResponse struct {
	Error      string `json:"error" example:"workout does not compile"`
	BlockIndex int    `json:"block_index" example:"0"`
	BlockID    string `json:"block_id,omitempty" example:"warmup"`
	Param      string `json:"param" example:"sets"`
	Reason     string `json:"reason" example:"must be positive, got 0"`
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, timeline.ErrInvalidWorkout),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidEventType):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrExerciseNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSessionNotActive):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Only unexpected errors are logged, under logKey.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	var cerr *timeline.CompilationError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusBadRequest, compileErrorResponse{
			Error:      errCompileFailed,
			BlockIndex: cerr.BlockIndex,
			BlockID:    cerr.BlockID,
			Param:      cerr.Param,
			Reason:     cerr.Reason,
		})
		return
	}

	code := statusFor(err)
	if code != http.StatusInternalServerError {
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	if h.log != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(code, gin.H{"error": errInternal})
}
