package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workout_coach/internal/models"
)

// compileRequest is the body of POST /timeline/compile.
type compileRequest struct {
	Name   string         `json:"name" example:"Leg day"`
	Blocks []models.Block `json:"blocks" binding:"required"`
}

// @Summary      Compile a timeline
// @Description  Compiles blocks into the ordered step list without starting a session.
// @Tags         timeline
// @Accept       json
// @Produce      json
// @Param        body  body      compileRequest  true  "Blocks to compile"
// @Success      200   {object}  models.CompiledTimeline
// @Failure      400   {object}  compileErrorResponse
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/timeline/compile [post]
// @Security     BearerAuth
func (h *Handler) compileTimeline(c *gin.Context) {
	var req compileRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	tl, err := h.services.CompileTimeline(c.Request.Context(), req.Name, req.Blocks)
	if err != nil {
		h.respondError(c, "timeline_compile_failed", err)
		return
	}
	c.JSON(http.StatusOK, tl)
}

// @Summary      Create a workout
// @Description  Validates the definition against the workout schema, checks that it compiles and stores it.
// @Tags         workouts
// @Accept       json
// @Produce      json
// @Param        body  body      models.WorkoutDefinition  true  "Workout definition"
// @Success      201   {object}  models.WorkoutDefinition
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/workouts [post]
// @Security     BearerAuth
func (h *Handler) createWorkout(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	w, err := h.services.CreateWorkout(c.Request.Context(), raw)
	if err != nil {
		h.respondError(c, "workout_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// @Summary      List workouts
// @Tags         workouts
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, workouts"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/workouts [get]
// @Security     BearerAuth
func (h *Handler) listWorkouts(c *gin.Context) {
	ws, err := h.services.ListWorkouts(c.Request.Context())
	if err != nil {
		h.respondError(c, "workout_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(ws), "workouts": ws})
}

// @Summary      Get a workout
// @Tags         workouts
// @Produce      json
// @Param        id   path      string  true  "Workout id"
// @Success      200  {object}  models.WorkoutDefinition
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/workouts/{id} [get]
// @Security     BearerAuth
func (h *Handler) getWorkout(c *gin.Context) {
	w, err := h.services.GetWorkout(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "workout_get_failed", err, "workout_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, w)
}

// @Summary      Create or replace an exercise
// @Tags         exercises
// @Accept       json
// @Produce      json
// @Param        body  body      models.Exercise  true  "Exercise"
// @Success      200   {object}  models.Exercise
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/exercises [post]
// @Security     BearerAuth
func (h *Handler) upsertExercise(c *gin.Context) {
	var e models.Exercise
	if !h.bindJSONOrBadRequest(c, &e) {
		return
	}
	saved, err := h.services.UpsertExercise(c.Request.Context(), e)
	if err != nil {
		h.respondError(c, "exercise_upsert_failed", err, "exercise_id", e.ID)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// @Summary      List exercises
// @Tags         exercises
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, exercises"
// @Router       /api/v1/exercises [get]
// @Security     BearerAuth
func (h *Handler) listExercises(c *gin.Context) {
	es, err := h.services.ListExercises(c.Request.Context())
	if err != nil {
		h.respondError(c, "exercise_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(es), "exercises": es})
}

// @Summary      Get an exercise
// @Tags         exercises
// @Produce      json
// @Param        id   path      string  true  "Exercise id"
// @Success      200  {object}  models.Exercise
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/exercises/{id} [get]
// @Security     BearerAuth
func (h *Handler) getExercise(c *gin.Context) {
	e, err := h.services.GetExercise(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "exercise_get_failed", err, "exercise_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, e)
}
