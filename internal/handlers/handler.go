package handlers

import (
	"workout_coach/internal/logger"
	"workout_coach/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Session stream; browsers pass the token as ?access_token=
	router.GET("/ws/sessions/:id", h.userIdMiddleware, h.wsSession)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		api.POST("/timeline/compile", h.compileTimeline)
		h.registerWorkoutRoutes(api)
		h.registerExerciseRoutes(api)
		h.registerTemplateRoutes(api)
		h.registerSessionRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerWorkoutRoutes(api *gin.RouterGroup) {
	workouts := api.Group("/workouts")
	{
		workouts.POST("", h.createWorkout)
		workouts.GET("", h.listWorkouts)
		workouts.GET("/:id", h.getWorkout)
	}
}

func (h *Handler) registerExerciseRoutes(api *gin.RouterGroup) {
	exercises := api.Group("/exercises")
	{
		exercises.POST("", h.upsertExercise)
		exercises.GET("", h.listExercises)
		exercises.GET("/:id", h.getExercise)
	}
}

func (h *Handler) registerTemplateRoutes(api *gin.RouterGroup) {
	templates := api.Group("/templates")
	{
		templates.GET("", h.listTemplates)
		templates.POST("", h.upsertTemplate)
		templates.POST("/:id/deactivate", h.deactivateTemplate)
	}
}

func (h *Handler) registerSessionRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/sessions")
	{
		// Body example: {"workout_id":"legs-a","chatter_level":"high","athlete_name":"Sam"}
		sessions.POST("", h.startSession)
		sessions.GET("/:id", h.getSession)
		sessions.POST("/:id/pause", h.pauseSession)
		sessions.POST("/:id/resume", h.resumeSession)
		sessions.POST("/:id/ready", h.confirmReady)
		sessions.POST("/:id/complete-set", h.completeSet)
		sessions.POST("/:id/stop", h.stopSession)
		sessions.POST("/:id/sets", h.logSet)
		sessions.POST("/:id/transcript", h.transcript)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
