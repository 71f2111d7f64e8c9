package api

import (
	"alcyxob/workout-progress/internal/domain"
	"alcyxob/workout-progress/internal/metrics"
	"alcyxob/workout-progress/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps carries everything SetupRoutes wires into handlers and middleware.
type RouterDeps struct {
	JWTSecret string

	AuthService     service.AuthService
	WorkoutService  service.WorkoutService
	ProgressService service.ProgressService
	GoalService     service.GoalService
	TrainerService  service.TrainerService

	Metrics  *metrics.Manager
	Gatherer prometheus.Gatherer // nil hides /metrics

	RateLimiter        RequestRateLimiter // nil disables auth rate limiting
	AuthLimitPerMinute int
}

func SetupRoutes(router *gin.Engine, deps RouterDeps) {
	authHandler := NewAuthHandler(deps.AuthService)
	workoutHandler := NewWorkoutHandler(deps.WorkoutService)
	progressHandler := NewProgressHandler(deps.ProgressService)
	goalHandler := NewGoalHandler(deps.GoalService)
	trainerHandler := NewTrainerHandler(deps.TrainerService)

	router.Use(LogRequest())
	if deps.Metrics != nil {
		router.Use(RequestMetrics(deps.Metrics))
	}
	// innermost, so a recovered panic is still logged and counted
	router.Use(PanicRecovery(deps.Metrics))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		authGroup.Use(RateLimit(deps.RateLimiter, "auth", deps.AuthLimitPerMinute))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(deps.JWTSecret))
	{
		protected.GET("/me", authHandler.Me)

		// --- Workout Routes (clients log their own sessions) ---
		workoutGroup := protected.Group("/workouts")
		workoutGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			workoutGroup.POST("", workoutHandler.LogWorkout)
			workoutGroup.GET("", workoutHandler.ListWorkouts)
			workoutGroup.GET("/:workoutId", workoutHandler.GetWorkout)
		}

		// --- Exercise Progress and Goals (the caller's own history) ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", workoutHandler.ListExercises)
			exerciseGroup.GET("/:exerciseKey/series", progressHandler.Series)
			exerciseGroup.GET("/:exerciseKey/progress", progressHandler.Progress)
			exerciseGroup.GET("/:exerciseKey/goals", goalHandler.GetGoal)
			exerciseGroup.PUT("/:exerciseKey/goals", goalHandler.SetGoal)
		}
		protected.GET("/goals", goalHandler.ListGoals)

		// --- Trainer Specific Routes ---
		trainerApiGroup := protected.Group("/trainer")
		trainerApiGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			trainerApiGroup.POST("/clients", trainerHandler.AddClientByEmail)
			trainerApiGroup.GET("/clients", trainerHandler.GetManagedClients)

			trainerApiGroup.GET("/clients/:clientId/exercises", trainerHandler.GetClientExercises)
			trainerApiGroup.GET("/clients/:clientId/exercises/:exerciseKey/series", trainerHandler.GetClientSeries)
			trainerApiGroup.GET("/clients/:clientId/exercises/:exerciseKey/progress", trainerHandler.GetClientProgress)
		}
	}
}
