package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitwell/backend/internal/logger"
	"fitwell/backend/internal/service"
)

// Services holds the service interfaces the HTTP layer calls.
type Services struct {
	Auth     service.AuthService
	Meals    service.MealPlanService
	Workouts service.WorkoutService
	Health   service.HealthService
}

func SetupRoutes(router *gin.Engine, jwtSecret string, svc Services, log *logger.Logger) {
	authHandler := NewAuthHandler(svc.Auth, log)
	mealHandler := NewMealHandler(svc.Meals, log)
	workoutHandler := NewWorkoutHandler(svc.Workouts, log)
	healthHandler := NewHealthHandler(svc.Health, log)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/profile", authHandler.GetProfile)
		protected.PATCH("/profile", authHandler.UpdateProfile)

		mealGroup := protected.Group("/meals")
		{
			mealGroup.POST("/plan", mealHandler.GeneratePlan)
			mealGroup.POST("/plan/recalculate", mealHandler.RecalculatePlan)
			mealGroup.GET("/plan", mealHandler.GetPlan)
			mealGroup.GET("/plan/active", mealHandler.GetActivePlan)
			mealGroup.POST("/items/:itemId/track", mealHandler.TrackItem)
			mealGroup.POST("/items/:itemId/image", mealHandler.ItemImage)
			mealGroup.GET("/nutrition/daily", mealHandler.DailyNutrition)
		}

		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.POST("/daily", workoutHandler.GenerateDaily)
			workoutGroup.GET("/daily", workoutHandler.GetDaily)
			workoutGroup.POST("/program", workoutHandler.GenerateProgram)
			workoutGroup.GET("/history", workoutHandler.History)
			workoutGroup.PUT("/:workoutId/exercises/:index", workoutHandler.TrackExercise)
			workoutGroup.PUT("/:workoutId/days/:index", workoutHandler.TrackDay)
			workoutGroup.POST("/:workoutId/complete", workoutHandler.Complete)
		}

		healthGroup := protected.Group("/health")
		{
			healthGroup.POST("/daily", healthHandler.RecordDaily)
			healthGroup.GET("/daily", healthHandler.ListDaily)
			healthGroup.POST("/sync", healthHandler.Sync)
			healthGroup.POST("/heart-rate", healthHandler.AddHeartRate)
			healthGroup.POST("/sleep", healthHandler.AddSleep)
			healthGroup.PUT("/water", healthHandler.SaveWater)
			healthGroup.GET("/water", healthHandler.GetWater)
			healthGroup.GET("/analytics", healthHandler.Analytics)
			healthGroup.GET("/insights", healthHandler.Insights)
		}
	}
}

// NewRouter builds the engine with recovery, request logging and CORS
// installed ahead of the routes.
func NewRouter(jwtSecret string, allowedOrigins []string, svc Services, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), CORS(allowedOrigins))
	SetupRoutes(router, jwtSecret, svc, log)
	return router
}
