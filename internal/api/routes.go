package api

import (
	"alcyxob/fittrack/internal/metrics"
	"alcyxob/fittrack/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth     service.AuthService
	Exercise service.ExerciseService
	Program  service.ProgramService
	Session  service.SessionService
	Stats    service.StatsService
	Export   service.ExportService
}

// RouterOptions configure the cross-cutting parts of the router.
type RouterOptions struct {
	Cookie   CookieConfig
	Metrics  *metrics.Manager
	Gatherer prometheus.Gatherer // Served on /metrics when set
}

func SetupRoutes(router *gin.Engine, services Services, opts RouterOptions) {
	router.Use(RequestLogger())
	if opts.Metrics != nil {
		router.Use(RequestMetrics(opts.Metrics))
	}

	authHandler := NewAuthHandler(services.Auth, opts.Cookie)
	exerciseHandler := NewExerciseHandler(services.Exercise)
	programHandler := NewProgramHandler(services.Program)
	sessionHandler := NewSessionHandler(services.Session)
	statsHandler := NewStatsHandler(services.Stats, services.Export)

	authMiddleware := AuthMiddleware(services.Auth, opts.Cookie.Name)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)
		protected.PATCH("/me", authHandler.UpdateMe)

		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.ListExercises)
			exerciseGroup.GET("/:exerciseId", exerciseHandler.GetExercise)
		}

		programGroup := protected.Group("/programs")
		{
			programGroup.GET("", programHandler.ListPrograms)
			programGroup.POST("", programHandler.CreateProgram)
			programGroup.POST("/import", programHandler.ImportProgram)
			programGroup.POST("/generate", programHandler.GenerateProgram)
			programGroup.GET("/:programId", programHandler.GetProgram)
			programGroup.PUT("/:programId", programHandler.UpdateProgram)
			programGroup.DELETE("/:programId", programHandler.DeleteProgram)
		}

		sessionGroup := protected.Group("/sessions")
		{
			sessionGroup.GET("", sessionHandler.ListSessions)
			sessionGroup.POST("", sessionHandler.StartSession)
			sessionGroup.GET("/:sessionId", sessionHandler.GetSession)
			sessionGroup.POST("/:sessionId/exercises", sessionHandler.CompleteExercise)
			sessionGroup.POST("/:sessionId/rest", sessionHandler.StartRest)
			sessionGroup.GET("/:sessionId/rest/stream", sessionHandler.StreamRest)
			sessionGroup.GET("/:sessionId/progress", sessionHandler.Progress)
			sessionGroup.POST("/:sessionId/end", sessionHandler.EndSession)
		}

		statsGroup := protected.Group("/stats")
		{
			statsGroup.GET("", statsHandler.GetStats)
			statsGroup.POST("/export", statsHandler.ExportHistory)
		}
	}
}
