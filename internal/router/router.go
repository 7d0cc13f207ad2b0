package router

import (
	"net/http"
	"time"

	"github.com/acadio/acadio-backend/internal/config"
	"github.com/acadio/acadio-backend/internal/handler"
	"github.com/acadio/acadio-backend/internal/middleware"
	"github.com/acadio/acadio-backend/internal/response"
	"github.com/acadio/acadio-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	QuizSession *handler.QuizSessionHandler
	Result      *handler.ResultHandler
	QuizAdmin   *handler.QuizAdminHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for session starts (30 requests per minute per IP). A quiz
	// client polls progress updates but only ever starts once in a while.
	startLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Student Group (JWT) ────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService))
	{
		studentAPI.POST("/quizzes/:quiz_id/session/start",
			startLimiter.Middleware(),
			handlers.QuizSession.StartOrResume,
		)
		studentAPI.PUT("/quizzes/:quiz_id/session/update", handlers.QuizSession.UpdateProgress)
		studentAPI.POST("/quizzes/:quiz_id/session/complete", handlers.QuizSession.Complete)

		studentAPI.GET("/results", handlers.Result.ListAll)
		studentAPI.GET("/quizzes/:quiz_id/results", handlers.Result.ListByQuiz)
	}

	// ─── 2. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/quizzes/:quiz_id/clock", handlers.WS.SessionClockStream)
	}

	// ─── 3. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.POST("/quizzes", handlers.QuizAdmin.Create)
		adminAPI.GET("/quizzes/:quiz_id", handlers.QuizAdmin.Get)
		adminAPI.PUT("/quizzes/:quiz_id", handlers.QuizAdmin.Update)
		adminAPI.GET("/quizzes/:quiz_id/results", handlers.QuizAdmin.ListResults)
	}

	return router
}
