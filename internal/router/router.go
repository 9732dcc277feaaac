package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/cache"
	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/handler"
	"github.com/stemsi/quizroom-backend/internal/middleware"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/response"
)

// Resource families whose cached reads a write invalidates.
const (
	familyQuestions      = "/api/v1/teacher/questions"
	familyQuizzes        = "/api/v1/teacher/quizzes"
	familyAnalytics      = "/api/v1/teacher/analytics"
	familyStudentQuizzes = "/api/v1/student/quizzes"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Question    *handler.QuestionHandler
	Quiz        *handler.QuizHandler
	StudentQuiz *handler.StudentQuizHandler
	Analytics   *handler.AnalyticsHandler
	Live        *handler.LiveHandler
	System      *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth middleware.TokenValidator,
	sessions middleware.SessionChecker,
	handlers *Handlers,
	rc *cache.ResponseCache,
	authLimiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

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
	corsConfig.ExposeHeaders = []string{"X-Request-ID", middleware.HeaderCache}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authAPI := router.Group("/api/v1/auth")
	{
		authAPI.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		authAPI.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		authAPI.POST("/refresh", authLimiter.Middleware(), handlers.Auth.Refresh)

		session := authAPI.Group("", middleware.RequireAuth(auth), middleware.RequireActiveSession(sessions))
		session.POST("/logout", handlers.Auth.Logout)
		session.GET("/me", handlers.Auth.Me)
	}

	// ─── 2. Student Group ──────────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireAuth(auth), middleware.RequireActiveSession(sessions), middleware.RequireRole(model.RoleStudent))
	{
		studentAPI.GET("/quizzes", middleware.CacheResponse(rc, cache.TTLShort), handlers.StudentQuiz.ListAvailable)
		studentAPI.POST("/quizzes/:id/start", handlers.StudentQuiz.StartQuiz)
		studentAPI.POST("/quizzes/:id/submit",
			middleware.InvalidateCache(rc, familyStudentQuizzes, familyQuizzes, familyAnalytics),
			handlers.StudentQuiz.SubmitQuiz,
		)
		// Submissions are immutable.
		studentAPI.GET("/quizzes/:id/result", middleware.CacheResponse(rc, cache.TTLVeryLong), handlers.StudentQuiz.GetResult)
	}

	// ─── 3. Teacher Group ──────────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireAuth(auth), middleware.RequireActiveSession(sessions), middleware.RequireRole(model.RoleTeacher))
	{
		questions := teacherAPI.Group("/questions")
		{
			read := middleware.CacheResponse(rc, cache.TTLMedium)
			// Deleting a question edits quiz lists and drops analyses.
			write := middleware.InvalidateCache(rc, familyQuestions, familyQuizzes, familyAnalytics, familyStudentQuizzes)

			questions.GET("", read, handlers.Question.ListQuestions)
			questions.GET("/:id", read, handlers.Question.GetQuestion)
			questions.POST("", write, handlers.Question.CreateQuestion)
			questions.PUT("/:id", write, handlers.Question.UpdateQuestion)
			questions.DELETE("/:id", write, handlers.Question.DeleteQuestion)

			analysisWrite := middleware.InvalidateCache(rc, familyAnalytics)
			questions.POST("/:id/analyze", analysisWrite, handlers.Analytics.AnalyzeQuestion)
			questions.DELETE("/:id/analysis", analysisWrite, handlers.Analytics.ClearAnalysis)
		}

		quizzes := teacherAPI.Group("/quizzes")
		{
			read := middleware.CacheResponse(rc, cache.TTLMedium)
			write := middleware.InvalidateCache(rc, familyQuizzes, familyAnalytics, familyStudentQuizzes)

			quizzes.GET("", read, handlers.Quiz.ListQuizzes)
			quizzes.GET("/:id", read, handlers.Quiz.GetQuiz)
			quizzes.POST("", write, handlers.Quiz.CreateQuiz)
			quizzes.PUT("/:id", write, handlers.Quiz.UpdateQuiz)
			quizzes.PATCH("/:id/toggle", write, handlers.Quiz.ToggleQuiz)
			quizzes.DELETE("/:id", write, handlers.Quiz.DeleteQuiz)
		}

		analyticsAPI := teacherAPI.Group("/analytics")
		analyticsAPI.Use(middleware.CacheResponse(rc, cache.TTLShort))
		{
			analyticsAPI.GET("/quizzes", handlers.Analytics.ListQuizzes)
			analyticsAPI.GET("/overall", handlers.Analytics.Overall)
			analyticsAPI.GET("/quizzes/:id/questions", handlers.Analytics.Questions)
			analyticsAPI.GET("/quizzes/:id/students", handlers.Analytics.Students)
			analyticsAPI.GET("/quizzes/:id/analyses", handlers.Analytics.ListAnalyses)
		}
	}

	// ─── 4. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(auth), middleware.RequireActiveSession(sessions), middleware.RequireRole(model.RoleTeacher))
	{
		ws.GET("/teacher/quizzes/:id/live", handlers.Live.QuizLiveStream)
	}

	return router
}
