package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/ai"
	"github.com/stemsi/quizroom-backend/internal/cache"
	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/database"
	"github.com/stemsi/quizroom-backend/internal/handler"
	"github.com/stemsi/quizroom-backend/internal/logger"
	"github.com/stemsi/quizroom-backend/internal/middleware"
	"github.com/stemsi/quizroom-backend/internal/repository"
	"github.com/stemsi/quizroom-backend/internal/router"
	"github.com/stemsi/quizroom-backend/internal/service"
	"github.com/stemsi/quizroom-backend/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Quizroom Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	store := repository.NewStore(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, service.NewRedisSessionStore(rdb))
	userService := service.NewUserService(store.Users, authService, cfg.UniqueEmail, log)
	cascadeService := service.NewCascadeService(service.NewPgCascadeStore(store), cfg.AnalysisCascadeScope, log)
	questionService := service.NewQuestionService(store.Questions, cascadeService, log)
	quizService := service.NewQuizService(store.Quizzes, store.Questions, service.NewPgQuizEditor(store), cascadeService, log)
	liveFeed := service.NewLiveFeed(rdb)
	submissionService := service.NewSubmissionService(store.Quizzes, store.Questions, store.Users, store.Submissions, liveFeed, log)
	analyticsService := service.NewAnalyticsService(store.Quizzes, store.Questions, store.Submissions, store.Users)
	analysisService := service.NewAnalysisService(
		store.Quizzes,
		store.Questions,
		store.Submissions,
		store.Analyses,
		ai.NewClient(cfg, log),
		service.NewRedisLocker(rdb),
		cfg.AITimeout,
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, userService),
		Question:    handler.NewQuestionHandler(questionService),
		Quiz:        handler.NewQuizHandler(quizService),
		StudentQuiz: handler.NewStudentQuizHandler(submissionService),
		Analytics:   handler.NewAnalyticsHandler(analyticsService, analysisService),
		Live:        handler.NewLiveHandler(liveFeed, quizService, log, cfg.AllowedOrigins),
		System: handler.NewSystemHandler(
			pool,
			handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
			log,
		),
	}

	// ─── Response Cache ────────────────────────────────────────────────
	responseCache := cache.New(
		cache.WithSweepInterval(cfg.CacheSweepInterval),
		cache.WithLogger(log),
	)
	responseCache.Start()

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateLimitWindow)
	go func() {
		ticker := time.NewTicker(cfg.AuthRateLimitWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				authLimiter.Cleanup()
			}
		}
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, authService, handlers, responseCache, authLimiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background loops.
	cancel()
	responseCache.Stop()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
