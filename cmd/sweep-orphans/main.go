package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/database"
	"github.com/stemsi/quizroom-backend/internal/logger"
	"github.com/stemsi/quizroom-backend/internal/repository"
	"github.com/stemsi/quizroom-backend/internal/service"
	"github.com/stemsi/quizroom-backend/internal/worker"
)

func main() {
	var schedule string
	flag.StringVar(&schedule, "schedule", "", "Keep running and sweep on this cron schedule (\"default\" uses SWEEP_SCHEDULE)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	sweeper := service.NewSweepService(store.Orphans, log)

	if schedule == "default" {
		schedule = cfg.SweepSchedule
	}
	w := worker.NewSweepWorker(sweeper, schedule, log)

	if schedule == "" {
		report, err := w.RunOnce(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Sweep failed")
		}
		fmt.Printf("submissions_deleted=%d analyses_deleted=%d quizzes_repaired=%d quizzes_deactivated=%d dangling_refs_removed=%d failures=%d duration=%s\n",
			report.SubmissionsDeleted,
			report.AnalysesDeleted,
			report.QuizzesRepaired,
			report.QuizzesDeactivated,
			report.DanglingRefsRemoved,
			report.Failures,
			report.Duration,
		)
		if report.Failures > 0 {
			os.Exit(1)
		}
		return
	}

	if err := w.Start(); err != nil {
		log.Fatal().Err(err).Str("schedule", schedule).Msg("Failed to start sweep worker")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("Stopping sweep worker...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	w.Stop(stopCtx)
}
