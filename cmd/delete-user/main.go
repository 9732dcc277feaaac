package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/database"
	"github.com/stemsi/quizroom-backend/internal/logger"
	"github.com/stemsi/quizroom-backend/internal/repository"
	"github.com/stemsi/quizroom-backend/internal/service"
)

// delete-user removes an account and everything it owns, then revokes its sessions.
func main() {
	var username string
	var yes bool
	flag.StringVar(&username, "username", "", "Username of the account to delete")
	flag.BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	flag.Parse()

	if username == "" {
		fmt.Println("Usage: delete-user -username <name> [-yes]")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	store := repository.NewStore(pool)
	authService := service.NewAuthService(cfg, service.NewRedisSessionStore(rdb))
	cascadeService := service.NewCascadeService(service.NewPgCascadeStore(store), cfg.AnalysisCascadeScope, log)

	user, err := store.Users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		fmt.Printf("Error: user '%s' not found\n", username)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to look up user")
	}

	if !yes {
		fmt.Printf("Delete %s '%s' (%s) and everything they own? [y/N]: ", user.Role, user.Username, user.ID)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted")
			return
		}
	}

	report, err := cascadeService.DeleteUser(ctx, user.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to delete user")
	}

	// Also rejects the access tokens the user still holds.
	if err := authService.RevokeAll(ctx, user.ID); err != nil {
		log.Warn().Err(err).Msg("Failed to revoke sessions")
	}

	fmt.Printf("Deleted '%s': quizzes=%d questions=%d submissions=%d analyses=%d quizzes_updated=%d quizzes_deactivated=%d\n",
		user.Username,
		report.QuizzesDeleted,
		report.QuestionsDeleted,
		report.SubmissionsDeleted,
		report.AnalysesDeleted,
		report.QuizzesUpdated,
		report.QuizzesDeactivated,
	)
}
