package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/database"
	"github.com/stemsi/quizroom-backend/internal/logger"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/repository"
	"github.com/stemsi/quizroom-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// Hashing needs no session store.
	authService := service.NewAuthService(cfg, nil)
	userService := service.NewUserService(repository.NewUserRepository(pool), authService, cfg.UniqueEmail, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	prompt := func(label string) string {
		fmt.Print(label)
		v, _ := reader.ReadString('\n')
		return strings.TrimSpace(v)
	}

	req := model.RegisterRequest{
		Username: prompt("Enter Username: "),
		Email:    prompt("Enter Email: "),
	}
	if req.Username == "" || req.Email == "" {
		fmt.Println("Error: Username and email are required")
		return
	}

	req.Profile.FirstName = prompt("Enter First Name: ")
	req.Profile.LastName = prompt("Enter Last Name: ")

	role := prompt("Enter Role (teacher/student, default teacher): ")
	if role == "" {
		role = string(model.RoleTeacher)
	}
	req.Role = model.Role(role)
	if !req.Role.Valid() {
		fmt.Println("Error: Role must be teacher or student")
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	req.Password = string(bytePassword)
	fmt.Println() // Newline after password input
	if len(req.Password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	user, err := userService.Register(ctx, req)
	var fields model.FieldErrors
	switch {
	case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrEmailTaken):
		fmt.Printf("Error: %v\n", err)
		return
	case errors.As(err, &fields):
		for field, msg := range fields {
			fmt.Printf("Error: %s: %s\n", field, msg)
		}
		return
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %s\n", user.Role, user.Username, user.Email, user.ID)
}
