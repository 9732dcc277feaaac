package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/database"
	"github.com/stemsi/quizroom-backend/internal/logger"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/repository"
	"github.com/stemsi/quizroom-backend/internal/service"
)

const seedPassword = "quizroom123"

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	authService := service.NewAuthService(cfg, nil)
	userService := service.NewUserService(store.Users, authService, false, log)
	cascadeService := service.NewCascadeService(service.NewPgCascadeStore(store), cfg.AnalysisCascadeScope, log)
	questionService := service.NewQuestionService(store.Questions, cascadeService, log)
	quizService := service.NewQuizService(store.Quizzes, store.Questions, service.NewPgQuizEditor(store), cascadeService, log)

	// ensureUser registers an account or returns the existing one.
	ensureUser := func(username string, role model.Role, first, last string) *model.User {
		u, err := userService.Register(ctx, model.RegisterRequest{
			Username: username,
			Email:    username + "@quizroom.local",
			Password: seedPassword,
			Role:     role,
			Profile:  model.ProfileRequest{FirstName: first, LastName: last},
		})
		if errors.Is(err, service.ErrUsernameTaken) {
			u, err = store.Users.GetByUsername(ctx, username)
		}
		if err != nil {
			log.Fatal().Err(err).Str("username", username).Msg("Failed to seed user")
		}
		return u
	}

	fmt.Println("=== Seeding Quizroom ===")

	teacher := ensureUser("guru_demo", model.RoleTeacher, "Made", "Wirawan")
	fmt.Printf("Teacher: %s (%s)\n", teacher.Username, teacher.ID)

	names := [][2]string{
		{"Budi", "Santoso"}, {"Siti", "Aminah"}, {"Andi", "Pratama"}, {"Rina", "Wati"}, {"Joko", "Susilo"},
		{"Ayu", "Lestari"}, {"Dodi", "Kusuma"}, {"Eka", "Putri"}, {"Fahri", "Hamzah"}, {"Gita", "Savitri"},
	}
	for i, n := range names {
		s := ensureUser(fmt.Sprintf("siswa%02d", i+1), model.RoleStudent, n[0], n[1])
		if (i+1)%5 == 0 {
			fmt.Printf("Students ready: %d (last %s)\n", i+1, s.Username)
		}
	}

	bank := []model.CreateQuestionRequest{
		{
			Title:   "Ibu kota Indonesia",
			Content: "Apa ibu kota Indonesia?",
			Options: []model.OptionInput{
				{ID: "a", Text: "Jakarta"}, {ID: "b", Text: "Bandung"}, {ID: "c", Text: "Surabaya"}, {ID: "d", Text: "Denpasar"},
			},
			CorrectAnswer: "a",
			Difficulty:    model.DifficultyEasy,
			Tags:          []string{"geografi"},
			Explanation:   "Jakarta adalah ibu kota Indonesia.",
		},
		{
			Title:   "Penjumlahan",
			Content: "Berapa hasil 12 + 30?",
			Options: []model.OptionInput{
				{ID: "a", Text: "32"}, {ID: "b", Text: "42"}, {ID: "c", Text: "52"},
			},
			CorrectAnswer: "b",
			Difficulty:    model.DifficultyEasy,
			Tags:          []string{"matematika"},
		},
		{
			Title:   "Protokol transport",
			Content: "Protokol mana yang berorientasi koneksi?",
			Options: []model.OptionInput{
				{ID: "a", Text: "UDP"}, {ID: "b", Text: "ICMP"}, {ID: "c", Text: "TCP"}, {ID: "d", Text: "ARP"},
			},
			CorrectAnswer: "c",
			Difficulty:    model.DifficultyMedium,
			Tags:          []string{"jaringan", "tkj"},
			Explanation:   "TCP membangun koneksi melalui three-way handshake.",
		},
		{
			Title:   "Subnet",
			Content: "Berapa jumlah host yang dapat dipakai pada prefix /26?",
			Options: []model.OptionInput{
				{ID: "a", Text: "62"}, {ID: "b", Text: "64"}, {ID: "c", Text: "30"}, {ID: "d", Text: "126"},
			},
			CorrectAnswer: "a",
			Difficulty:    model.DifficultyHard,
			Tags:          []string{"jaringan", "tkj"},
		},
	}

	ids := make([]uuid.UUID, 0, len(bank))
	for _, req := range bank {
		q, err := questionService.Create(ctx, teacher.ID, req)
		if err != nil {
			log.Fatal().Err(err).Str("title", req.Title).Msg("Failed to seed question")
		}
		ids = append(ids, q.ID)
	}
	fmt.Printf("Created %d questions\n", len(ids))

	limit := 15
	quiz, err := quizService.Create(ctx, teacher.ID, model.CreateQuizRequest{
		Title:       "Kuis Demo",
		Description: "Kuis contoh untuk mencoba alur siswa dan guru.",
		QuestionIDs: ids,
		TimeLimit:   &limit,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed quiz")
	}
	if _, err := quizService.Toggle(ctx, teacher.ID, quiz.ID); err != nil {
		log.Fatal().Err(err).Msg("Failed to activate quiz")
	}

	fmt.Printf("\nSeed completed! Quiz '%s' (%s) is active. Password for all accounts: %s\n", quiz.Title, quiz.ID, seedPassword)
}
