package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/repository"
	"github.com/stemsi/quizroom-backend/internal/response"
)

// QuestionStore is the question persistence used by QuestionService.
type QuestionStore interface {
	Create(ctx context.Context, q *model.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	List(ctx context.Context, f model.QuestionFilter) ([]model.Question, int, error)
	Update(ctx context.Context, q *model.Question) error
}

// QuestionDeleter removes a question with its dependents.
type QuestionDeleter interface {
	DeleteQuestion(ctx context.Context, owner, id uuid.UUID) (*CascadeReport, error)
}

// QuestionService handles the teacher's question bank.
type QuestionService struct {
	questions QuestionStore
	deleter   QuestionDeleter
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionStore, deleter QuestionDeleter, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		deleter:   deleter,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// List retrieves the owner's questions with pagination.
func (s *QuestionService) List(ctx context.Context, f model.QuestionFilter, page, perPage int) ([]model.Question, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)
	f.Limit = perPage
	f.Offset = (page - 1) * perPage

	questions, total, err := s.questions.List(ctx, f)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, response.NewPagination(page, perPage, total), nil
}

// Get returns one of the owner's questions. Foreign questions are reported as missing.
func (s *QuestionService) Get(ctx context.Context, owner, id uuid.UUID) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	if q.CreatedBy != owner {
		return nil, ErrQuestionNotFound
	}
	return q, nil
}

// Create adds a question to the owner's bank.
func (s *QuestionService) Create(ctx context.Context, owner uuid.UUID, req model.CreateQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		Title:         strings.TrimSpace(req.Title),
		Content:       strings.TrimSpace(req.Content),
		Options:       model.ToOptions(req.Options),
		CorrectAnswer: req.CorrectAnswer,
		Difficulty:    req.Difficulty,
		Tags:          cleanTags(req.Tags),
		Explanation:   strings.TrimSpace(req.Explanation),
		CreatedBy:     owner,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, err
	}

	s.log.Info().Str("question_id", q.ID.String()).Msg("Question created")
	return q, nil
}

// Update applies a partial update. The merged question must still satisfy every invariant.
func (s *QuestionService) Update(ctx context.Context, owner, id uuid.UUID, req model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		q.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		q.Content = strings.TrimSpace(*req.Content)
	}
	if req.Options != nil {
		q.Options = model.ToOptions(req.Options)
	}
	if req.CorrectAnswer != nil {
		q.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Difficulty != nil {
		q.Difficulty = *req.Difficulty
	}
	if req.Tags != nil {
		q.Tags = cleanTags(req.Tags)
	}
	if req.Explanation != nil {
		q.Explanation = strings.TrimSpace(*req.Explanation)
	}

	if err := s.questions.Update(ctx, q); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// Delete removes the question and repairs every quiz and analysis that referenced it.
func (s *QuestionService) Delete(ctx context.Context, owner, id uuid.UUID) (*CascadeReport, error) {
	return s.deleter.DeleteQuestion(ctx, owner, id)
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
