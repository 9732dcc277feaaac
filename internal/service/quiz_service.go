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

// QuizStore is the quiz persistence used by QuizService.
type QuizStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]model.QuizSummary, int, error)
}

// QuizQuestionSource resolves the questions a quiz refers to.
type QuizQuestionSource interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Question, error)
}

// QuizDeleter removes a quiz with its dependents.
type QuizDeleter interface {
	DeleteQuiz(ctx context.Context, owner, id uuid.UUID) (*CascadeReport, error)
}

// QuizService handles the teacher's quizzes.
type QuizService struct {
	quizzes   QuizStore
	questions QuizQuestionSource
	editor    QuizEditor
	deleter   QuizDeleter
	log       zerolog.Logger
}

// NewQuizService creates a new QuizService. Every write goes through editor.
func NewQuizService(quizzes QuizStore, questions QuizQuestionSource, editor QuizEditor, deleter QuizDeleter, log zerolog.Logger) *QuizService {
	return &QuizService{
		quizzes:   quizzes,
		questions: questions,
		editor:    editor,
		deleter:   deleter,
		log:       log.With().Str("component", "quiz_service").Logger(),
	}
}

// List retrieves the owner's quizzes with pagination and submission counts.
func (s *QuizService) List(ctx context.Context, owner uuid.UUID, page, perPage int) ([]model.QuizSummary, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)
	items, total, err := s.quizzes.ListByOwner(ctx, owner, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list quizzes: %w", err)
	}
	return items, response.NewPagination(page, perPage, total), nil
}

func (s *QuizService) owned(ctx context.Context, owner, id uuid.UUID) (*model.Quiz, error) {
	q, err := s.quizzes.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if q.CreatedBy != owner {
		return nil, ErrQuizNotFound
	}
	return q, nil
}

// Get returns a quiz with its questions resolved in quiz order.
func (s *QuizService) Get(ctx context.Context, owner, id uuid.UUID) (*model.QuizDetail, error) {
	q, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	byID, err := s.questions.GetByIDs(ctx, q.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("get quiz questions: %w", err)
	}
	detail := &model.QuizDetail{Quiz: *q, Questions: make([]model.Question, 0, len(q.QuestionIDs))}
	for _, qid := range q.QuestionIDs {
		if question, ok := byID[qid]; ok {
			detail.Questions = append(detail.Questions, question)
		}
	}
	return detail, nil
}

// checkOwnership ensures every id names an existing question of owner and
// keeps those questions locked for the rest of tx.
func checkOwnership(ctx context.Context, tx QuizTx, owner uuid.UUID, ids []uuid.UUID) error {
	n, err := tx.LockOwnedQuestions(ctx, owner, ids)
	if err != nil {
		return fmt.Errorf("lock owned questions: %w", err)
	}
	if n != len(ids) {
		return ErrUnknownQuestions
	}
	return nil
}

// lockOwned locks the quiz row and checks that owner created it.
func lockOwned(ctx context.Context, tx QuizTx, owner, id uuid.UUID) (*model.Quiz, error) {
	q, err := tx.LockQuiz(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock quiz: %w", err)
	}
	if q.CreatedBy != owner {
		return nil, ErrQuizNotFound
	}
	return q, nil
}

// Create stores a new quiz as an inactive draft.
func (s *QuizService) Create(ctx context.Context, owner uuid.UUID, req model.CreateQuizRequest) (*model.Quiz, error) {
	q := &model.Quiz{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		QuestionIDs: req.QuestionIDs,
		TimeLimit:   req.TimeLimit,
		CreatedBy:   owner,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	err := s.editor.EditQuiz(ctx, func(tx QuizTx) error {
		if err := checkOwnership(ctx, tx, owner, q.QuestionIDs); err != nil {
			return err
		}
		return tx.CreateQuiz(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("quiz_id", q.ID.String()).Int("questions", len(q.QuestionIDs)).Msg("Quiz created")
	return q, nil
}

func applyUpdate(q *model.Quiz, req model.UpdateQuizRequest) {
	if req.Title != nil {
		q.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		q.Description = strings.TrimSpace(*req.Description)
	}
	if req.TimeLimit != nil {
		q.TimeLimit = req.TimeLimit
	}
	if req.QuestionIDs != nil {
		q.QuestionIDs = req.QuestionIDs
	}
}

// Update applies a partial update to one of the owner's quizzes. The merge
// is done against the row read under lock, so fields the request leaves out
// keep their current value, including a question list trimmed by a
// concurrent question delete.
//
// Question rows are locked before the quiz row, the same order the cascade
// delete takes them.
func (s *QuizService) Update(ctx context.Context, owner, id uuid.UUID, req model.UpdateQuizRequest) (*model.Quiz, error) {
	preview, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	applyUpdate(preview, req)
	if err := preview.Validate(); err != nil {
		return nil, err
	}

	var updated *model.Quiz
	err = s.editor.EditQuiz(ctx, func(tx QuizTx) error {
		if req.QuestionIDs != nil {
			if err := checkOwnership(ctx, tx, owner, req.QuestionIDs); err != nil {
				return err
			}
		}

		q, err := lockOwned(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		applyUpdate(q, req)
		if err := q.Validate(); err != nil {
			return err
		}

		if err := tx.UpdateQuiz(ctx, q); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrQuizNotFound
			}
			return err
		}
		updated = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("quiz_id", id.String()).Int("questions", len(updated.QuestionIDs)).Msg("Quiz updated")
	return updated, nil
}

// Toggle flips the active flag. An empty quiz cannot be published.
func (s *QuizService) Toggle(ctx context.Context, owner, id uuid.UUID) (*model.Quiz, error) {
	var toggled *model.Quiz
	err := s.editor.EditQuiz(ctx, func(tx QuizTx) error {
		q, err := lockOwned(ctx, tx, owner, id)
		if err != nil {
			return err
		}

		next := !q.IsActive
		if next && len(q.QuestionIDs) == 0 {
			return ErrQuizHasNoQuestions
		}
		if err := tx.SetQuizActive(ctx, id, next); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrQuizNotFound
			}
			return fmt.Errorf("set active: %w", err)
		}
		q.IsActive = next
		toggled = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("quiz_id", id.String()).Bool("is_active", toggled.IsActive).Msg("Quiz toggled")
	return toggled, nil
}

// Delete removes the quiz with its submissions and analyses.
func (s *QuizService) Delete(ctx context.Context, owner, id uuid.UUID) (*CascadeReport, error) {
	return s.deleter.DeleteQuiz(ctx, owner, id)
}
