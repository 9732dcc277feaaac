package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/analytics"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/repository"
)

// AnalyticsQuizStore is the quiz lookup used by the analytics views.
type AnalyticsQuizStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	IDsByOwner(ctx context.Context, owner uuid.UUID) ([]uuid.UUID, error)
	ListAnalytics(ctx context.Context, owner uuid.UUID) ([]model.QuizAnalyticsItem, error)
}

// SubmissionLister reads submissions for aggregation.
type SubmissionLister interface {
	List(ctx context.Context, f model.SubmissionFilter) ([]model.Submission, error)
}

// UserBatchLookup resolves many users at once.
type UserBatchLookup interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error)
}

// AnalyticsService serves the teacher's read-only dashboards.
type AnalyticsService struct {
	quizzes     AnalyticsQuizStore
	questions   QuestionLookup
	submissions SubmissionLister
	users       UserBatchLookup
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(quizzes AnalyticsQuizStore, questions QuestionLookup, submissions SubmissionLister, users UserBatchLookup) *AnalyticsService {
	return &AnalyticsService{quizzes: quizzes, questions: questions, submissions: submissions, users: users}
}

// QuizLookup resolves a single quiz.
type QuizLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
}

// ownedQuiz returns the quiz when owner created it, ErrQuizNotFound otherwise.
func ownedQuiz(ctx context.Context, quizzes QuizLookup, owner, id uuid.UUID) (*model.Quiz, error) {
	q, err := quizzes.GetByID(ctx, id)
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

// Quizzes lists the owner's quizzes with submission counts.
func (s *AnalyticsService) Quizzes(ctx context.Context, owner uuid.UUID) ([]model.QuizAnalyticsItem, error) {
	items, err := s.quizzes.ListAnalytics(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list analytics quizzes: %w", err)
	}
	return items, nil
}

// Overall summarizes one quiz, or every quiz of owner when quizID is nil,
// optionally bounded by submit time.
func (s *AnalyticsService) Overall(ctx context.Context, owner uuid.UUID, quizID *uuid.UUID, from, to *time.Time) (*model.OverallStats, error) {
	var ids []uuid.UUID
	if quizID != nil {
		q, err := ownedQuiz(ctx, s.quizzes, owner, *quizID)
		if err != nil {
			return nil, err
		}
		ids = []uuid.UUID{q.ID}
	} else {
		var err error
		ids, err = s.quizzes.IDsByOwner(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("list quiz ids: %w", err)
		}
	}

	subs, err := s.submissions.List(ctx, model.SubmissionFilter{QuizIDs: ids, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	stats := analytics.Overall(subs)
	return &stats, nil
}

// Questions returns per-question statistics of a quiz.
func (s *AnalyticsService) Questions(ctx context.Context, owner, quizID uuid.UUID, sort analytics.QuestionSort) ([]model.QuestionStats, error) {
	q, err := ownedQuiz(ctx, s.quizzes, owner, quizID)
	if err != nil {
		return nil, err
	}

	byID, err := s.questions.GetByIDs(ctx, q.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	ordered := make([]model.Question, 0, len(q.QuestionIDs))
	for _, id := range q.QuestionIDs {
		if question, ok := byID[id]; ok {
			ordered = append(ordered, question)
		}
	}

	subs, err := s.submissions.List(ctx, model.SubmissionFilter{QuizIDs: []uuid.UUID{quizID}})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return analytics.QuestionBreakdown(ordered, subs, sort), nil
}

// Students returns the ranked per-student performance of a quiz.
func (s *AnalyticsService) Students(ctx context.Context, owner, quizID uuid.UUID, query analytics.StudentQuery) ([]model.StudentPerformance, error) {
	if _, err := ownedQuiz(ctx, s.quizzes, owner, quizID); err != nil {
		return nil, err
	}

	subs, err := s.submissions.List(ctx, model.SubmissionFilter{QuizIDs: []uuid.UUID{quizID}})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	studentIDs := make([]uuid.UUID, 0, len(subs))
	for _, sub := range subs {
		studentIDs = append(studentIDs, sub.StudentID)
	}
	users, err := s.users.GetByIDs(ctx, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("get students: %w", err)
	}
	return analytics.StudentRanking(subs, users, query), nil
}
