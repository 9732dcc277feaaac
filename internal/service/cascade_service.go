package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/repository"
)

// CascadeTx is the set of writes a cascading delete performs inside one
// transaction. Lookups return repository.ErrNotFound for missing rows.
type CascadeTx interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	LockQuestion(ctx context.Context, id uuid.UUID) (*model.Question, error)
	GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error)

	LockQuizzesContaining(ctx context.Context, questionID uuid.UUID) ([]model.Quiz, error)
	QuizIDsByOwner(ctx context.Context, owner uuid.UUID) ([]uuid.UUID, error)
	QuestionIDsByOwner(ctx context.Context, owner uuid.UUID) ([]uuid.UUID, error)

	RemoveQuestionFromQuizzes(ctx context.Context, questionID uuid.UUID) (int64, error)
	DeactivateQuiz(ctx context.Context, id uuid.UUID) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteQuiz(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (int64, error)

	DeleteSubmissionsByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error)
	DeleteSubmissionsByStudent(ctx context.Context, studentID uuid.UUID) (int64, error)
	DeleteAnalysesByQuestions(ctx context.Context, questionIDs []uuid.UUID) (int64, error)
	DeleteAnalysesByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error)
}

// CascadeStore runs fn in a single transaction, committing only when fn returns nil.
type CascadeStore interface {
	RunInTx(ctx context.Context, fn func(CascadeTx) error) error
}

// CascadeReport counts what a cascading delete removed or repaired.
type CascadeReport struct {
	UsersDeleted       int64 `json:"users_deleted,omitempty"`
	QuizzesDeleted     int64 `json:"quizzes_deleted"`
	QuestionsDeleted   int64 `json:"questions_deleted"`
	SubmissionsDeleted int64 `json:"submissions_deleted"`
	AnalysesDeleted    int64 `json:"analyses_deleted"`
	QuizzesUpdated     int64 `json:"quizzes_updated"`
	QuizzesDeactivated int64 `json:"quizzes_deactivated"`
}

// CascadeService deletes users, questions and quizzes together with every
// record that depends on them, atomically.
type CascadeService struct {
	store         CascadeStore
	analysisScope string
	log           zerolog.Logger
}

// NewCascadeService creates a new CascadeService. analysisScope is one of
// config.AnalysisScopeQuestion or config.AnalysisScopeQuiz.
func NewCascadeService(store CascadeStore, analysisScope string, log zerolog.Logger) *CascadeService {
	return &CascadeService{
		store:         store,
		analysisScope: analysisScope,
		log:           log.With().Str("component", "cascade_service").Logger(),
	}
}

// DeleteQuestion deletes one of owner's questions, strips it from every quiz
// and removes its analyses. It refuses with ErrQuestionInUse when a quiz
// would be left without questions.
func (s *CascadeService) DeleteQuestion(ctx context.Context, owner, id uuid.UUID) (*CascadeReport, error) {
	report := &CascadeReport{}
	err := s.store.RunInTx(ctx, func(tx CascadeTx) error {
		q, err := tx.LockQuestion(ctx, id)
		// A missing root is reported as not found. Rows reached through it are
		// skipped when already gone.
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuestionNotFound
		}
		if err != nil {
			return fmt.Errorf("lock question: %w", err)
		}
		if q.CreatedBy != owner {
			return ErrQuestionNotFound
		}
		return s.deleteQuestion(ctx, tx, id, true, report)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("question_id", id.String()).Interface("report", report).Msg("Question deleted")
	return report, nil
}

// DeleteQuiz deletes one of owner's quizzes with its submissions and analyses.
func (s *CascadeService) DeleteQuiz(ctx context.Context, owner, id uuid.UUID) (*CascadeReport, error) {
	report := &CascadeReport{}
	err := s.store.RunInTx(ctx, func(tx CascadeTx) error {
		q, err := tx.GetQuiz(ctx, id)
		// Missing root: not found, as in DeleteQuestion.
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuizNotFound
		}
		if err != nil {
			return fmt.Errorf("get quiz: %w", err)
		}
		if q.CreatedBy != owner {
			return ErrQuizNotFound
		}
		return s.deleteQuiz(ctx, tx, q, report)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("quiz_id", id.String()).Interface("report", report).Msg("Quiz deleted")
	return report, nil
}

// DeleteUser deletes an account. A teacher's quizzes and questions go with
// it; a student's submissions go with it.
func (s *CascadeService) DeleteUser(ctx context.Context, id uuid.UUID) (*CascadeReport, error) {
	report := &CascadeReport{}
	err := s.store.RunInTx(ctx, func(tx CascadeTx) error {
		u, err := tx.GetUser(ctx, id)
		// Missing root: not found, as in DeleteQuestion.
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		switch u.Role {
		case model.RoleStudent:
			n, err := tx.DeleteSubmissionsByStudent(ctx, id)
			if err != nil {
				return fmt.Errorf("delete student submissions: %w", err)
			}
			report.SubmissionsDeleted += n

		case model.RoleTeacher:
			quizIDs, err := tx.QuizIDsByOwner(ctx, id)
			if err != nil {
				return fmt.Errorf("list teacher quizzes: %w", err)
			}
			for _, qid := range quizIDs {
				q, err := tx.GetQuiz(ctx, qid)
				if errors.Is(err, repository.ErrNotFound) {
					continue
				}
				if err != nil {
					return fmt.Errorf("get quiz %s: %w", qid, err)
				}
				if err := s.deleteQuiz(ctx, tx, q, report); err != nil {
					return err
				}
			}

			questionIDs, err := tx.QuestionIDsByOwner(ctx, id)
			if err != nil {
				return fmt.Errorf("list teacher questions: %w", err)
			}
			for _, qid := range questionIDs {
				if _, err := tx.LockQuestion(ctx, qid); errors.Is(err, repository.ErrNotFound) {
					continue
				} else if err != nil {
					return fmt.Errorf("lock question %s: %w", qid, err)
				}
				if err := s.deleteQuestion(ctx, tx, qid, false, report); err != nil {
					return err
				}
			}
		}

		n, err := tx.DeleteUser(ctx, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		report.UsersDeleted += n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id.String()).Interface("report", report).Msg("User deleted")
	return report, nil
}

// deleteQuestion removes a question from every quiz, then its analyses, then
// the question. With refuseEmpty a quiz that would become empty aborts the
// delete; otherwise such quizzes are deactivated.
func (s *CascadeService) deleteQuestion(ctx context.Context, tx CascadeTx, id uuid.UUID, refuseEmpty bool, report *CascadeReport) error {
	quizzes, err := tx.LockQuizzesContaining(ctx, id)
	if err != nil {
		return fmt.Errorf("lock quizzes: %w", err)
	}

	for _, q := range quizzes {
		if len(q.QuestionIDs) > 1 {
			continue
		}
		if refuseEmpty {
			return ErrQuestionInUse
		}
		if q.IsActive {
			if err := tx.DeactivateQuiz(ctx, q.ID); err != nil {
				return fmt.Errorf("deactivate quiz %s: %w", q.ID, err)
			}
			report.QuizzesDeactivated++
		}
	}

	if len(quizzes) > 0 {
		n, err := tx.RemoveQuestionFromQuizzes(ctx, id)
		if err != nil {
			return fmt.Errorf("remove question from quizzes: %w", err)
		}
		report.QuizzesUpdated += n
	}

	n, err := tx.DeleteAnalysesByQuestions(ctx, []uuid.UUID{id})
	if err != nil {
		return fmt.Errorf("delete question analyses: %w", err)
	}
	report.AnalysesDeleted += n

	n, err = tx.DeleteQuestion(ctx, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	report.QuestionsDeleted += n
	return nil
}

func (s *CascadeService) deleteQuiz(ctx context.Context, tx CascadeTx, q *model.Quiz, report *CascadeReport) error {
	n, err := tx.DeleteSubmissionsByQuiz(ctx, q.ID)
	if err != nil {
		return fmt.Errorf("delete quiz submissions: %w", err)
	}
	report.SubmissionsDeleted += n

	if s.analysisScope != config.AnalysisScopeQuiz {
		n, err = tx.DeleteAnalysesByQuestions(ctx, q.QuestionIDs)
		if err != nil {
			return fmt.Errorf("delete question analyses: %w", err)
		}
		report.AnalysesDeleted += n
	}
	n, err = tx.DeleteAnalysesByQuiz(ctx, q.ID)
	if err != nil {
		return fmt.Errorf("delete quiz analyses: %w", err)
	}
	report.AnalysesDeleted += n

	n, err = tx.DeleteQuiz(ctx, q.ID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	report.QuizzesDeleted += n
	return nil
}
