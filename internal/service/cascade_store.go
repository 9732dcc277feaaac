package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/repository"
)

// PgCascadeStore runs cascades in a Postgres transaction.
type PgCascadeStore struct {
	store *repository.Store
}

// NewPgCascadeStore creates a CascadeStore backed by store.
func NewPgCascadeStore(store *repository.Store) *PgCascadeStore {
	return &PgCascadeStore{store: store}
}

// RunInTx implements CascadeStore.
func (s *PgCascadeStore) RunInTx(ctx context.Context, fn func(CascadeTx) error) error {
	return s.store.WithTx(ctx, func(tx *repository.Tx) error {
		return fn(pgCascadeTx{tx: tx})
	})
}

type pgCascadeTx struct {
	tx *repository.Tx
}

func (t pgCascadeTx) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return t.tx.Users.GetByID(ctx, id)
}

func (t pgCascadeTx) LockQuestion(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return t.tx.Questions.LockByID(ctx, id)
}

func (t pgCascadeTx) GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return t.tx.Quizzes.GetByID(ctx, id)
}

func (t pgCascadeTx) LockQuizzesContaining(ctx context.Context, questionID uuid.UUID) ([]model.Quiz, error) {
	return t.tx.Quizzes.LockContaining(ctx, questionID)
}

func (t pgCascadeTx) QuizIDsByOwner(ctx context.Context, owner uuid.UUID) ([]uuid.UUID, error) {
	return t.tx.Quizzes.IDsByOwner(ctx, owner)
}

func (t pgCascadeTx) QuestionIDsByOwner(ctx context.Context, owner uuid.UUID) ([]uuid.UUID, error) {
	return t.tx.Questions.IDsByOwner(ctx, owner)
}

func (t pgCascadeTx) RemoveQuestionFromQuizzes(ctx context.Context, questionID uuid.UUID) (int64, error) {
	return t.tx.Quizzes.RemoveQuestion(ctx, questionID)
}

func (t pgCascadeTx) DeactivateQuiz(ctx context.Context, id uuid.UUID) error {
	return t.tx.Quizzes.Deactivate(ctx, id)
}

func (t pgCascadeTx) DeleteQuestion(ctx context.Context, id uuid.UUID) (int64, error) {
	return t.tx.Questions.Delete(ctx, id)
}

func (t pgCascadeTx) DeleteQuiz(ctx context.Context, id uuid.UUID) (int64, error) {
	return t.tx.Quizzes.Delete(ctx, id)
}

func (t pgCascadeTx) DeleteUser(ctx context.Context, id uuid.UUID) (int64, error) {
	return t.tx.Users.Delete(ctx, id)
}

func (t pgCascadeTx) DeleteSubmissionsByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error) {
	return t.tx.Submissions.DeleteByQuiz(ctx, quizID)
}

func (t pgCascadeTx) DeleteSubmissionsByStudent(ctx context.Context, studentID uuid.UUID) (int64, error) {
	return t.tx.Submissions.DeleteByStudent(ctx, studentID)
}

func (t pgCascadeTx) DeleteAnalysesByQuestions(ctx context.Context, questionIDs []uuid.UUID) (int64, error) {
	return t.tx.Analyses.DeleteByQuestions(ctx, questionIDs)
}

func (t pgCascadeTx) DeleteAnalysesByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error) {
	return t.tx.Analyses.DeleteByQuiz(ctx, quizID)
}
