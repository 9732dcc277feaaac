package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/repository"
)

// QuizTx writes a quiz inside one transaction. LockQuiz holds the quiz row
// and LockOwnedQuestions holds the referenced questions until commit, so a
// concurrent question delete either waits for the edit or is seen by it.
type QuizTx interface {
	LockQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	LockOwnedQuestions(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) (int, error)
	CreateQuiz(ctx context.Context, q *model.Quiz) error
	UpdateQuiz(ctx context.Context, q *model.Quiz) error
	SetQuizActive(ctx context.Context, id uuid.UUID, active bool) error
}

// QuizEditor runs fn in a single transaction, committing only when fn returns nil.
type QuizEditor interface {
	EditQuiz(ctx context.Context, fn func(QuizTx) error) error
}

// PgQuizEditor runs quiz edits in a Postgres transaction.
type PgQuizEditor struct {
	store *repository.Store
}

// NewPgQuizEditor creates a QuizEditor backed by store.
func NewPgQuizEditor(store *repository.Store) *PgQuizEditor {
	return &PgQuizEditor{store: store}
}

// EditQuiz implements QuizEditor.
func (e *PgQuizEditor) EditQuiz(ctx context.Context, fn func(QuizTx) error) error {
	return e.store.WithTx(ctx, func(tx *repository.Tx) error {
		return fn(pgQuizTx{tx: tx})
	})
}

type pgQuizTx struct {
	tx *repository.Tx
}

func (t pgQuizTx) LockQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return t.tx.Quizzes.LockByID(ctx, id)
}

func (t pgQuizTx) LockOwnedQuestions(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) (int, error) {
	return t.tx.Questions.LockOwned(ctx, owner, ids)
}

func (t pgQuizTx) CreateQuiz(ctx context.Context, q *model.Quiz) error {
	return t.tx.Quizzes.Create(ctx, q)
}

func (t pgQuizTx) UpdateQuiz(ctx context.Context, q *model.Quiz) error {
	return t.tx.Quizzes.Update(ctx, q)
}

func (t pgQuizTx) SetQuizActive(ctx context.Context, id uuid.UUID, active bool) error {
	return t.tx.Quizzes.SetActive(ctx, id, active)
}
