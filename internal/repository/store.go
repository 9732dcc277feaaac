package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the pool-bound repositories and opens transactions.
type Store struct {
	pool *pgxpool.Pool

	Users       *UserRepository
	Questions   *QuestionRepository
	Quizzes     *QuizRepository
	Submissions *SubmissionRepository
	Analyses    *AnalysisRepository
	Orphans     *OrphanRepository
}

// NewStore creates a Store over pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:        pool,
		Users:       NewUserRepository(pool),
		Questions:   NewQuestionRepository(pool),
		Quizzes:     NewQuizRepository(pool),
		Submissions: NewSubmissionRepository(pool),
		Analyses:    NewAnalysisRepository(pool),
		Orphans:     NewOrphanRepository(pool),
	}
}

// Tx holds repositories bound to one open transaction.
type Tx struct {
	Users       *UserRepository
	Questions   *QuestionRepository
	Quizzes     *QuizRepository
	Submissions *SubmissionRepository
	Analyses    *AnalysisRepository
}

// WithTx runs fn inside a transaction. The transaction commits only if fn
// returns nil; any error or panic rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Tx{
		Users:       NewUserRepository(tx),
		Questions:   NewQuestionRepository(tx),
		Quizzes:     NewQuizRepository(tx),
		Submissions: NewSubmissionRepository(tx),
		Analyses:    NewAnalysisRepository(tx),
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
