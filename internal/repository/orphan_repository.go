package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/model"
)

// OrphanRepository finds and repairs dangling references. Every delete and
// update re-checks its condition in the statement itself, so the sweep is
// safe to run while the API is serving traffic.
type OrphanRepository struct {
	db DBTX
}

// NewOrphanRepository creates a new OrphanRepository.
func NewOrphanRepository(db DBTX) *OrphanRepository {
	return &OrphanRepository{db: db}
}

// OrphanSubmissionIDs lists submissions whose quiz or student no longer exists.
func (r *OrphanRepository) OrphanSubmissionIDs(ctx context.Context) ([]uuid.UUID, error) {
	return collectIDs(ctx, r.db,
		`SELECT s.id FROM submissions s
		 WHERE NOT EXISTS (SELECT 1 FROM quizzes q WHERE q.id = s.quiz_id)
		    OR NOT EXISTS (SELECT 1 FROM users u WHERE u.id = s.student_id)`)
}

// DeleteSubmissionIfOrphan deletes the submission only if its quiz or student is still missing.
func (r *OrphanRepository) DeleteSubmissionIfOrphan(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM submissions s
		 WHERE s.id = $1
		   AND (NOT EXISTS (SELECT 1 FROM quizzes q WHERE q.id = s.quiz_id)
		     OR NOT EXISTS (SELECT 1 FROM users u WHERE u.id = s.student_id))`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// OrphanAnalysisIDs lists analyses whose question or quiz no longer exists.
func (r *OrphanRepository) OrphanAnalysisIDs(ctx context.Context) ([]uuid.UUID, error) {
	return collectIDs(ctx, r.db,
		`SELECT a.id FROM question_analyses a
		 WHERE NOT EXISTS (SELECT 1 FROM questions q WHERE q.id = a.question_id)
		    OR NOT EXISTS (SELECT 1 FROM quizzes z WHERE z.id = a.quiz_id)`)
}

// DeleteAnalysisIfOrphan deletes the analysis only if it is still dangling.
func (r *OrphanRepository) DeleteAnalysisIfOrphan(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM question_analyses a
		 WHERE a.id = $1
		   AND (NOT EXISTS (SELECT 1 FROM questions q WHERE q.id = a.question_id)
		     OR NOT EXISTS (SELECT 1 FROM quizzes z WHERE z.id = a.quiz_id))`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// QuizzesWithDanglingQuestions lists quizzes referencing at least one missing question.
func (r *OrphanRepository) QuizzesWithDanglingQuestions(ctx context.Context) ([]model.Quiz, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes z
		 WHERE EXISTS (
		     SELECT 1 FROM unnest(z.question_ids) AS qid
		     WHERE NOT EXISTS (SELECT 1 FROM questions q WHERE q.id = qid)
		 )
		 ORDER BY z.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []model.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, rows.Err()
}

// ExistingQuestionIDs returns the subset of ids that still exist.
func (r *OrphanRepository) ExistingQuestionIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}
	return collectIDs(ctx, r.db, `SELECT id FROM questions WHERE id = ANY($1)`, ids)
}

// ReplaceQuizQuestions swaps the question list of a quiz, but only while the
// stored list still equals old. A quiz left empty is deactivated in the same
// statement. The boolean reports whether the row was changed.
func (r *OrphanRepository) ReplaceQuizQuestions(ctx context.Context, quizID uuid.UUID, old, repaired []uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE quizzes
		 SET question_ids = $3::uuid[],
		     is_active = CASE WHEN cardinality($3::uuid[]) = 0 THEN FALSE ELSE is_active END,
		     updated_at = NOW()
		 WHERE id = $1 AND question_ids = $2::uuid[]`, quizID, old, repaired)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
