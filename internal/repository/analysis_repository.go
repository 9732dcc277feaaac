package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/model"
)

// AnalysisRepository handles stored AI question analyses.
type AnalysisRepository struct {
	db DBTX
}

// NewAnalysisRepository creates a new AnalysisRepository.
func NewAnalysisRepository(db DBTX) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, question_id, quiz_id, analysis, created_at`

func scanAnalysis(row interface{ Scan(...any) error }) (*model.QuestionAnalysis, error) {
	a := &model.QuestionAnalysis{}
	if err := row.Scan(&a.ID, &a.QuestionID, &a.QuizID, &a.Analysis, &a.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// Get retrieves the analysis stored for (questionID, quizID).
func (r *AnalysisRepository) Get(ctx context.Context, questionID, quizID uuid.UUID) (*model.QuestionAnalysis, error) {
	return scanAnalysis(r.db.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM question_analyses WHERE question_id = $1 AND quiz_id = $2`,
		questionID, quizID))
}

// Create stores an analysis unless one already exists for the pair, and
// returns whichever row is stored. The boolean reports whether a was inserted.
func (r *AnalysisRepository) Create(ctx context.Context, a *model.QuestionAnalysis) (*model.QuestionAnalysis, bool, error) {
	stored, err := scanAnalysis(r.db.QueryRow(ctx,
		`INSERT INTO question_analyses (question_id, quiz_id, analysis)
		 VALUES ($1, $2, $3)
		 ON CONFLICT ON CONSTRAINT question_analyses_question_quiz_key DO NOTHING
		 RETURNING `+analysisColumns,
		a.QuestionID, a.QuizID, a.Analysis))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	stored, err = r.Get(ctx, a.QuestionID, a.QuizID)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

// ListByQuiz returns every analysis stored for a quiz.
func (r *AnalysisRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.QuestionAnalysis, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+analysisColumns+` FROM question_analyses WHERE quiz_id = $1 ORDER BY created_at`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.QuestionAnalysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Delete removes the analysis of one (question, quiz) pair.
func (r *AnalysisRepository) Delete(ctx context.Context, questionID, quizID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM question_analyses WHERE question_id = $1 AND quiz_id = $2`, questionID, quizID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByQuestions removes every analysis of the given questions, in any quiz.
func (r *AnalysisRepository) DeleteByQuestions(ctx context.Context, questionIDs []uuid.UUID) (int64, error) {
	if len(questionIDs) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM question_analyses WHERE question_id = ANY($1)`, questionIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByQuiz removes every analysis keyed to a quiz.
func (r *AnalysisRepository) DeleteByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM question_analyses WHERE quiz_id = $1`, quizID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
