package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/model"
)

// QuizRepository handles quiz data access.
type QuizRepository struct {
	db DBTX
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(db DBTX) *QuizRepository {
	return &QuizRepository{db: db}
}

const quizColumns = `id, title, description, question_ids, time_limit, is_active, created_by, created_at, updated_at`

func scanQuiz(row interface{ Scan(...any) error }, extra ...any) (*model.Quiz, error) {
	q := &model.Quiz{}
	dest := append([]any{&q.ID, &q.Title, &q.Description, &q.QuestionIDs, &q.TimeLimit,
		&q.IsActive, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

// Create inserts a new quiz. Quizzes always start as inactive drafts.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	if err := q.Validate(); err != nil {
		return err
	}
	q.IsActive = false
	return r.db.QueryRow(ctx,
		`INSERT INTO quizzes (title, description, question_ids, time_limit, is_active, created_by)
		 VALUES ($1, $2, $3, $4, FALSE, $5)
		 RETURNING id, created_at, updated_at`,
		q.Title, q.Description, q.QuestionIDs, q.TimeLimit, q.CreatedBy,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// GetByID retrieves a quiz by its UUID.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return scanQuiz(r.db.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
}

// LockByID selects a quiz FOR UPDATE. Must run inside a transaction.
func (r *QuizRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return scanQuiz(r.db.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1 FOR UPDATE`, id))
}

// ListByOwner retrieves the owner's quizzes, newest first, with submission counts and the total.
func (r *QuizRepository) ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]model.QuizSummary, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM quizzes WHERE created_by = $1`, owner,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+quizColumns+`,
		        (SELECT COUNT(*) FROM submissions s WHERE s.quiz_id = quizzes.id)
		 FROM quizzes WHERE created_by = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, owner, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []model.QuizSummary{}
	for rows.Next() {
		var count int
		q, err := scanQuiz(rows, &count)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, model.QuizSummary{
			Quiz:            *q,
			QuestionCount:   len(q.QuestionIDs),
			SubmissionCount: count,
		})
	}
	return items, total, rows.Err()
}

// ListAvailable returns the active quizzes the student has not completed yet.
func (r *QuizRepository) ListAvailable(ctx context.Context, studentID uuid.UUID) ([]model.AvailableQuiz, error) {
	rows, err := r.db.Query(ctx,
		`SELECT q.id, q.title, q.description, q.time_limit, cardinality(q.question_ids),
		        COALESCE(TRIM(u.last_name || ' ' || u.first_name), ''), q.created_at
		 FROM quizzes q
		 LEFT JOIN users u ON u.id = q.created_by
		 WHERE q.is_active
		   AND NOT EXISTS (SELECT 1 FROM submissions s WHERE s.quiz_id = q.id AND s.student_id = $1)
		 ORDER BY q.created_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []model.AvailableQuiz{}
	for rows.Next() {
		var a model.AvailableQuiz
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.TimeLimit, &a.QuestionCount,
			&a.CreatorName, &a.CreatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, a)
	}
	return quizzes, rows.Err()
}

// ListAnalytics returns every quiz of owner with its submission count, for the analytics picker.
func (r *QuizRepository) ListAnalytics(ctx context.Context, owner uuid.UUID) ([]model.QuizAnalyticsItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT q.id, q.title, q.is_active, cardinality(q.question_ids),
		        (SELECT COUNT(*) FROM submissions s WHERE s.quiz_id = q.id), q.created_at
		 FROM quizzes q WHERE q.created_by = $1
		 ORDER BY q.created_at DESC`, owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.QuizAnalyticsItem{}
	for rows.Next() {
		var it model.QuizAnalyticsItem
		if err := rows.Scan(&it.ID, &it.Title, &it.IsActive, &it.QuestionCount, &it.SubmissionCount, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Update overwrites the mutable fields of a quiz. The active flag is changed with SetActive.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	if err := q.Validate(); err != nil {
		return err
	}
	err := r.db.QueryRow(ctx,
		`UPDATE quizzes
		 SET title = $2, description = $3, question_ids = $4, time_limit = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		q.ID, q.Title, q.Description, q.QuestionIDs, q.TimeLimit,
	).Scan(&q.UpdatedAt)
	return notFound(err)
}

// SetActive publishes or unpublishes a quiz.
func (r *QuizRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE quizzes SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate turns a quiz back into a draft.
func (r *QuizRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE quizzes SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	return err
}

// Delete removes a quiz row and returns the number of rows removed.
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IDsByOwner lists every quiz id created by owner.
func (r *QuizRepository) IDsByOwner(ctx context.Context, owner uuid.UUID) ([]uuid.UUID, error) {
	return collectIDs(ctx, r.db, `SELECT id FROM quizzes WHERE created_by = $1`, owner)
}

// LockContaining selects, FOR UPDATE, every quiz whose list contains questionID.
// Must run inside a transaction.
func (r *QuizRepository) LockContaining(ctx context.Context, questionID uuid.UUID) ([]model.Quiz, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE $1 = ANY(question_ids) ORDER BY id FOR UPDATE`, questionID)
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

// RemoveQuestion strips questionID from every quiz list containing it.
func (r *QuizRepository) RemoveQuestion(ctx context.Context, questionID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE quizzes SET question_ids = array_remove(question_ids, $1), updated_at = NOW()
		 WHERE $1 = ANY(question_ids)`, questionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
