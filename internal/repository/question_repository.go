package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	db DBTX
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(db DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, title, content, options, correct_answer, difficulty, tags, explanation, created_by, created_at, updated_at`

func scanQuestion(row interface{ Scan(...any) error }) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.Title, &q.Content, &q.Options, &q.CorrectAnswer, &q.Difficulty,
		&q.Tags, &q.Explanation, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

// Create inserts a new question after checking its invariants.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	if q.Difficulty == "" {
		q.Difficulty = model.DifficultyMedium
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	if err := q.Validate(); err != nil {
		return err
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO questions (title, content, options, correct_answer, difficulty, tags, explanation, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		q.Title, q.Content, q.Options, q.CorrectAnswer, q.Difficulty, q.Tags, q.Explanation, q.CreatedBy,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// GetByID retrieves a question by its UUID.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
}

// LockByID selects a question FOR UPDATE. Must run inside a transaction.
func (r *QuestionRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1 FOR UPDATE`, id))
}

// GetByIDs returns the questions found among ids, keyed by id. Missing ids are
// simply absent from the map.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Question, error) {
	out := make(map[uuid.UUID]model.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out[q.ID] = *q
	}
	return out, rows.Err()
}

// List retrieves the owner's questions matching filter, newest first, with the total count.
func (r *QuestionRepository) List(ctx context.Context, f model.QuestionFilter) ([]model.Question, int, error) {
	where := ` WHERE created_by = $1`
	args := []any{f.OwnerID}

	if f.Difficulty != "" {
		args = append(args, f.Difficulty)
		where += ` AND difficulty = $` + formatInt(len(args))
	}
	if len(f.Tags) > 0 {
		args = append(args, f.Tags)
		where += ` AND tags && $` + formatInt(len(args))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where += ` AND (title ILIKE $` + formatInt(len(args)) + ` OR content ILIKE $` + formatInt(len(args)) + `)`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM questions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + questionColumns + ` FROM questions` + where + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += ` LIMIT $` + formatInt(len(args)-1) + ` OFFSET $` + formatInt(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		questions = append(questions, *q)
	}
	return questions, total, rows.Err()
}

// Update overwrites the mutable fields of a question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	if q.Tags == nil {
		q.Tags = []string{}
	}
	if err := q.Validate(); err != nil {
		return err
	}
	err := r.db.QueryRow(ctx,
		`UPDATE questions
		 SET title = $2, content = $3, options = $4, correct_answer = $5, difficulty = $6,
		     tags = $7, explanation = $8, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		q.ID, q.Title, q.Content, q.Options, q.CorrectAnswer, q.Difficulty, q.Tags, q.Explanation,
	).Scan(&q.UpdatedAt)
	return notFound(err)
}

// Delete removes a question row and returns the number of rows removed.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IDsByOwner lists every question id created by owner.
func (r *QuestionRepository) IDsByOwner(ctx context.Context, owner uuid.UUID) ([]uuid.UUID, error) {
	return collectIDs(ctx, r.db, `SELECT id FROM questions WHERE created_by = $1`, owner)
}

// LockOwned locks, FOR SHARE, the questions among ids that belong to owner
// and returns how many there are. A question deleted concurrently is not
// counted. Must run inside a transaction.
func (r *QuestionRepository) LockOwned(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) (int, error) {
	locked, err := collectIDs(ctx, r.db,
		`SELECT id FROM questions WHERE created_by = $1 AND id = ANY($2) ORDER BY id FOR SHARE`, owner, ids)
	if err != nil {
		return 0, err
	}
	return len(locked), nil
}

func collectIDs(ctx context.Context, db DBTX, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
