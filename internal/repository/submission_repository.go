package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/model"
)

// SubmissionRepository handles submission data access. Submissions are
// insert-only; there is no update path.
type SubmissionRepository struct {
	db DBTX
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(db DBTX) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, quiz_id, student_id, answers, score, total_questions, start_time, submit_time, time_spent, created_at`

func scanSubmission(row interface{ Scan(...any) error }) (*model.Submission, error) {
	s := &model.Submission{}
	err := row.Scan(&s.ID, &s.QuizID, &s.StudentID, &s.Answers, &s.Score, &s.TotalQuestions,
		&s.StartTime, &s.SubmitTime, &s.TimeSpent, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// Create inserts a graded submission. The (quiz_id, student_id) unique
// constraint turns a concurrent second insert into ErrDuplicateSubmission.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	if err := s.Validate(); err != nil {
		return err
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO submissions (quiz_id, student_id, answers, score, total_questions, start_time, submit_time, time_spent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		s.QuizID, s.StudentID, s.Answers, s.Score, s.TotalQuestions, s.StartTime, s.SubmitTime, s.TimeSpent,
	).Scan(&s.ID, &s.CreatedAt)
	if uniqueViolation(err, "submissions_quiz_student_key") {
		return ErrDuplicateSubmission
	}
	return err
}

// Exists reports whether the student already submitted the quiz.
func (r *SubmissionRepository) Exists(ctx context.Context, quizID, studentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM submissions WHERE quiz_id = $1 AND student_id = $2)`,
		quizID, studentID,
	).Scan(&exists)
	return exists, err
}

// GetByQuizAndStudent retrieves the single submission of a student for a quiz.
func (r *SubmissionRepository) GetByQuizAndStudent(ctx context.Context, quizID, studentID uuid.UUID) (*model.Submission, error) {
	return scanSubmission(r.db.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE quiz_id = $1 AND student_id = $2`,
		quizID, studentID))
}

// List returns submissions of the given quizzes, optionally bounded by submit time,
// ordered by submit time.
func (r *SubmissionRepository) List(ctx context.Context, f model.SubmissionFilter) ([]model.Submission, error) {
	subs := []model.Submission{}
	if len(f.QuizIDs) == 0 {
		return subs, nil
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE quiz_id = ANY($1)`
	args := []any{f.QuizIDs}
	if f.From != nil {
		args = append(args, *f.From)
		query += ` AND submit_time >= $` + formatInt(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += ` AND submit_time <= $` + formatInt(len(args))
	}
	query += ` ORDER BY submit_time, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

// DeleteByQuiz removes every submission of a quiz.
func (r *SubmissionRepository) DeleteByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM submissions WHERE quiz_id = $1`, quizID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByStudent removes every submission made by a student.
func (r *SubmissionRepository) DeleteByStudent(ctx context.Context, studentID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM submissions WHERE student_id = $1`, studentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
