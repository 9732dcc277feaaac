package model

import (
	"time"

	"github.com/google/uuid"
)

// Quiz size and time limits.
const (
	MaxQuizQuestions = 100
	MinTimeLimit     = 1
	MaxTimeLimit     = 480
)

// Quiz is an ordered, bounded set of questions with an optional time limit and a publish flag.
// Inactive quizzes are drafts and invisible to students.
type Quiz struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	QuestionIDs []uuid.UUID `json:"questions"`
	TimeLimit   *int        `json:"time_limit,omitempty"`
	IsActive    bool        `json:"is_active"`
	CreatedBy   uuid.UUID   `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Contains reports whether the quiz lists questionID.
func (q *Quiz) Contains(questionID uuid.UUID) bool {
	for _, id := range q.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// Validate enforces the quiz invariants: 1-100 distinct questions,
// time limit within 1-480 minutes and the field length limits.
func (q *Quiz) Validate() error {
	f := FieldErrors{}
	if n := len([]rune(q.Title)); n == 0 || n > 200 {
		f["title"] = "title must be 1-200 characters"
	}
	if len([]rune(q.Description)) > 1000 {
		f["description"] = "description must be at most 1000 characters"
	}
	switch n := len(q.QuestionIDs); {
	case n == 0:
		f["questions"] = "a quiz must contain at least one question"
	case n > MaxQuizQuestions:
		f["questions"] = "a quiz can contain at most 100 questions"
	default:
		seen := make(map[uuid.UUID]struct{}, n)
		for _, id := range q.QuestionIDs {
			if _, dup := seen[id]; dup {
				f["questions"] = "questions must not repeat"
				break
			}
			seen[id] = struct{}{}
		}
	}
	if q.TimeLimit != nil && (*q.TimeLimit < MinTimeLimit || *q.TimeLimit > MaxTimeLimit) {
		f["time_limit"] = "time limit must be between 1 and 480 minutes"
	}
	return f.orNil()
}

// QuizSummary is a teacher-facing list row.
type QuizSummary struct {
	Quiz
	QuestionCount   int `json:"question_count"`
	SubmissionCount int `json:"submission_count"`
}

// QuizDetail is a quiz with its questions resolved in order.
type QuizDetail struct {
	Quiz
	Questions []Question `json:"questions"`
}

// AvailableQuiz is a student-facing list row.
type AvailableQuiz struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	TimeLimit     *int      `json:"time_limit,omitempty"`
	QuestionCount int       `json:"question_count"`
	CreatorName   string    `json:"creator_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateQuizRequest is the payload for creating a quiz. New quizzes start as drafts.
type CreateQuizRequest struct {
	Title       string      `json:"title" binding:"required,max=200"`
	Description string      `json:"description" binding:"max=1000"`
	QuestionIDs []uuid.UUID `json:"questions" binding:"required,min=1,max=100,unique"`
	TimeLimit   *int        `json:"time_limit" binding:"omitempty,min=1,max=480"`
}

// UpdateQuizRequest is a partial update; absent fields keep their value.
type UpdateQuizRequest struct {
	Title       *string     `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string     `json:"description" binding:"omitempty,max=1000"`
	QuestionIDs []uuid.UUID `json:"questions" binding:"omitempty,min=1,max=100,unique"`
	TimeLimit   *int        `json:"time_limit" binding:"omitempty,min=1,max=480"`
}
