package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is one graded answer inside a submission.
type Answer struct {
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedAnswer string    `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
}

// Submission is the immutable record of one student's completed attempt at one quiz.
// At most one exists per (QuizID, StudentID).
type Submission struct {
	ID             uuid.UUID `json:"id"`
	QuizID         uuid.UUID `json:"quiz_id"`
	StudentID      uuid.UUID `json:"student_id"`
	Answers        []Answer  `json:"answers"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	StartTime      time.Time `json:"start_time"`
	SubmitTime     time.Time `json:"submit_time"`
	TimeSpent      int       `json:"time_spent"` // seconds
	CreatedAt      time.Time `json:"created_at"`
}

// Validate checks the stored-record invariants of a submission.
func (s *Submission) Validate() error {
	f := FieldErrors{}
	if s.TotalQuestions < 1 {
		f["total_questions"] = "total questions must be positive"
	}
	if len(s.Answers) != s.TotalQuestions {
		f["answers"] = "answers must cover every quiz question exactly once"
	} else {
		seen := make(map[uuid.UUID]struct{}, len(s.Answers))
		for _, a := range s.Answers {
			if _, dup := seen[a.QuestionID]; dup {
				f["answers"] = "answers must not repeat a question"
				break
			}
			seen[a.QuestionID] = struct{}{}
		}
	}
	correct := 0
	for _, a := range s.Answers {
		if a.IsCorrect {
			correct++
		}
	}
	if s.Score < 0 || s.Score > s.TotalQuestions || s.Score != correct {
		f["score"] = "score must equal the number of correct answers"
	}
	if s.SubmitTime.Before(s.StartTime) {
		f["start_time"] = "start time must not be after submit time"
	}
	if s.TimeSpent < 0 {
		f["time_spent"] = "time spent must not be negative"
	}
	return f.orNil()
}

// AnswerInput is one submitted answer before grading.
type AnswerInput struct {
	QuestionID     uuid.UUID `json:"question_id" binding:"required"`
	SelectedAnswer string    `json:"selected_answer" binding:"max=20"`
}

// SubmitQuizRequest is the payload for submitting a quiz attempt.
type SubmitQuizRequest struct {
	Answers   []AnswerInput `json:"answers" binding:"required,min=1,max=100,dive"`
	StartTime time.Time     `json:"start_time" binding:"required"`
}

// StartedQuiz is returned by the start operation.
type StartedQuiz struct {
	Quiz      AvailableQuiz        `json:"quiz"`
	Questions []QuestionForStudent `json:"questions"`
	StartTime time.Time            `json:"start_time"`
}

// SubmitResult is returned by a successful submit.
type SubmitResult struct {
	SubmissionID   uuid.UUID `json:"submission_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     int       `json:"percentage"`
	TimeSpent      int       `json:"time_spent"`
}

// ResultQuestion is the question detail shown when reviewing a result.
type ResultQuestion struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Options     []Option `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
}

// DetailedAnswer pairs a graded answer with the question it answered.
// Question is nil when the question was deleted after submission.
type DetailedAnswer struct {
	QuestionID     uuid.UUID       `json:"question_id"`
	Question       *ResultQuestion `json:"question"`
	SelectedAnswer string          `json:"selected_answer"`
	CorrectAnswer  string          `json:"correct_answer,omitempty"`
	IsCorrect      bool            `json:"is_correct"`
}

// SubmissionSummary is the header of a quiz result.
type SubmissionSummary struct {
	ID              uuid.UUID `json:"id"`
	QuizID          uuid.UUID `json:"quiz_id"`
	QuizTitle       string    `json:"quiz_title"`
	QuizDescription string    `json:"quiz_description"`
	Score           int       `json:"score"`
	TotalQuestions  int       `json:"total_questions"`
	Percentage      int       `json:"percentage"`
	TimeSpent       int       `json:"time_spent"`
	SubmitTime      time.Time `json:"submit_time"`
}

// QuizResult is the full result view of a student's submission.
type QuizResult struct {
	Submission SubmissionSummary `json:"submission"`
	Answers    []DetailedAnswer  `json:"answers"`
}

// SubmissionEvent is published on the live feed after a submission is stored.
type SubmissionEvent struct {
	Type           string    `json:"type"`
	QuizID         uuid.UUID `json:"quiz_id"`
	StudentID      uuid.UUID `json:"student_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     int       `json:"percentage"`
	SubmitTime     time.Time `json:"submit_time"`
}
