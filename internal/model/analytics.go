package model

import (
	"time"

	"github.com/google/uuid"
)

// ScoreDistribution counts submissions per fixed percentage band.
type ScoreDistribution struct {
	Excellent int `json:"excellent"` // >= 90%
	Good      int `json:"good"`      // 70-89%
	Average   int `json:"average"`   // 60-69%
	Poor      int `json:"poor"`      // < 60%
}

// OverallStats summarizes a set of submissions.
type OverallStats struct {
	TotalSubmissions  int               `json:"total_submissions"`
	UniqueStudents    int               `json:"unique_students"`
	AverageScore      float64           `json:"average_score"`
	AveragePercentage float64           `json:"average_percentage"`
	AverageTimeSpent  int               `json:"average_time_spent"`
	ScoreDistribution ScoreDistribution `json:"score_distribution"`
}

// OptionStats is the selection breakdown of one option.
type OptionStats struct {
	OptionID   string  `json:"option_id"`
	OptionText string  `json:"option_text"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	IsCorrect  bool    `json:"is_correct"`
}

// QuestionStats is the per-question view of a quiz's submissions.
type QuestionStats struct {
	QuestionID      uuid.UUID     `json:"question_id"`
	Title           string        `json:"title"`
	Content         string        `json:"content"`
	Difficulty      Difficulty    `json:"difficulty"`
	TotalAttempts   int           `json:"total_attempts"`
	CorrectAttempts int           `json:"correct_attempts"`
	CorrectRate     float64       `json:"correct_rate"`
	OptionStats     []OptionStats `json:"option_stats"`
}

// StudentPerformance is one ranked row of the per-student view.
type StudentPerformance struct {
	Rank             int       `json:"rank"`
	SubmissionID     uuid.UUID `json:"submission_id"`
	StudentID        uuid.UUID `json:"student_id"`
	StudentName      string    `json:"student_name"`
	Username         string    `json:"username"`
	Score            int       `json:"score"`
	TotalQuestions   int       `json:"total_questions"`
	Percentage       int       `json:"percentage"`
	CorrectAnswers   int       `json:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers"`
	TimeSpent        int       `json:"time_spent"`
	SubmitTime       time.Time `json:"submit_time"`
}

// QuizAnalyticsItem is a row of the analytics quiz picker.
type QuizAnalyticsItem struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	IsActive        bool      `json:"is_active"`
	QuestionCount   int       `json:"question_count"`
	SubmissionCount int       `json:"submission_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// SubmissionFilter narrows the submissions fed to the aggregator.
type SubmissionFilter struct {
	QuizIDs []uuid.UUID
	From    *time.Time
	To      *time.Time
}
