package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionAnalysis is the stored AI explanation for one question within one quiz.
type QuestionAnalysis struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	QuizID     uuid.UUID `json:"quiz_id"`
	Analysis   string    `json:"analysis"`
	CreatedAt  time.Time `json:"created_at"`
}

// AnalyzeQuestionRequest names the quiz whose statistics feed the analysis.
type AnalyzeQuestionRequest struct {
	QuizID uuid.UUID `json:"quiz_id" binding:"required"`
}

// AnalysisResult is returned by the analyze endpoint.
type AnalysisResult struct {
	QuestionID uuid.UUID `json:"question_id"`
	QuizID     uuid.UUID `json:"quiz_id"`
	Analysis   string    `json:"analysis"`
	Cached     bool      `json:"cached"`
}
