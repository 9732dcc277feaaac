// Package grading scores quiz attempts. Everything here is pure: no I/O, no clock.
package grading

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/model"
)

// AnswerKey maps a question id to its correct option id.
type AnswerKey map[uuid.UUID]string

// KeyFor builds the answer key of a batch of questions.
func KeyFor(questions []model.Question) AnswerKey {
	key := make(AnswerKey, len(questions))
	for _, q := range questions {
		key[q.ID] = q.CorrectAnswer
	}
	return key
}

// Grade marks every submitted answer against key and returns the graded answers
// with the number of correct ones. An empty selection or a question missing from
// the key grades as incorrect. Completeness of the answer set is the caller's job.
func Grade(answers []model.AnswerInput, key AnswerKey) ([]model.Answer, int) {
	graded := make([]model.Answer, len(answers))
	score := 0
	for i, a := range answers {
		correct, ok := key[a.QuestionID]
		isCorrect := ok && a.SelectedAnswer != "" && a.SelectedAnswer == correct
		if isCorrect {
			score++
		}
		graded[i] = model.Answer{
			QuestionID:     a.QuestionID,
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      isCorrect,
		}
	}
	return graded, score
}

// Percentage returns round(score/total*100), or 0 for an empty quiz.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// Ratio returns score/total in [0,1], or 0 for an empty quiz.
func Ratio(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total)
}

// TimeSpent returns whole seconds between start and submit, never negative.
func TimeSpent(start, submit time.Time) int {
	d := submit.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
