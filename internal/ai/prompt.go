package ai

import (
	"fmt"
	"strings"

	"github.com/stemsi/quizroom-backend/internal/model"
)

const systemPrompt = "You are an experienced education expert who analyzes exam questions and gives students practical study advice."

// QuestionInput is the question and its live statistics sent for analysis.
type QuestionInput struct {
	Title         string
	Content       string
	Difficulty    model.Difficulty
	Options       []model.Option
	CorrectAnswer string
	TotalAttempts int
	CorrectRate   float64 // percent
}

func difficultyLabel(d model.Difficulty) string {
	switch d {
	case model.DifficultyEasy:
		return "easy"
	case model.DifficultyHard:
		return "hard"
	}
	return "medium"
}

// BuildPrompt renders the user message for one question.
func BuildPrompt(in QuestionInput) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following question and explain how to solve it and which concepts it tests.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", in.Title)
	fmt.Fprintf(&sb, "Question: %s\n", in.Content)
	fmt.Fprintf(&sb, "Difficulty: %s\n\n", difficultyLabel(in.Difficulty))

	sb.WriteString("Options:\n")
	for _, o := range in.Options {
		fmt.Fprintf(&sb, "%s. %s", o.ID, o.Text)
		if o.ID == in.CorrectAnswer {
			sb.WriteString(" (correct answer)")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nStatistics:\n")
	fmt.Fprintf(&sb, "- Attempts: %d\n", in.TotalAttempts)
	fmt.Fprintf(&sb, "- Correct rate: %.1f%%\n\n", in.CorrectRate)

	sb.WriteString("Cover these points:\n")
	sb.WriteString("1. The knowledge points the question tests\n")
	sb.WriteString("2. The reasoning that leads to the correct answer\n")
	sb.WriteString("3. The misconceptions behind the common wrong options\n")
	sb.WriteString("4. Study advice\n\n")
	sb.WriteString("Answer concisely, point by point.")
	return sb.String()
}
