package model

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question option limits.
const (
	MinOptions = 2
	MaxOptions = 6
)

// Rank orders difficulties easy < medium < hard. Unknown values rank lowest.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	}
	return 0
}

// Option is one answer choice of a multiple-choice question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question represents a single-correct-answer multiple-choice question owned by a teacher.
type Question struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Options       []Option   `json:"options"`
	CorrectAnswer string     `json:"correct_answer"`
	Difficulty    Difficulty `json:"difficulty"`
	Tags          []string   `json:"tags"`
	Explanation   string     `json:"explanation,omitempty"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// HasOption reports whether id names one of the question's options.
func (q *Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Validate enforces the question invariants: 2-6 options with distinct ids,
// correct answer among them, and the field length limits.
func (q *Question) Validate() error {
	f := FieldErrors{}
	if n := len([]rune(q.Title)); n == 0 || n > 200 {
		f["title"] = "title must be 1-200 characters"
	}
	if n := len([]rune(q.Content)); n == 0 || n > 2000 {
		f["content"] = "content must be 1-2000 characters"
	}
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		f["options"] = "a question must have between 2 and 6 options"
	} else {
		seen := make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			if o.ID == "" {
				f["options"] = "option id is required"
				break
			}
			if _, dup := seen[o.ID]; dup {
				f["options"] = "option ids must be unique"
				break
			}
			if n := len([]rune(o.Text)); n == 0 || n > 500 {
				f["options"] = "option text must be 1-500 characters"
				break
			}
			seen[o.ID] = struct{}{}
		}
	}
	if !q.HasOption(q.CorrectAnswer) {
		f["correct_answer"] = "correct answer must match one of the option ids"
	}
	if q.Difficulty.Rank() == 0 {
		f["difficulty"] = "difficulty must be easy, medium or hard"
	}
	for _, t := range q.Tags {
		if len([]rune(t)) > 50 {
			f["tags"] = "each tag must be at most 50 characters"
			break
		}
	}
	if len([]rune(q.Explanation)) > 1000 {
		f["explanation"] = "explanation must be at most 1000 characters"
	}
	return f.orNil()
}

// QuestionForStudent is a question with the answer and explanation stripped,
// served while a quiz is in progress.
type QuestionForStudent struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Options    []Option   `json:"options"`
	Difficulty Difficulty `json:"difficulty"`
}

// ForStudent strips answer data from q.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:         q.ID,
		Title:      q.Title,
		Content:    q.Content,
		Options:    q.Options,
		Difficulty: q.Difficulty,
	}
}

// OptionInput is one option in a question payload.
type OptionInput struct {
	ID   string `json:"id" binding:"required,max=20"`
	Text string `json:"text" binding:"required,max=500"`
}

// CreateQuestionRequest is the payload for creating a question.
type CreateQuestionRequest struct {
	Title         string        `json:"title" binding:"required,max=200"`
	Content       string        `json:"content" binding:"required,max=2000"`
	Options       []OptionInput `json:"options" binding:"required,min=2,max=6,unique=ID,dive"`
	CorrectAnswer string        `json:"correct_answer" binding:"required,max=20"`
	Difficulty    Difficulty    `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Tags          []string      `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	Explanation   string        `json:"explanation" binding:"max=1000"`
}

// UpdateQuestionRequest is a partial update; absent fields keep their value.
type UpdateQuestionRequest struct {
	Title         *string       `json:"title" binding:"omitempty,min=1,max=200"`
	Content       *string       `json:"content" binding:"omitempty,min=1,max=2000"`
	Options       []OptionInput `json:"options" binding:"omitempty,min=2,max=6,unique=ID,dive"`
	CorrectAnswer *string       `json:"correct_answer" binding:"omitempty,min=1,max=20"`
	Difficulty    *Difficulty   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Tags          []string      `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	Explanation   *string       `json:"explanation" binding:"omitempty,max=1000"`
}

// QuestionFilter narrows the teacher's question list.
type QuestionFilter struct {
	OwnerID    uuid.UUID
	Difficulty Difficulty
	Tags       []string
	Search     string
	Limit      int
	Offset     int
}

// ToOptions converts option payloads to stored options.
func ToOptions(in []OptionInput) []Option {
	out := make([]Option, len(in))
	for i, o := range in {
		out[i] = Option{ID: o.ID, Text: o.Text}
	}
	return out
}
