package analytics

import (
	"sort"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/model"
)

// QuestionBreakdown computes per-question statistics for questions (in quiz order)
// over subs, then orders them by s. Ties keep quiz order.
func QuestionBreakdown(questions []model.Question, subs []model.Submission, s QuestionSort) []model.QuestionStats {
	type tally struct {
		attempts int
		correct  int
		options  map[string]int
	}
	tallies := make(map[uuid.UUID]*tally, len(questions))
	for _, q := range questions {
		tallies[q.ID] = &tally{options: make(map[string]int, len(q.Options))}
	}

	for _, sub := range subs {
		for _, a := range sub.Answers {
			t, ok := tallies[a.QuestionID]
			if !ok {
				continue
			}
			t.attempts++
			if a.IsCorrect {
				t.correct++
			}
			if a.SelectedAnswer != "" {
				t.options[a.SelectedAnswer]++
			}
		}
	}

	stats := make([]model.QuestionStats, 0, len(questions))
	for _, q := range questions {
		t := tallies[q.ID]
		opts := make([]model.OptionStats, len(q.Options))
		for i, o := range q.Options {
			count := t.options[o.ID]
			opts[i] = model.OptionStats{
				OptionID:   o.ID,
				OptionText: o.Text,
				Count:      count,
				Percentage: percentOf(count, t.attempts),
				IsCorrect:  o.ID == q.CorrectAnswer,
			}
		}
		stats = append(stats, model.QuestionStats{
			QuestionID:      q.ID,
			Title:           q.Title,
			Content:         q.Content,
			Difficulty:      q.Difficulty,
			TotalAttempts:   t.attempts,
			CorrectAttempts: t.correct,
			CorrectRate:     percentOf(t.correct, t.attempts),
			OptionStats:     opts,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		var c int
		switch s.By {
		case SortByCorrectRate:
			c = cmpFloat(a.CorrectRate, b.CorrectRate)
		case SortByAttempts:
			c = cmpInt(a.TotalAttempts, b.TotalAttempts)
		default:
			c = cmpInt(a.Difficulty.Rank(), b.Difficulty.Rank())
		}
		return directed(c, s.Order) < 0
	})
	return stats
}

// percentOf returns part/whole*100 rounded to 2 decimals, or 0 when whole is 0.
func percentOf(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}
