package analytics

import (
	"sort"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/grading"
	"github.com/stemsi/quizroom-backend/internal/model"
)

// StudentRanking builds per-student rows for subs, filters them by percentage,
// sorts them by q and assigns rank = position + 1. Ties keep the order of subs,
// so callers should pass submissions in a fixed order (the repository sorts by
// submit time, then id).
func StudentRanking(subs []model.Submission, users map[uuid.UUID]model.User, q StudentQuery) []model.StudentPerformance {
	rows := make([]model.StudentPerformance, 0, len(subs))
	for _, s := range subs {
		pct := grading.Percentage(s.Score, s.TotalQuestions)
		if q.MinScore != nil && float64(pct) < *q.MinScore {
			continue
		}
		if q.MaxScore != nil && float64(pct) > *q.MaxScore {
			continue
		}

		row := model.StudentPerformance{
			SubmissionID:     s.ID,
			StudentID:        s.StudentID,
			StudentName:      "Unknown",
			Score:            s.Score,
			TotalQuestions:   s.TotalQuestions,
			Percentage:       pct,
			CorrectAnswers:   s.Score,
			IncorrectAnswers: s.TotalQuestions - s.Score,
			TimeSpent:        s.TimeSpent,
			SubmitTime:       s.SubmitTime,
		}
		if u, ok := users[s.StudentID]; ok {
			row.StudentName = u.FullName()
			row.Username = u.Username
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		var c int
		switch q.By {
		case SortByPercentage:
			c = cmpInt(a.Percentage, b.Percentage)
		case SortByTimeSpent:
			c = cmpInt(a.TimeSpent, b.TimeSpent)
		case SortBySubmitTime:
			c = a.SubmitTime.Compare(b.SubmitTime)
		default:
			c = cmpInt(a.Score, b.Score)
		}
		return directed(c, q.Order) < 0
	})

	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
