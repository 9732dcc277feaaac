// Package analytics computes read-only rollups over submissions.
// Functions take already-loaded records and never touch storage.
package analytics

import (
	"math"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/grading"
	"github.com/stemsi/quizroom-backend/internal/model"
)

// Score band thresholds, as a fraction of the quiz's question count.
const (
	excellentFrom = 0.9
	goodFrom      = 0.7
	averageFrom   = 0.6
)

// Band names, in descending order.
const (
	BandExcellent = "excellent"
	BandGood      = "good"
	BandAverage   = "average"
	BandPoor      = "poor"
)

// Band classifies a single submission by its score ratio.
func Band(score, total int) string {
	r := grading.Ratio(score, total)
	switch {
	case r >= excellentFrom:
		return BandExcellent
	case r >= goodFrom:
		return BandGood
	case r >= averageFrom:
		return BandAverage
	default:
		return BandPoor
	}
}

// Overall summarizes subs. An empty slice yields all-zero stats.
func Overall(subs []model.Submission) model.OverallStats {
	stats := model.OverallStats{TotalSubmissions: len(subs)}
	if len(subs) == 0 {
		return stats
	}

	students := make(map[uuid.UUID]struct{}, len(subs))
	var scoreSum, pctSum, timeSum float64
	for _, s := range subs {
		students[s.StudentID] = struct{}{}
		scoreSum += float64(s.Score)
		pctSum += grading.Ratio(s.Score, s.TotalQuestions) * 100
		timeSum += float64(s.TimeSpent)

		switch Band(s.Score, s.TotalQuestions) {
		case BandExcellent:
			stats.ScoreDistribution.Excellent++
		case BandGood:
			stats.ScoreDistribution.Good++
		case BandAverage:
			stats.ScoreDistribution.Average++
		default:
			stats.ScoreDistribution.Poor++
		}
	}

	n := float64(len(subs))
	stats.UniqueStudents = len(students)
	stats.AverageScore = round2(scoreSum / n)
	stats.AveragePercentage = round2(pctSum / n)
	stats.AverageTimeSpent = int(math.Round(timeSum / n))
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
