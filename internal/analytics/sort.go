package analytics

import (
	"errors"
	"strings"
)

// ErrInvalidSort is returned for an unknown sort field or order.
var ErrInvalidSort = errors.New("invalid sort parameters")

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort fields of the per-question view.
const (
	SortByDifficulty  = "difficulty"
	SortByCorrectRate = "correctRate"
	SortByAttempts    = "attempts"
)

// Sort fields of the per-student view.
const (
	SortByScore      = "score"
	SortByPercentage = "percentage"
	SortByTimeSpent  = "timeSpent"
	SortBySubmitTime = "submitTime"
)

// QuestionSort selects the ordering of per-question statistics.
type QuestionSort struct {
	By    string
	Order Order
}

// StudentQuery selects ordering and percentage filters of per-student performance.
type StudentQuery struct {
	By       string
	Order    Order
	MinScore *float64
	MaxScore *float64
}

var sortAliases = map[string]string{
	"difficulty":   SortByDifficulty,
	"correctrate":  SortByCorrectRate,
	"correct_rate": SortByCorrectRate,
	"attempts":     SortByAttempts,
	"score":        SortByScore,
	"percentage":   SortByPercentage,
	"timespent":    SortByTimeSpent,
	"time_spent":   SortByTimeSpent,
	"submittime":   SortBySubmitTime,
	"submit_time":  SortBySubmitTime,
}

func normalize(by string) string {
	return sortAliases[strings.ToLower(strings.TrimSpace(by))]
}

func parseOrder(raw string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "desc":
		return Desc, nil
	case "asc":
		return Asc, nil
	}
	return "", ErrInvalidSort
}

// ParseQuestionSort validates query values; empty values default to difficulty desc.
func ParseQuestionSort(by, order string) (QuestionSort, error) {
	o, err := parseOrder(order)
	if err != nil {
		return QuestionSort{}, err
	}
	if by == "" {
		return QuestionSort{By: SortByDifficulty, Order: o}, nil
	}
	switch n := normalize(by); n {
	case SortByDifficulty, SortByCorrectRate, SortByAttempts:
		return QuestionSort{By: n, Order: o}, nil
	}
	return QuestionSort{}, ErrInvalidSort
}

// ParseStudentSort validates query values; empty values default to score desc.
func ParseStudentSort(by, order string) (StudentQuery, error) {
	o, err := parseOrder(order)
	if err != nil {
		return StudentQuery{}, err
	}
	if by == "" {
		return StudentQuery{By: SortByScore, Order: o}, nil
	}
	switch n := normalize(by); n {
	case SortByScore, SortByPercentage, SortByTimeSpent, SortBySubmitTime:
		return StudentQuery{By: n, Order: o}, nil
	}
	return StudentQuery{}, ErrInvalidSort
}

// cmpInt and cmpFloat return -1, 0 or 1.
func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func directed(c int, o Order) int {
	if o == Desc {
		return -c
	}
	return c
}
