package entities

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoQuestions is returned when a percentage is requested for an empty score.
var ErrNoQuestions = errors.New("score has no questions")

// percentagePlaces is the number of decimal places kept in a percentage.
const percentagePlaces = 2

// Score is the correct/total tally of a finished session.
type Score struct {
	Correct int
	Total   int
}

// Percentage returns Correct/Total*100 rounded to two decimal places.
func (s Score) Percentage() (float64, error) {
	if s.Total <= 0 {
		return 0, ErrNoQuestions
	}

	pct := decimal.NewFromInt(int64(s.Correct)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.Total))).
		Round(percentagePlaces)

	f, _ := pct.Float64()
	return f, nil
}
