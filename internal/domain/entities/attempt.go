package entities

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one completed, scored test session of one user.
type Attempt struct {
	ID             uuid.UUID
	UserID         int64
	TestID         uuid.UUID
	Score          int
	TotalQuestions int
	Percentage     float64
	CompletedAt    time.Time
}

// NewAttempt builds an attempt from a score. It fails for an empty score.
func NewAttempt(userID int64, testID uuid.UUID, score Score, completedAt time.Time) (*Attempt, error) {
	pct, err := score.Percentage()
	if err != nil {
		return nil, err
	}

	return &Attempt{
		ID:             uuid.New(),
		UserID:         userID,
		TestID:         testID,
		Score:          score.Correct,
		TotalQuestions: score.Total,
		Percentage:     pct,
		CompletedAt:    completedAt,
	}, nil
}

// AttemptWithUser is an attempt joined with the display data of its user.
type AttemptWithUser struct {
	Attempt
	UserName string
}

// AttemptWithTest is an attempt joined with the title of its test.
type AttemptWithTest struct {
	Attempt
	TestTitle string
}
