package entities

import (
	"time"

	"github.com/google/uuid"
)

// Test is a timed multiple-choice test created from an uploaded question bank.
type Test struct {
	ID             uuid.UUID
	Title          string
	TimeLimit      int  // minutes, positive
	QuestionsCount *int // questions drawn per session; nil means all
	CreatedBy      int64
	CreatedAt      time.Time
}

// NewTest creates a test owned by createdBy.
func NewTest(title string, timeLimit int, createdBy int64) *Test {
	return &Test{
		ID:        uuid.New(),
		Title:     title,
		TimeLimit: timeLimit,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
}

// TestSummary is a test together with the size of its question bank.
type TestSummary struct {
	Test
	TotalQuestions int
}

// TestUpdate holds the fields an administrator may change. Nil fields are left as is.
type TestUpdate struct {
	Title          *string
	TimeLimit      *int
	QuestionsCount *int
	// ClearQuestionsCount resets the per-session count so all questions are used.
	ClearQuestionsCount bool
}
