package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

type testResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	TimeLimit      int       `json:"time_limit"`
	QuestionsCount *int      `json:"questions_count"`
	TotalQuestions int       `json:"total_questions"`
	CreatedBy      int64     `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

func newTestResponse(t entities.TestSummary) testResponse {
	return testResponse{
		ID:             t.ID,
		Title:          t.Title,
		TimeLimit:      t.TimeLimit,
		QuestionsCount: t.QuestionsCount,
		TotalQuestions: t.TotalQuestions,
		CreatedBy:      t.CreatedBy,
		CreatedAt:      t.CreatedAt,
	}
}

type attemptResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         int64     `json:"user_id"`
	UserName       string    `json:"user_name"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	CompletedAt    time.Time `json:"completed_at"`
}

func newAttemptResponse(a entities.AttemptWithUser) attemptResponse {
	return attemptResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		UserName:       a.UserName,
		Score:          a.Score,
		TotalQuestions: a.TotalQuestions,
		Percentage:     a.Percentage,
		CompletedAt:    a.CompletedAt,
	}
}

// updateTestRequest is the body of PATCH /api/tests/:id. Omitted fields stay unchanged.
type updateTestRequest struct {
	Title               *string `json:"title"`
	TimeLimit           *int    `json:"time_limit"`
	QuestionsCount      *int    `json:"questions_count"`
	ClearQuestionsCount bool    `json:"clear_questions_count"`
}

func (r updateTestRequest) toUpdate() entities.TestUpdate {
	return entities.TestUpdate{
		Title:               r.Title,
		TimeLimit:           r.TimeLimit,
		QuestionsCount:      r.QuestionsCount,
		ClearQuestionsCount: r.ClearQuestionsCount,
	}
}

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}
