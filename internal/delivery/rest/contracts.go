package rest

import (
	"context"

	"github.com/google/uuid"

	"github.com/aliskhannn/testroom/internal/domain/entities"
	"github.com/aliskhannn/testroom/internal/service"
)

// TestAdmin is the test administration the API exposes.
type TestAdmin interface {
	CreateFromCSV(ctx context.Context, in service.CreateTestInput) (*entities.TestSummary, error)
	List(ctx context.Context) ([]entities.TestSummary, error)
	Get(ctx context.Context, id uuid.UUID) (*entities.TestSummary, error)
	Update(ctx context.Context, id uuid.UUID, upd entities.TestUpdate) (*entities.TestSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAttempts(ctx context.Context, testID uuid.UUID) ([]entities.AttemptWithUser, error)
}
