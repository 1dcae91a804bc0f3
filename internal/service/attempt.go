package service

import (
	"context"
	"fmt"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

const defaultHistoryLimit = 10

// AttemptService answers questions about past attempts of a user.
type AttemptService struct {
	repository AttemptRepository
}

func NewAttemptService(repository AttemptRepository) *AttemptService {
	return &AttemptService{repository: repository}
}

// History returns the latest attempts of a user, newest first. A non-positive
// limit uses the default.
func (s *AttemptService) History(ctx context.Context, userID int64, limit int) ([]entities.AttemptWithTest, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	attempts, err := s.repository.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}
