package service

import (
	"context"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

type UserService struct {
	repository UserRepository
}

func NewUserService(repository UserRepository) *UserService {
	return &UserService{repository: repository}
}

// EnsureUser stores the user or refreshes their names. It reports whether the user is new.
func (s *UserService) EnsureUser(ctx context.Context, userID, chatID int64, firstName, username string) (bool, error) {
	user := entities.NewUser(userID, chatID, firstName, username)
	return s.repository.Save(ctx, user)
}
