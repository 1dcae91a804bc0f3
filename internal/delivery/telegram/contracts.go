package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/aliskhannn/testroom/internal/domain/entities"
	"github.com/aliskhannn/testroom/internal/service"
)

// BotAPI is the part of *tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type UserService interface {
	EnsureUser(ctx context.Context, userID, chatID int64, firstName, username string) (bool, error)
}

type TestCatalog interface {
	List(ctx context.Context) ([]entities.TestSummary, error)
	Get(ctx context.Context, id uuid.UUID) (*entities.TestSummary, error)
}

type AttemptHistory interface {
	History(ctx context.Context, userID int64, limit int) ([]entities.AttemptWithTest, error)
}

type SessionManager interface {
	Start(ctx context.Context, userID int64, testID uuid.UUID) (entities.SessionSnapshot, error)
	Active(userID int64, testID uuid.UUID) (*service.Session, error)
	Submit(ctx context.Context, userID int64) (entities.SessionSnapshot, error)
	Abandon(userID int64)
}
