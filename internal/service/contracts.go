package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

type UserRepository interface {
	Save(ctx context.Context, user *entities.User) (bool, error)
}

// QuestionBank serves tests and their questions to sessions.
type QuestionBank interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Test, error)
	GetQuestions(ctx context.Context, testID uuid.UUID) ([]entities.Question, error)
}

type TestRepository interface {
	QuestionBank
	Create(ctx context.Context, test *entities.Test) error
	List(ctx context.Context) ([]entities.TestSummary, error)
	Update(ctx context.Context, id uuid.UUID, upd entities.TestUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateQuestions(ctx context.Context, questions []entities.Question) error
	CountQuestions(ctx context.Context, testID uuid.UUID) (int, error)
	DeleteQuestions(ctx context.Context, testID uuid.UUID) error
}

// AttemptRecorder persists finished attempts.
type AttemptRecorder interface {
	Create(ctx context.Context, a *entities.Attempt) error
}

type AttemptRepository interface {
	AttemptRecorder
	ListByTest(ctx context.Context, testID uuid.UUID) ([]entities.AttemptWithUser, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]entities.AttemptWithTest, error)
	DeleteByTest(ctx context.Context, testID uuid.UUID) error
}

// DeadlineStore is the key/value store holding session deadlines.
// A missing key is reported with ok=false and a nil error.
type DeadlineStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// DeadlineCleaner removes the deadlines of every user for a test.
type DeadlineCleaner interface {
	DeleteBySuffix(ctx context.Context, suffix string) error
}

// DeadlinePurger removes deadlines that expired before a moment.
type DeadlinePurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionNotifier is told about submissions nobody was waiting for.
type SessionNotifier interface {
	NotifyAutoSubmitted(ctx context.Context, snap entities.SessionSnapshot)
	NotifySubmitFailed(ctx context.Context, snap entities.SessionSnapshot, err error)
}
