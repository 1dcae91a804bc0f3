package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

var (
	ErrEmptyTitle            = errors.New("title is required")
	ErrInvalidQuestionsCount = errors.New("questions count must be between 1 and the number of questions")
)

// CreateTestInput describes a test to create from an uploaded question bank.
type CreateTestInput struct {
	Title          string
	TimeLimit      int // minutes
	QuestionsCount *int
	CreatedBy      int64
	Questions      io.Reader // CSV
}

// TestService handles test administration.
type TestService struct {
	tests     TestRepository
	attempts  AttemptRepository
	deadlines DeadlineCleaner
	tx        Transactor
	logger    *zap.Logger
	now       func() time.Time
}

// NewTestService creates a new test service.
func NewTestService(
	tests TestRepository,
	attempts AttemptRepository,
	deadlines DeadlineCleaner,
	tx Transactor,
	logger *zap.Logger,
) *TestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestService{
		tests:     tests,
		attempts:  attempts,
		deadlines: deadlines,
		tx:        tx,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateFromCSV validates the question bank and stores the test with its
// questions in one transaction. Nothing is stored when validation fails.
func (s *TestService) CreateFromCSV(ctx context.Context, in CreateTestInput) (*entities.TestSummary, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if in.TimeLimit <= 0 {
		return nil, ErrInvalidTimeLimit
	}

	questions, err := ParseQuestionsCSV(in.Questions)
	if err != nil {
		return nil, err
	}

	if in.QuestionsCount != nil && (*in.QuestionsCount <= 0 || *in.QuestionsCount > len(questions)) {
		return nil, ErrInvalidQuestionsCount
	}

	test := entities.NewTest(title, in.TimeLimit, in.CreatedBy)
	test.CreatedAt = s.now()
	test.QuestionsCount = in.QuestionsCount

	for i := range questions {
		questions[i].ID = uuid.New()
		questions[i].TestID = test.ID
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tests.Create(ctx, test); err != nil {
			return err
		}
		return s.tests.CreateQuestions(ctx, questions)
	})
	if err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}

	s.logger.Info("test created",
		zap.String("test_id", test.ID.String()),
		zap.String("title", test.Title),
		zap.Int("questions", len(questions)),
		zap.Int64("created_by", in.CreatedBy),
	)

	return &entities.TestSummary{Test: *test, TotalQuestions: len(questions)}, nil
}

// List returns all tests, newest first, with their question counts.
func (s *TestService) List(ctx context.Context) ([]entities.TestSummary, error) {
	tests, err := s.tests.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, nil
}

// Get returns a test with its question count.
func (s *TestService) Get(ctx context.Context, id uuid.UUID) (*entities.TestSummary, error) {
	test, err := s.tests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}

	total, err := s.tests.CountQuestions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}

	return &entities.TestSummary{Test: *test, TotalQuestions: total}, nil
}

// Update changes the title, time limit or per-session question count of a test.
func (s *TestService) Update(ctx context.Context, id uuid.UUID, upd entities.TestUpdate) (*entities.TestSummary, error) {
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		upd.Title = &title
	}
	if upd.TimeLimit != nil && *upd.TimeLimit <= 0 {
		return nil, ErrInvalidTimeLimit
	}

	if upd.QuestionsCount != nil && !upd.ClearQuestionsCount {
		total, err := s.tests.CountQuestions(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("count questions: %w", err)
		}
		if *upd.QuestionsCount <= 0 || *upd.QuestionsCount > total {
			return nil, ErrInvalidQuestionsCount
		}
	}

	if err := s.tests.Update(ctx, id, upd); err != nil {
		return nil, fmt.Errorf("update test: %w", err)
	}

	return s.Get(ctx, id)
}

// Delete removes a test with its attempts and questions, then drops any
// session deadlines still stored for it.
func (s *TestService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.attempts.DeleteByTest(ctx, id); err != nil {
			return err
		}
		if err := s.tests.DeleteQuestions(ctx, id); err != nil {
			return err
		}
		return s.tests.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete test: %w", err)
	}

	if s.deadlines != nil {
		if err := s.deadlines.DeleteBySuffix(ctx, TimerKeySuffix(id)); err != nil {
			s.logger.Warn("failed to clear deadlines of deleted test",
				zap.String("test_id", id.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("test deleted", zap.String("test_id", id.String()))

	return nil
}

// ListAttempts returns the attempts of a test, newest first.
func (s *TestService) ListAttempts(ctx context.Context, testID uuid.UUID) ([]entities.AttemptWithUser, error) {
	if _, err := s.tests.GetByID(ctx, testID); err != nil {
		return nil, fmt.Errorf("get test: %w", err)
	}

	attempts, err := s.attempts.ListByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}
