package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/testroom/internal/domain/entities"
	"github.com/aliskhannn/testroom/internal/infra/postgres/repository"
)

var (
	ErrSessionNotActive = errors.New("session is not in progress")
	ErrSubmitInFlight   = errors.New("submission already in progress")
	ErrUnknownQuestion  = errors.New("question is not part of the session")
	ErrInvalidOption    = errors.New("option index out of range")
	ErrAnswersLocked    = errors.New("answers are locked after a submission attempt")
	ErrTimeUp           = errors.New("time is up")
)

// User-facing messages kept on sessions that failed to load.
const (
	msgTestNotFound   = "Test not found."
	msgTestLoadFailed = "Failed to load the test. Please try again later."
)

const (
	defaultTickInterval  = time.Second
	defaultSubmitTimeout = 10 * time.Second
)

// SessionDeps are the collaborators shared by all sessions.
type SessionDeps struct {
	Bank          QuestionBank
	Recorder      AttemptRecorder
	Store         DeadlineStore
	Sampler       *Sampler
	Logger        *zap.Logger
	Now           func() time.Time
	TickInterval  time.Duration
	SubmitTimeout time.Duration
}

// Session is one test-taking interaction of one user, from loading the
// questions to the recorded attempt.
//
// States: loading -> in_progress -> completed, loading -> error and
// loading -> empty. Completed, error and empty are terminal.
type Session struct {
	userID int64
	testID uuid.UUID

	bank          QuestionBank
	recorder      AttemptRecorder
	sampler       *Sampler
	timer         *SessionTimer
	logger        *zap.Logger
	now           func() time.Time
	tickInterval  time.Duration
	submitTimeout time.Duration

	mu         sync.Mutex
	state      entities.SessionState
	test       *entities.Test
	questions  []entities.Question
	answers    []entities.UserAnswer
	index      map[uuid.UUID]int
	current    int
	deadline   time.Time
	submitting bool
	autoFired  bool
	attempt    *entities.Attempt // computed on the first submit, kept until recorded
	recorded   bool
	errMsg     string

	onAutoSubmit func(s *Session, err error)

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSession creates a session in the loading state.
func NewSession(userID int64, testID uuid.UUID, deps SessionDeps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	sampler := deps.Sampler
	if sampler == nil {
		sampler = NewSampler(nil)
	}
	tick := deps.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}
	submitTimeout := deps.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = defaultSubmitTimeout
	}

	return &Session{
		userID:        userID,
		testID:        testID,
		bank:          deps.Bank,
		recorder:      deps.Recorder,
		sampler:       sampler,
		timer:         NewSessionTimer(deps.Store, strconv.FormatInt(userID, 10), now),
		logger:        logger.With(zap.Int64("user_id", userID), zap.String("test_id", testID.String())),
		now:           now,
		tickInterval:  tick,
		submitTimeout: submitTimeout,
		state:         entities.SessionLoading,
		stop:          make(chan struct{}),
	}
}

// UserID returns the user taking the session.
func (s *Session) UserID() int64 { return s.userID }

// TestID returns the test the session belongs to.
func (s *Session) TestID() uuid.UUID { return s.testID }

// State returns the current state.
func (s *Session) State() entities.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load fetches the test and its questions, samples the session's questions,
// starts or resumes the timer and moves the session to in_progress.
// A missing test or a failed fetch moves it to error, a test without questions to empty.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != entities.SessionLoading {
		s.mu.Unlock()
		return ErrSessionNotActive
	}
	s.mu.Unlock()

	test, err := s.bank.GetByID(ctx, s.testID)
	if err != nil {
		if errors.Is(err, repository.ErrTestNotFound) {
			s.fail(msgTestNotFound)
		} else {
			s.fail(msgTestLoadFailed)
		}
		return fmt.Errorf("get test: %w", err)
	}

	all, err := s.bank.GetQuestions(ctx, s.testID)
	if err != nil {
		s.fail(msgTestLoadFailed)
		return fmt.Errorf("get questions: %w", err)
	}

	if len(all) == 0 {
		s.mu.Lock()
		s.test = test
		s.state = entities.SessionEmpty
		s.mu.Unlock()
		s.Close()
		s.logger.Info("test has no questions")
		return nil
	}

	selected := s.sampler.Select(all, test.QuestionsCount)

	deadline, err := s.timer.Start(ctx, s.testID, test.TimeLimit)
	if err != nil {
		s.fail(msgTestLoadFailed)
		return fmt.Errorf("start timer: %w", err)
	}

	answers := make([]entities.UserAnswer, len(selected))
	index := make(map[uuid.UUID]int, len(selected))
	for i, q := range selected {
		answers[i] = entities.UserAnswer{QuestionID: q.ID}
		index[q.ID] = i
	}

	s.mu.Lock()
	s.test = test
	s.questions = selected
	s.answers = answers
	s.index = index
	s.current = 0
	s.deadline = deadline
	s.state = entities.SessionInProgress
	s.mu.Unlock()

	s.logger.Info("session started",
		zap.Int("questions", len(selected)),
		zap.Int("bank_size", len(all)),
		zap.Time("deadline", deadline),
	)

	return nil
}

// SelectAnswer records optionIndex as the answer to questionID, replacing any
// earlier choice. Answers are frozen while a submission is in flight, once a
// submission has been tried and after the deadline.
func (s *Session) SelectAnswer(questionID uuid.UUID, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != entities.SessionInProgress {
		return ErrSessionNotActive
	}
	if s.submitting {
		return ErrSubmitInFlight
	}
	// A retry must send the attempt already handed to the recorder.
	if s.attempt != nil {
		return ErrAnswersLocked
	}
	if remainingSeconds(s.deadline, s.now()) == 0 {
		return ErrTimeUp
	}

	i, ok := s.index[questionID]
	if !ok {
		return ErrUnknownQuestion
	}
	if optionIndex < 0 || optionIndex >= len(s.questions[i].Options) {
		return ErrInvalidOption
	}

	s.answers[i].SelectedOption = strconv.Itoa(optionIndex)

	return nil
}

// GoTo moves to the question at index. Out-of-range indexes are ignored.
func (s *Session) GoTo(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.questions) {
		return false
	}
	s.current = index
	return true
}

// Next moves to the following question, if any.
func (s *Session) Next() bool {
	s.mu.Lock()
	i := s.current + 1
	s.mu.Unlock()
	return s.GoTo(i)
}

// Prev moves to the preceding question, if any.
func (s *Session) Prev() bool {
	s.mu.Lock()
	i := s.current - 1
	s.mu.Unlock()
	return s.GoTo(i)
}

// Submit scores the answers, records the attempt, clears the timer and
// completes the session. Overlapping calls get ErrSubmitInFlight. When
// recording fails the computed attempt is kept for the next call and the
// session stays in progress.
func (s *Session) Submit(ctx context.Context) (*entities.Attempt, error) {
	s.mu.Lock()
	if s.state != entities.SessionInProgress {
		s.mu.Unlock()
		return nil, ErrSessionNotActive
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	s.submitting = true

	if s.attempt == nil {
		score := ScoreAnswers(s.questions, s.answers)
		attempt, err := entities.NewAttempt(s.userID, s.testID, score, s.now())
		if err != nil {
			s.submitting = false
			s.mu.Unlock()
			return nil, fmt.Errorf("score session: %w", err)
		}
		s.attempt = attempt
	}
	attempt := *s.attempt
	recorded := s.recorded
	s.mu.Unlock()

	if !recorded {
		if err := s.recorder.Create(ctx, &attempt); err != nil {
			s.mu.Lock()
			s.submitting = false
			s.mu.Unlock()
			s.logger.Error("failed to record attempt", zap.Error(err))
			return nil, fmt.Errorf("record attempt: %w", err)
		}

		s.mu.Lock()
		s.recorded = true
		s.mu.Unlock()
	}

	if err := s.timer.Clear(ctx, s.testID); err != nil {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		s.logger.Error("failed to clear timer", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.state = entities.SessionCompleted
	s.submitting = false
	s.mu.Unlock()
	s.Close()

	s.logger.Info("session completed",
		zap.Int("score", attempt.Score),
		zap.Int("total", attempt.TotalQuestions),
		zap.Float64("percentage", attempt.Percentage),
	)

	return &attempt, nil
}

// Tick polls the timer once. The first time it reads zero remaining seconds
// it submits the session; it reports whether it did.
func (s *Session) Tick(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.state != entities.SessionInProgress || s.autoFired {
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()

	remaining, err := s.timer.Remaining(ctx, s.testID)
	if err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}

	s.mu.Lock()
	if s.state != entities.SessionInProgress || s.autoFired {
		s.mu.Unlock()
		return false, nil
	}
	s.autoFired = true
	s.mu.Unlock()

	s.logger.Info("time is up, submitting")

	_, err = s.Submit(ctx)
	if errors.Is(err, ErrSubmitInFlight) {
		// A manual submission is already running and reports its own outcome.
		return false, nil
	}

	if s.onAutoSubmit != nil {
		s.onAutoSubmit(s, err)
	}

	return true, err
}

// Run polls the timer every tick interval until the session leaves
// in_progress, Close is called or ctx is done.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, s.submitTimeout)
			if _, err := s.Tick(tickCtx); err != nil {
				s.logger.Error("timer tick failed", zap.Error(err))
			}
			cancel()

			if s.State() != entities.SessionInProgress {
				return
			}
		}
	}
}

// Close stops the ticker. It is safe to call more than once.
func (s *Session) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Snapshot returns a copy of the session for rendering.
func (s *Session) Snapshot() entities.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := entities.SessionSnapshot{
		UserID:       s.userID,
		TestID:       s.testID,
		State:        s.state,
		Current:      s.current,
		Questions:    append([]entities.Question(nil), s.questions...),
		Answers:      append([]entities.UserAnswer(nil), s.answers...),
		Submitting:   s.submitting,
		ErrorMessage: s.errMsg,
	}
	if s.test != nil {
		snap.TestTitle = s.test.Title
	}
	if s.state == entities.SessionInProgress {
		snap.Remaining = remainingSeconds(s.deadline, s.now())
	}
	if s.state == entities.SessionCompleted && s.attempt != nil {
		a := *s.attempt
		snap.Attempt = &a
	}

	return snap
}

func (s *Session) fail(msg string) {
	s.mu.Lock()
	s.state = entities.SessionError
	s.errMsg = msg
	s.mu.Unlock()
	s.Close()
}
