package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

var ErrNoActiveSession = errors.New("no active session")

// SessionManager keeps at most one live session per user and runs their timers.
type SessionManager struct {
	deps     SessionDeps
	notifier SessionNotifier
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[int64]*Session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionManager creates a SessionManager. Session timers run until ctx is
// done or Shutdown is called.
func NewSessionManager(ctx context.Context, deps SessionDeps) *SessionManager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Sampler == nil {
		deps.Sampler = NewSampler(nil)
	}

	ctx, cancel := context.WithCancel(ctx)

	return &SessionManager{
		deps:     deps,
		logger:   deps.Logger,
		sessions: make(map[int64]*Session),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetNotifier sets the notifier (called after handler is created).
func (m *SessionManager) SetNotifier(notifier SessionNotifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = notifier
}

// Start opens a session of testID for userID. A live session of the same test
// is returned as is; a live session of another test is abandoned first, its
// persisted deadline kept so the clock resumes when the user comes back.
func (m *SessionManager) Start(ctx context.Context, userID int64, testID uuid.UUID) (entities.SessionSnapshot, error) {
	m.mu.Lock()
	if old, ok := m.sessions[userID]; ok {
		if old.TestID() == testID && old.State() == entities.SessionInProgress {
			m.mu.Unlock()
			return old.Snapshot(), nil
		}
		old.Close()
		delete(m.sessions, userID)
		m.logger.Info("session abandoned",
			zap.Int64("user_id", userID),
			zap.String("test_id", old.TestID().String()),
		)
	}
	m.mu.Unlock()

	s := NewSession(userID, testID, m.deps)
	s.onAutoSubmit = m.handleAutoSubmit

	if err := s.Load(ctx); err != nil {
		return s.Snapshot(), fmt.Errorf("load session: %w", err)
	}

	if s.State() != entities.SessionInProgress {
		return s.Snapshot(), nil
	}

	m.mu.Lock()
	if current, ok := m.sessions[userID]; ok {
		current.Close()
	}
	m.sessions[userID] = s
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.Run(m.ctx)
	}()

	return s.Snapshot(), nil
}

// Get returns the live session of userID.
func (m *SessionManager) Get(userID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return s, nil
}

// Active returns the live session of userID only if it belongs to testID.
func (m *SessionManager) Active(userID int64, testID uuid.UUID) (*Session, error) {
	s, err := m.Get(userID)
	if err != nil {
		return nil, err
	}
	if s.TestID() != testID {
		return nil, ErrNoActiveSession
	}
	return s, nil
}

// Submit submits the live session of userID and forgets it once recorded.
func (m *SessionManager) Submit(ctx context.Context, userID int64) (entities.SessionSnapshot, error) {
	s, err := m.Get(userID)
	if err != nil {
		return entities.SessionSnapshot{}, err
	}

	if _, err := s.Submit(ctx); err != nil {
		return s.Snapshot(), err
	}

	m.remove(s)
	return s.Snapshot(), nil
}

// Abandon stops the live session of userID without submitting it.
func (m *SessionManager) Abandon(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.Close()
		delete(m.sessions, userID)
	}
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown stops every session timer and waits for them to exit.
func (m *SessionManager) Shutdown() {
	m.cancel()

	m.mu.Lock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *SessionManager) handleAutoSubmit(s *Session, err error) {
	m.mu.RLock()
	notifier := m.notifier
	m.mu.RUnlock()

	snap := s.Snapshot()

	if err != nil {
		m.logger.Error("auto-submit failed",
			zap.Int64("user_id", s.UserID()),
			zap.String("test_id", s.TestID().String()),
			zap.Error(err),
		)
		if notifier != nil {
			notifier.NotifySubmitFailed(m.ctx, snap, err)
		}
		return
	}

	m.remove(s)

	if notifier != nil {
		notifier.NotifyAutoSubmitted(m.ctx, snap)
	}
}

// remove forgets s if it is still the live session of its user.
func (m *SessionManager) remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.sessions[s.UserID()]; ok && current == s {
		delete(m.sessions, s.UserID())
	}
}
