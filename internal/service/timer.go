package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidTimeLimit = errors.New("time limit must be positive")

const timerKeyPrefix = "test_timer_"

// TimerKeySuffix returns the part of a deadline key shared by all users of a test.
func TimerKeySuffix(testID uuid.UUID) string {
	return timerKeyPrefix + testID.String()
}

// SessionTimer keeps an absolute deadline per test in a DeadlineStore so the
// remaining time survives restarts and repeated visits.
type SessionTimer struct {
	store DeadlineStore
	scope string
	now   func() time.Time
}

// NewSessionTimer creates a timer whose keys are prefixed with scope (usually the user ID).
// A nil now uses time.Now.
func NewSessionTimer(store DeadlineStore, scope string, now func() time.Time) *SessionTimer {
	if now == nil {
		now = time.Now
	}
	return &SessionTimer{store: store, scope: scope, now: now}
}

// Start returns the persisted deadline for testID, or persists and returns a new
// one limitMinutes from now when none is stored.
func (t *SessionTimer) Start(ctx context.Context, testID uuid.UUID, limitMinutes int) (time.Time, error) {
	deadline, ok, err := t.Deadline(ctx, testID)
	if err != nil {
		return time.Time{}, err
	}
	if ok {
		return deadline, nil
	}

	if limitMinutes <= 0 {
		return time.Time{}, ErrInvalidTimeLimit
	}

	deadline = time.UnixMilli(t.now().Add(time.Duration(limitMinutes) * time.Minute).UnixMilli())
	if err := t.store.Set(ctx, t.key(testID), strconv.FormatInt(deadline.UnixMilli(), 10)); err != nil {
		return time.Time{}, fmt.Errorf("persist deadline: %w", err)
	}

	return deadline, nil
}

// Deadline returns the persisted deadline. Missing or unparseable values report ok=false.
func (t *SessionTimer) Deadline(ctx context.Context, testID uuid.UUID) (time.Time, bool, error) {
	raw, ok, err := t.store.Get(ctx, t.key(testID))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load deadline: %w", err)
	}
	if !ok {
		return time.Time{}, false, nil
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false, nil
	}

	return time.UnixMilli(ms), true, nil
}

// Remaining returns whole seconds left until the deadline, never negative.
// Without a deadline it returns 0.
func (t *SessionTimer) Remaining(ctx context.Context, testID uuid.UUID) (int, error) {
	deadline, ok, err := t.Deadline(ctx, testID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	return remainingSeconds(deadline, t.now()), nil
}

// Clear removes the persisted deadline so the next Start begins a fresh clock.
func (t *SessionTimer) Clear(ctx context.Context, testID uuid.UUID) error {
	if err := t.store.Delete(ctx, t.key(testID)); err != nil {
		return fmt.Errorf("clear deadline: %w", err)
	}
	return nil
}

func (t *SessionTimer) key(testID uuid.UUID) string {
	if t.scope == "" {
		return TimerKeySuffix(testID)
	}
	return t.scope + ":" + TimerKeySuffix(testID)
}

func remainingSeconds(deadline, now time.Time) int {
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}
