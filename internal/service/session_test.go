package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/testroom/internal/domain/entities"
	"github.com/aliskhannn/testroom/internal/infra/postgres/repository"
	"github.com/aliskhannn/testroom/internal/storage"
)

type sessionFixture struct {
	bank     *fakeBank
	recorder *fakeRecorder
	store    *storage.DeadlineStorage
	clock    *fakeClock
	test     *entities.Test
}

func newSessionFixture(questions int, limitMinutes int) *sessionFixture {
	f := &sessionFixture{
		bank:     newFakeBank(),
		recorder: &fakeRecorder{},
		store:    storage.NewDeadlineStorage(),
		clock:    newFakeClock(),
	}
	f.test = &entities.Test{ID: uuid.New(), Title: "Go basics", TimeLimit: limitMinutes}
	f.bank.add(f.test, makeQuestions(f.test.ID, "A", questions))
	return f
}

func (f *sessionFixture) deps() SessionDeps {
	return SessionDeps{
		Bank:     f.bank,
		Recorder: f.recorder,
		Store:    f.store,
		Sampler:  NewSampler(rand.NewSource(1)),
		Now:      f.clock.Now,
	}
}

func (f *sessionFixture) loaded(t *testing.T) *Session {
	t.Helper()
	s := NewSession(42, f.test.ID, f.deps())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.State() != entities.SessionInProgress {
		t.Fatalf("state = %s, want in_progress", s.State())
	}
	return s
}

func TestSession_Load(t *testing.T) {
	f := newSessionFixture(5, 20)
	s := f.loaded(t)

	snap := s.Snapshot()
	if len(snap.Questions) != 5 || len(snap.Answers) != 5 {
		t.Fatalf("questions = %d, answers = %d; want 5, 5", len(snap.Questions), len(snap.Answers))
	}
	for i, a := range snap.Answers {
		if a.QuestionID != snap.Questions[i].ID || a.SelectedOption != "" {
			t.Errorf("answer %d = %+v, want empty answer for %s", i, a, snap.Questions[i].ID)
		}
	}
	if snap.Remaining != 20*60 {
		t.Errorf("remaining = %d, want %d", snap.Remaining, 20*60)
	}
	if snap.TestTitle != "Go basics" {
		t.Errorf("title = %q", snap.TestTitle)
	}
}

func TestSession_LoadFailures(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *sessionFixture) uuid.UUID
		wantState entities.SessionState
		wantErr   bool
		wantMsg   string
	}{
		{
			name:      "missing test",
			setup:     func(f *sessionFixture) uuid.UUID { return uuid.New() },
			wantState: entities.SessionError,
			wantErr:   true,
			wantMsg:   msgTestNotFound,
		},
		{
			name: "backend failure",
			setup: func(f *sessionFixture) uuid.UUID {
				f.bank.err = errors.New("connection refused")
				return f.test.ID
			},
			wantState: entities.SessionError,
			wantErr:   true,
			wantMsg:   msgTestLoadFailed,
		},
		{
			name: "no questions",
			setup: func(f *sessionFixture) uuid.UUID {
				empty := &entities.Test{ID: uuid.New(), Title: "Empty", TimeLimit: 5}
				f.bank.add(empty, nil)
				return empty.ID
			},
			wantState: entities.SessionEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(3, 10)
			s := NewSession(1, tt.setup(f), f.deps())

			err := s.Load(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got := s.State(); got != tt.wantState {
				t.Errorf("state = %s, want %s", got, tt.wantState)
			}
			if got := s.Snapshot().ErrorMessage; got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
			if _, err := s.Submit(context.Background()); !errors.Is(err, ErrSessionNotActive) {
				t.Errorf("submit err = %v, want ErrSessionNotActive", err)
			}
			if f.store.Len() != 0 {
				t.Errorf("timer started for a failed load")
			}
		})
	}

	t.Run("not found is wrapped", func(t *testing.T) {
		f := newSessionFixture(1, 1)
		err := NewSession(1, uuid.New(), f.deps()).Load(context.Background())
		if !errors.Is(err, repository.ErrTestNotFound) {
			t.Errorf("err = %v, want ErrTestNotFound", err)
		}
	})
}

func TestSession_SelectAnswerAndNavigation(t *testing.T) {
	f := newSessionFixture(3, 10)
	s := f.loaded(t)
	q := s.Snapshot().Questions

	if err := s.SelectAnswer(q[0].ID, 2); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := s.SelectAnswer(q[0].ID, 1); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if got := s.Snapshot().AnswerFor(q[0].ID); got != "1" {
		t.Errorf("answer = %q, want 1", got)
	}

	if err := s.SelectAnswer(uuid.New(), 0); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("unknown question err = %v", err)
	}
	if err := s.SelectAnswer(q[1].ID, 4); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("out of range option err = %v", err)
	}
	if err := s.SelectAnswer(q[1].ID, -1); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("negative option err = %v", err)
	}

	if s.Prev() {
		t.Error("prev from first question should be a no-op")
	}
	if !s.Next() || !s.Next() {
		t.Fatal("next should move forward")
	}
	if s.Next() {
		t.Error("next from last question should be a no-op")
	}
	if got := s.Snapshot().Current; got != 2 {
		t.Errorf("current = %d, want 2", got)
	}
	if s.GoTo(3) || s.GoTo(-1) {
		t.Error("out of range goto should be ignored")
	}
	if !s.GoTo(0) || s.Snapshot().Current != 0 {
		t.Error("goto 0 should move to the first question")
	}
}

func TestSession_SubmitRecordsOnce(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(4, 10)
	s := f.loaded(t)
	q := s.Snapshot().Questions

	_ = s.SelectAnswer(q[0].ID, 0)
	_ = s.SelectAnswer(q[1].ID, 0)
	_ = s.SelectAnswer(q[2].ID, 3)

	attempt, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if attempt.Score != 2 || attempt.TotalQuestions != 4 || attempt.Percentage != 50 {
		t.Errorf("attempt = %+v, want 2/4 50%%", attempt)
	}

	if _, err := s.Submit(ctx); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("second submit err = %v, want ErrSessionNotActive", err)
	}
	if got := len(f.recorder.recorded()); got != 1 {
		t.Errorf("recorded %d attempts, want 1", got)
	}
	if f.store.Len() != 0 {
		t.Error("deadline not cleared")
	}

	snap := s.Snapshot()
	if snap.State != entities.SessionCompleted || snap.Attempt == nil || snap.Attempt.ID != attempt.ID {
		t.Errorf("snapshot = %+v", snap)
	}
	if err := s.SelectAnswer(q[3].ID, 0); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("select after completion err = %v", err)
	}
}

func TestSession_ConcurrentSubmit(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(2, 10)
	f.recorder.block = make(chan struct{})
	f.recorder.entered = make(chan struct{}, 1)
	s := f.loaded(t)

	var (
		wg       sync.WaitGroup
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = s.Submit(ctx)
	}()

	<-f.recorder.entered

	if _, err := s.Submit(ctx); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("overlapping submit err = %v, want ErrSubmitInFlight", err)
	}
	if err := s.SelectAnswer(s.Snapshot().Questions[0].ID, 1); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("select during submit err = %v, want ErrSubmitInFlight", err)
	}
	if !s.Snapshot().Submitting {
		t.Error("snapshot should report submitting")
	}

	close(f.recorder.block)
	wg.Wait()

	if firstErr != nil {
		t.Fatalf("first submit: %v", firstErr)
	}
	if got := len(f.recorder.recorded()); got != 1 {
		t.Errorf("recorded %d attempts, want 1", got)
	}
}

func TestSession_SubmitFailureKeepsScore(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(2, 10)
	f.recorder.fail = 1
	s := f.loaded(t)

	if _, err := s.Submit(ctx); err == nil {
		t.Fatal("expected recorder failure")
	}
	snap := s.Snapshot()
	if snap.State != entities.SessionInProgress || snap.Submitting {
		t.Fatalf("after failure state = %s submitting = %v", snap.State, snap.Submitting)
	}
	if f.store.Len() != 1 {
		t.Error("deadline should survive a failed submission")
	}

	s.mu.Lock()
	cached := s.attempt
	s.mu.Unlock()
	if cached == nil {
		t.Fatal("score was not kept")
	}

	attempt, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if attempt.ID != cached.ID {
		t.Error("retry recomputed the attempt")
	}
	if got := len(f.recorder.recorded()); got != 1 {
		t.Errorf("recorded %d attempts, want 1", got)
	}
}

func TestSession_AnswersLockedAfterFailedSubmit(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(1, 10)
	f.recorder.fail = 1
	f.recorder.commitOnFail = true
	s := f.loaded(t)
	qID := s.Snapshot().Questions[0].ID

	_ = s.SelectAnswer(qID, 3)
	if _, err := s.Submit(ctx); err == nil {
		t.Fatal("expected recorder failure")
	}

	if err := s.SelectAnswer(qID, 0); !errors.Is(err, ErrAnswersLocked) {
		t.Fatalf("select after failure err = %v, want ErrAnswersLocked", err)
	}
	if got := s.Snapshot().AnswerFor(qID); got != "3" {
		t.Errorf("answer = %q, want 3", got)
	}

	attempt, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if attempt.Score != 0 {
		t.Errorf("score = %d, want 0", attempt.Score)
	}
	if got := len(f.recorder.recorded()); got != 1 {
		t.Errorf("stored %d attempts for one session, want 1", got)
	}
}

func TestSession_SelectAnswerAfterDeadline(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(2, 1)
	f.recorder.fail = 1
	s := f.loaded(t)
	qID := s.Snapshot().Questions[0].ID

	f.clock.Advance(59 * time.Second)
	if err := s.SelectAnswer(qID, 1); err != nil {
		t.Fatalf("select before deadline: %v", err)
	}

	f.clock.Advance(2 * time.Second)
	if submitted, err := s.Tick(ctx); !submitted || err == nil {
		t.Fatalf("tick = %v, %v; want failed auto-submit", submitted, err)
	}

	f.clock.Advance(10 * time.Minute)
	if err := s.SelectAnswer(qID, 2); !errors.Is(err, ErrTimeUp) && !errors.Is(err, ErrAnswersLocked) {
		t.Fatalf("select after deadline err = %v", err)
	}

	attempt, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("manual retry: %v", err)
	}
	if attempt.Score != 0 {
		t.Errorf("score = %d, want 0 (option 1 is wrong)", attempt.Score)
	}
}

func TestSession_SelectAnswerRejectedWhenTimeIsUp(t *testing.T) {
	f := newSessionFixture(1, 1)
	s := f.loaded(t)
	qID := s.Snapshot().Questions[0].ID

	f.clock.Advance(time.Minute)
	if err := s.SelectAnswer(qID, 0); !errors.Is(err, ErrTimeUp) {
		t.Errorf("err = %v, want ErrTimeUp", err)
	}
	if got := s.Snapshot().AnswerFor(qID); got != "" {
		t.Errorf("answer = %q, want unanswered", got)
	}
}

func TestSession_AutoSubmitOnce(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(3, 1)
	s := f.loaded(t)

	var fired int
	s.onAutoSubmit = func(*Session, error) { fired++ }

	f.clock.Advance(30 * time.Second)
	if submitted, err := s.Tick(ctx); submitted || err != nil {
		t.Fatalf("tick before deadline = %v, %v", submitted, err)
	}

	f.clock.Advance(31 * time.Second)
	submitted, err := s.Tick(ctx)
	if err != nil || !submitted {
		t.Fatalf("tick after deadline = %v, %v", submitted, err)
	}

	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Second)
		if submitted, _ := s.Tick(ctx); submitted {
			t.Error("auto-submit fired again")
		}
	}

	if fired != 1 {
		t.Errorf("callback fired %d times, want 1", fired)
	}
	if got := len(f.recorder.recorded()); got != 1 {
		t.Errorf("recorded %d attempts, want 1", got)
	}
	if s.State() != entities.SessionCompleted {
		t.Errorf("state = %s, want completed", s.State())
	}

	remaining, err := s.timer.Remaining(ctx, f.test.ID)
	if err != nil || remaining != 0 {
		t.Errorf("remaining after submit = %d, %v; want 0", remaining, err)
	}
	if f.store.Len() != 0 {
		t.Errorf("deadline keys left = %d, want 0", f.store.Len())
	}
}

func TestSession_AutoSubmitFailureDoesNotRetry(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(1, 1)
	f.recorder.fail = 1
	s := f.loaded(t)

	f.clock.Advance(2 * time.Minute)

	submitted, err := s.Tick(ctx)
	if !submitted || err == nil {
		t.Fatalf("tick = %v, %v; want attempted submission with error", submitted, err)
	}
	if submitted, _ := s.Tick(ctx); submitted {
		t.Error("auto-submit retried")
	}

	if _, err := s.Submit(ctx); err != nil {
		t.Fatalf("manual retry: %v", err)
	}
	if f.recorder.calls != 2 {
		t.Errorf("recorder called %d times, want 2", f.recorder.calls)
	}
}

func TestSession_ResumeKeepsClock(t *testing.T) {
	f := newSessionFixture(2, 10)
	first := f.loaded(t)
	first.Close()

	f.clock.Advance(4 * time.Minute)

	second := f.loaded(t)
	if got := second.Snapshot().Remaining; got != 6*60 {
		t.Errorf("remaining = %d, want %d", got, 6*60)
	}
}

func TestSession_RunStopsOnClose(t *testing.T) {
	f := newSessionFixture(1, 10)
	deps := f.deps()
	deps.TickInterval = time.Millisecond

	s := NewSession(1, f.test.ID, deps)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	s.Close()
	s.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop")
	}
}
