package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/testroom/internal/domain/entities"
	"github.com/aliskhannn/testroom/internal/infra/postgres/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeBank struct {
	mu        sync.Mutex
	tests     map[uuid.UUID]*entities.Test
	questions map[uuid.UUID][]entities.Question
	err       error
}

func newFakeBank() *fakeBank {
	return &fakeBank{
		tests:     make(map[uuid.UUID]*entities.Test),
		questions: make(map[uuid.UUID][]entities.Question),
	}
}

func (b *fakeBank) add(test *entities.Test, questions []entities.Question) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tests[test.ID] = test
	b.questions[test.ID] = questions
}

func (b *fakeBank) GetByID(_ context.Context, id uuid.UUID) (*entities.Test, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	t, ok := b.tests[id]
	if !ok {
		return nil, repository.ErrTestNotFound
	}
	c := *t
	return &c, nil
}

func (b *fakeBank) GetQuestions(_ context.Context, testID uuid.UUID) ([]entities.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return append([]entities.Question(nil), b.questions[testID]...), nil
}

func (b *fakeBank) Create(_ context.Context, test *entities.Test) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	c := *test
	b.tests[test.ID] = &c
	return nil
}

func (b *fakeBank) List(_ context.Context) ([]entities.TestSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.TestSummary, 0, len(b.tests))
	for id, t := range b.tests {
		out = append(out, entities.TestSummary{Test: *t, TotalQuestions: len(b.questions[id])})
	}
	return out, nil
}

func (b *fakeBank) Update(_ context.Context, id uuid.UUID, upd entities.TestUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tests[id]
	if !ok {
		return repository.ErrTestNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.TimeLimit != nil {
		t.TimeLimit = *upd.TimeLimit
	}
	switch {
	case upd.ClearQuestionsCount:
		t.QuestionsCount = nil
	case upd.QuestionsCount != nil:
		n := *upd.QuestionsCount
		t.QuestionsCount = &n
	}
	return nil
}

func (b *fakeBank) Delete(_ context.Context, id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tests[id]; !ok {
		return repository.ErrTestNotFound
	}
	delete(b.tests, id)
	return nil
}

func (b *fakeBank) CreateQuestions(_ context.Context, questions []entities.Question) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	for _, q := range questions {
		b.questions[q.TestID] = append(b.questions[q.TestID], q)
	}
	return nil
}

func (b *fakeBank) CountQuestions(_ context.Context, testID uuid.UUID) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.questions[testID]), nil
}

func (b *fakeBank) DeleteQuestions(_ context.Context, testID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.questions, testID)
	return nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	attempts []entities.Attempt
	fail     int // number of calls to fail before succeeding
	// commitOnFail stores the attempt even on failing calls, like a commit
	// whose reply was lost.
	commitOnFail bool
	calls        int
	block    chan struct{}
	entered  chan struct{}
}

func (r *fakeRecorder) Create(_ context.Context, a *entities.Attempt) error {
	r.mu.Lock()
	r.calls++
	block, entered := r.block, r.entered
	r.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail > 0 {
		r.fail--
		if r.commitOnFail {
			r.store(*a)
		}
		return fmt.Errorf("network down")
	}
	r.store(*a)
	return nil
}

// store keeps one row per attempt ID.
func (r *fakeRecorder) store(a entities.Attempt) {
	for _, existing := range r.attempts {
		if existing.ID == a.ID {
			return
		}
	}
	r.attempts = append(r.attempts, a)
}

func (r *fakeRecorder) ListByTest(_ context.Context, testID uuid.UUID) ([]entities.AttemptWithUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.AttemptWithUser
	for _, a := range r.attempts {
		if a.TestID == testID {
			out = append(out, entities.AttemptWithUser{Attempt: a})
		}
	}
	return out, nil
}

func (r *fakeRecorder) ListByUser(_ context.Context, userID int64, limit int) ([]entities.AttemptWithTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.AttemptWithTest
	for _, a := range r.attempts {
		if a.UserID == userID && len(out) < limit {
			out = append(out, entities.AttemptWithTest{Attempt: a})
		}
	}
	return out, nil
}

func (r *fakeRecorder) DeleteByTest(_ context.Context, testID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.attempts[:0]
	for _, a := range r.attempts {
		if a.TestID != testID {
			kept = append(kept, a)
		}
	}
	r.attempts = kept
	return nil
}

func (r *fakeRecorder) recorded() []entities.Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.Attempt(nil), r.attempts...)
}

type fakeTransactor struct{ calls int }

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type fakeNotifier struct {
	mu        sync.Mutex
	submitted []entities.SessionSnapshot
	failed    []error
	done      chan struct{}
}

func (n *fakeNotifier) NotifyAutoSubmitted(_ context.Context, snap entities.SessionSnapshot) {
	n.mu.Lock()
	n.submitted = append(n.submitted, snap)
	n.mu.Unlock()
	if n.done != nil {
		n.done <- struct{}{}
	}
}

func (n *fakeNotifier) NotifySubmitFailed(_ context.Context, _ entities.SessionSnapshot, err error) {
	n.mu.Lock()
	n.failed = append(n.failed, err)
	n.mu.Unlock()
	if n.done != nil {
		n.done <- struct{}{}
	}
}

func makeQuestions(testID uuid.UUID, category string, n int) []entities.Question {
	out := make([]entities.Question, n)
	for i := range out {
		out[i] = entities.Question{
			ID:            uuid.New(),
			TestID:        testID,
			Category:      category,
			Text:          fmt.Sprintf("%s question %d", category, i+1),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: "Option 1",
		}
	}
	return out
}

func intPtr(n int) *int { return &n }
