package service

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

// Sampler draws a category-balanced random subset of questions for a session.
// It is safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a Sampler. A nil src seeds from the current time.
func NewSampler(src rand.Source) *Sampler {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Sampler{rng: rand.New(src)}
}

// Select returns target questions spread evenly over categories, or every
// question when target is nil, not positive or not below len(all).
//
// Categories are visited in name order; the first T mod C of them take one extra
// question. A category short of its share gives all it has and the shortfall is
// not moved to other categories. The result is shuffled.
func (s *Sampler) Select(all []entities.Question, target *int) []entities.Question {
	s.mu.Lock()
	defer s.mu.Unlock()

	if target == nil || *target <= 0 || *target >= len(all) {
		return s.shuffled(all)
	}

	byCategory := make(map[string][]entities.Question)
	for _, q := range all {
		byCategory[q.Category] = append(byCategory[q.Category], q)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	quotas := allocateQuotas(categories, *target)

	out := make([]entities.Question, 0, *target)
	for _, c := range categories {
		out = append(out, s.sample(byCategory[c], quotas[c])...)
	}

	return s.shuffled(out)
}

// allocateQuotas splits target over categories: each gets target/len(categories),
// and the first target%len(categories) categories in the given order get one more.
func allocateQuotas(categories []string, target int) map[string]int {
	quotas := make(map[string]int, len(categories))
	if len(categories) == 0 || target <= 0 {
		return quotas
	}

	base := target / len(categories)
	remainder := target - base*len(categories)

	for _, c := range categories {
		n := base
		if remainder > 0 {
			n++
			remainder--
		}
		quotas[c] = n
	}

	return quotas
}

// sample draws n questions without replacement, or all of them if there are fewer.
func (s *Sampler) sample(in []entities.Question, n int) []entities.Question {
	if n <= 0 {
		return nil
	}
	if len(in) <= n {
		return append([]entities.Question(nil), in...)
	}

	out := make([]entities.Question, 0, n)
	for _, i := range s.rng.Perm(len(in))[:n] {
		out = append(out, in[i])
	}
	return out
}

// shuffled returns a shuffled copy of the input slice.
func (s *Sampler) shuffled(in []entities.Question) []entities.Question {
	out := append([]entities.Question(nil), in...)
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
