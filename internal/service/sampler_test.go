package service

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

func TestSampler_Select(t *testing.T) {
	testID := uuid.New()
	var bank []entities.Question
	bank = append(bank, makeQuestions(testID, "A", 6)...)
	bank = append(bank, makeQuestions(testID, "B", 6)...)
	bank = append(bank, makeQuestions(testID, "C", 6)...)

	tests := []struct {
		name    string
		target  *int
		wantLen int
		wantPer map[string]int
	}{
		{name: "nil target takes all", target: nil, wantLen: 18, wantPer: map[string]int{"A": 6, "B": 6, "C": 6}},
		{name: "target above bank takes all", target: intPtr(40), wantLen: 18},
		{name: "target equal to bank takes all", target: intPtr(18), wantLen: 18},
		{name: "zero target takes all", target: intPtr(0), wantLen: 18},
		{name: "even split", target: intPtr(9), wantLen: 9, wantPer: map[string]int{"A": 3, "B": 3, "C": 3}},
		{name: "remainder goes to first categories", target: intPtr(10), wantLen: 10, wantPer: map[string]int{"A": 4, "B": 3, "C": 3}},
		{name: "target below category count", target: intPtr(2), wantLen: 2, wantPer: map[string]int{"A": 1, "B": 1, "C": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSampler(rand.NewSource(42))
			got := s.Select(bank, tt.target)

			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}

			seen := make(map[uuid.UUID]bool)
			per := make(map[string]int)
			for _, q := range got {
				if seen[q.ID] {
					t.Fatalf("question %s selected twice", q.ID)
				}
				seen[q.ID] = true
				per[q.Category]++
			}

			for c, want := range tt.wantPer {
				if per[c] != want {
					t.Errorf("category %s: got %d, want %d", c, per[c], want)
				}
			}
		})
	}
}

func TestSampler_ShortCategoryIsNotRedistributed(t *testing.T) {
	testID := uuid.New()
	var bank []entities.Question
	bank = append(bank, makeQuestions(testID, "A", 1)...)
	bank = append(bank, makeQuestions(testID, "B", 10)...)

	got := NewSampler(rand.NewSource(1)).Select(bank, intPtr(6))

	if len(got) != 4 {
		t.Fatalf("len = %d, want 4 (1 from A, 3 from B)", len(got))
	}
}

func TestSampler_DoesNotModifyInput(t *testing.T) {
	bank := makeQuestions(uuid.New(), "A", 5)
	first := bank[0].ID

	NewSampler(rand.NewSource(3)).Select(bank, nil)

	if bank[0].ID != first {
		t.Error("input slice was reordered")
	}
}

func TestAllocateQuotas(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		target     int
		want       map[string]int
	}{
		{"no categories", nil, 5, map[string]int{}},
		{"single", []string{"A"}, 5, map[string]int{"A": 5}},
		{"remainder", []string{"A", "B", "C"}, 11, map[string]int{"A": 4, "B": 4, "C": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := allocateQuotas(tt.categories, tt.target)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for c, n := range tt.want {
				if got[c] != n {
					t.Errorf("%s: got %d, want %d", c, got[c], n)
				}
			}
		})
	}
}
