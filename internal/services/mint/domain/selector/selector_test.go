package selector

import (
	"errors"
	"testing"
)

func TestChooseEmptyCandidates(t *testing.T) {
	s := New([]byte("seed"))
	if _, err := s.Choose(nil); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("err = %v, want %v", err, ErrNoCandidates)
	}
}

func TestChooseIsDeterministicAtFixedNonce(t *testing.T) {
	candidates := []uint64{10, 20, 30, 40}
	a := New([]byte("seed"))
	b := New([]byte("seed"))

	first, err := a.Choose(candidates)
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	second, err := b.Choose(candidates)
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if first != second {
		t.Fatalf("same seed and nonce picked %d and %d", first, second)
	}

	again, _ := a.Choose(candidates)
	if again != first {
		t.Fatalf("repeated draw at same nonce = %d, want %d", again, first)
	}
}

func TestChooseReturnsMemberOfCandidates(t *testing.T) {
	candidates := []uint64{7, 13, 42}
	s := New([]byte("seed"))
	for i := 0; i < 50; i++ {
		pick, err := s.Choose(candidates)
		if err != nil {
			t.Fatalf("choose: %v", err)
		}
		found := false
		for _, c := range candidates {
			if c == pick {
				found = true
			}
		}
		if !found {
			t.Fatalf("pick %d not in candidates", pick)
		}
		s.AdvanceNonce()
	}
	if s.Nonce() != 50 {
		t.Fatalf("nonce = %d, want 50", s.Nonce())
	}
}

func TestAdvanceNonceVariesDraws(t *testing.T) {
	candidates := []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	s := New([]byte("seed"))
	seen := make(map[uint64]bool)
	for i := 0; i < 64; i++ {
		pick, err := s.Choose(candidates)
		if err != nil {
			t.Fatalf("choose: %v", err)
		}
		seen[pick] = true
		s.AdvanceNonce()
	}
	if len(seen) < 2 {
		t.Fatalf("64 draws hit %d distinct candidates, want spread", len(seen))
	}
}
