package shuffle

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestShuffleDeterministic(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, seed := range []string{"", "x", "session-1", "Eu chamo-me Paulo"} {
		first := Shuffle(items, StringSeed(seed))
		second := Shuffle(items, StringSeed(seed))
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("seed %q produced different orders (-first +second):\n%s", seed, diff)
		}
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	items := []int{5, 3, 3, 9, 1, 0, 12, 7}
	for seed := int64(0); seed < 50; seed++ {
		got := Shuffle(items, NumberSeed(seed))
		if len(got) != len(items) {
			t.Fatalf("seed %d: expected %d items, got %d", seed, len(items), len(got))
		}
		want := append([]int(nil), items...)
		sorted := append([]int(nil), got...)
		sort.Ints(want)
		sort.Ints(sorted)
		if diff := cmp.Diff(want, sorted); diff != "" {
			t.Fatalf("seed %d: not a permutation (-want +got):\n%s", seed, diff)
		}
	}
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	_ = Shuffle(items, StringSeed("seed"))
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5}, items); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
}

func TestShuffleShortInputs(t *testing.T) {
	if got := Shuffle([]int{}, 1); len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
	one := []string{"only"}
	got := Shuffle(one, 1)
	if len(got) != 1 || got[0] != "only" {
		t.Fatalf("expected unchanged copy, got %v", got)
	}
	got[0] = "changed"
	if one[0] != "only" {
		t.Fatalf("expected a copy for single-element input")
	}
}

func TestZeroSeedUsesFallback(t *testing.T) {
	if NumberSeed(0) != zeroStateFallback {
		t.Fatalf("expected fallback for zero numeric seed")
	}
	if NumberSeed(1<<32) != zeroStateFallback {
		t.Fatalf("expected fallback when truncation yields zero")
	}
	g := New(0)
	if g.state != zeroStateFallback {
		t.Fatalf("expected generator to replace zero state")
	}
}

func TestNumberSeedTruncates(t *testing.T) {
	if NumberSeed(1<<32+7) != 7 {
		t.Fatalf("expected 32-bit truncation")
	}
}

func TestFloat64Range(t *testing.T) {
	g := New(StringSeed("range"))
	for i := 0; i < 10000; i++ {
		v := g.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("value out of range: %v", v)
		}
	}
}

func TestProblemSeedsDiffer(t *testing.T) {
	if ProblemSeed("s", 0) == ProblemSeed("s", 1) {
		t.Fatalf("expected distinct per-problem seeds")
	}
	if ProblemSeed("s", 3) != ProblemSeed("s", 3) {
		t.Fatalf("expected reproducible per-problem seeds")
	}
}

func TestNewSeedIsFresh(t *testing.T) {
	if NewSeed() == NewSeed() {
		t.Fatalf("expected distinct session seeds")
	}
}
