// Package evaluate decides which fragments sit in their final position and
// merges correct neighbors into larger locked fragments.
//
// Correctness is judged per fragment, not per token: a fragment locks only when
// every position it occupies holds the token that belongs there.
package evaluate

import "github.com/verte-zerg/tuiorder/internal/model"

// Result is the outcome of one evaluation.
type Result struct {
	Fragments   []model.Fragment
	LockedCount int
	Solved      bool
}

// Validate checks that fragments partition 0..n-1 exactly.
func Validate(fragments []model.Fragment, n int) error {
	if n < 0 {
		return violationf("negative solution length %d", n)
	}
	total := 0
	for _, f := range fragments {
		total += f.Len()
	}
	if total != n {
		return violationf("fragments cover %d positions, solution has %d", total, n)
	}
	seen := make([]bool, n)
	for _, f := range fragments {
		if f.Len() == 0 {
			return violationf("empty fragment %q", f.ID)
		}
		for i, idx := range f.Indices {
			if idx < 0 || idx >= n {
				return violationf("index %d out of range [0,%d)", idx, n)
			}
			if seen[idx] {
				return violationf("duplicate index %d", idx)
			}
			seen[idx] = true
			if i > 0 && f.Indices[i-1] >= idx {
				return violationf("fragment %q indices not ascending", f.ID)
			}
		}
	}
	return nil
}

// Evaluate locks fragments whose every position is correct and merges locked
// fragments that are contiguous in the solution. It never coerces bad input.
func Evaluate(fragments []model.Fragment, solutionLength int) (Result, error) {
	if err := Validate(fragments, solutionLength); err != nil {
		return Result{}, err
	}

	merged := make([]model.Fragment, 0, len(fragments))
	pos := 0
	for _, f := range fragments {
		correct := true
		for _, idx := range f.Indices {
			if idx != pos {
				correct = false
			}
			pos++
		}

		if correct && len(merged) > 0 {
			prev := merged[len(merged)-1]
			if prev.Locked && prev.Indices[len(prev.Indices)-1]+1 == f.Indices[0] {
				indices := make([]int, 0, prev.Len()+f.Len())
				indices = append(indices, prev.Indices...)
				indices = append(indices, f.Indices...)
				merged[len(merged)-1] = model.NewFragment(indices, true)
				continue
			}
		}
		merged = append(merged, model.NewFragment(f.Indices, correct))
	}

	locked := 0
	for _, f := range merged {
		if f.Locked {
			locked += f.Len()
		}
	}
	return Result{
		Fragments:   merged,
		LockedCount: locked,
		Solved:      locked == solutionLength,
	}, nil
}
