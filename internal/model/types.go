// Package model defines shared data structures.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Config defines practice settings.
type Config struct {
	Source    string
	Namespace string
	CacheDir  string
}

// Problem is one sentence exercise: the correct token order plus a note.
type Problem struct {
	Tokens []string `json:"tokens" validate:"min=1,dive,required"`
	Note   string   `json:"note"`
}

// Sentence returns the tokens joined in solution order.
func (p Problem) Sentence() string {
	return strings.Join(p.Tokens, " ")
}

// ProblemSet is an ordered list of problems.
type ProblemSet []Problem

const fragmentIDPrefix = "fragment-"

// Fragment is a run of original token positions moved as one unit.
type Fragment struct {
	ID      string `json:"id"`
	Indices []int  `json:"indices"`
	Locked  bool   `json:"locked"`
}

// NewFragment builds a fragment whose id is derived from its indices.
func NewFragment(indices []int, locked bool) Fragment {
	own := append([]int(nil), indices...)
	return Fragment{ID: FragmentID(own), Indices: own, Locked: locked}
}

// FragmentID derives the identity of a fragment from its sorted indices.
func FragmentID(indices []int) string {
	var b strings.Builder
	b.WriteString(fragmentIDPrefix)
	for i, idx := range indices {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// SingleFragments returns one unlocked fragment per token position.
func SingleFragments(n int) []Fragment {
	out := make([]Fragment, n)
	for i := 0; i < n; i++ {
		out[i] = NewFragment([]int{i}, false)
	}
	return out
}

// Text renders the fragment against the solution token list.
func (f Fragment) Text(solution []string) string {
	parts := make([]string, 0, len(f.Indices))
	for _, idx := range f.Indices {
		if idx < 0 || idx >= len(solution) {
			continue
		}
		parts = append(parts, solution[idx])
	}
	return strings.Join(parts, " ")
}

// Len returns the number of tokens covered by the fragment.
func (f Fragment) Len() int {
	return len(f.Indices)
}

// Progress captures one problem's fragment order and solved flag.
type Progress struct {
	Fragments []Fragment `json:"fragments"`
	Solved    bool       `json:"solved"`
}

// Clone returns a deep copy of the progress.
func (p Progress) Clone() Progress {
	return Progress{Fragments: CloneFragments(p.Fragments), Solved: p.Solved}
}

// CloneFragments deep-copies a fragment list.
func CloneFragments(in []Fragment) []Fragment {
	if in == nil {
		return nil
	}
	out := make([]Fragment, len(in))
	for i, f := range in {
		out[i] = Fragment{ID: f.ID, Indices: append([]int(nil), f.Indices...), Locked: f.Locked}
	}
	return out
}

// Attempt records one evaluation of a problem.
type Attempt struct {
	SetHash     string
	Problem     int
	LockedCount int
	Total       int
	Solved      bool
	At          time.Time
}

// AttemptSummary aggregates attempts for a single problem.
type AttemptSummary struct {
	Problem    int
	Attempts   int
	BestLocked int
	Solved     bool
	LastAt     time.Time
}
