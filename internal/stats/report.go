// Package stats builds and renders practice reports from the attempt log.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/tuiorder/internal/model"
)

// SummaryLister reads per-problem attempt aggregates for one problem set.
type SummaryLister interface {
	ListAttemptSummaries(ctx context.Context, setHash string) ([]model.AttemptSummary, error)
}

// ProblemRow joins a problem with its attempt history.
type ProblemRow struct {
	Index      int
	Sentence   string
	Note       string
	Tokens     int
	Attempts   int
	BestLocked int
	Solved     bool
	LastAt     time.Time
}

// LockRatio returns the best locked share of the problem's tokens.
func (r ProblemRow) LockRatio() float64 {
	if r.Tokens == 0 {
		return 0
	}
	return float64(r.BestLocked) / float64(r.Tokens)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Hash string
	Rows []ProblemRow
}

// BuildReport loads attempt aggregates and aligns them with problems.
// Attempts for indices outside the set are ignored.
func BuildReport(ctx context.Context, lister SummaryLister, problems model.ProblemSet, hash string) (Report, error) {
	summaries, err := lister.ListAttemptSummaries(ctx, hash)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load attempts: %w", err)
	}
	rows := make([]ProblemRow, len(problems))
	for i, p := range problems {
		rows[i] = ProblemRow{
			Index:    i,
			Sentence: p.Sentence(),
			Note:     p.Note,
			Tokens:   len(p.Tokens),
		}
	}
	for _, sum := range summaries {
		if sum.Problem < 0 || sum.Problem >= len(rows) {
			continue
		}
		row := &rows[sum.Problem]
		row.Attempts = sum.Attempts
		row.BestLocked = sum.BestLocked
		row.Solved = sum.Solved
		row.LastAt = sum.LastAt
	}
	return Report{Hash: hash, Rows: rows}, nil
}

// Attempted returns how many problems have at least one attempt.
func (r Report) Attempted() int {
	count := 0
	for _, row := range r.Rows {
		if row.Attempts > 0 {
			count++
		}
	}
	return count
}

// Solved returns how many problems were ever solved.
func (r Report) Solved() int {
	count := 0
	for _, row := range r.Rows {
		if row.Solved {
			count++
		}
	}
	return count
}

// TotalAttempts sums attempts across problems.
func (r Report) TotalAttempts() int {
	total := 0
	for _, row := range r.Rows {
		total += row.Attempts
	}
	return total
}
