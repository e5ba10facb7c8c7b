package session

import (
	"fmt"

	"github.com/verte-zerg/tuiorder/internal/evaluate"
	"github.com/verte-zerg/tuiorder/internal/model"
	"github.com/verte-zerg/tuiorder/internal/shuffle"
)

// Action is a request dispatched to the reducer.
type Action interface {
	action()
}

// Initialize builds a fresh session from Seed.
type Initialize struct{ Seed string }

// Reorder replaces the current problem's fragment order.
type Reorder struct{ Fragments []model.Fragment }

// Solve evaluates the current problem.
type Solve struct{}

// Skip rotates the current problem to the back of the queue.
type Skip struct{}

// Next retires the current problem and activates the next queued one.
type Next struct{}

// Restart discards the session and re-shuffles with Seed.
type Restart struct{ Seed string }

func (Initialize) action() {}
func (Reorder) action()    {}
func (Solve) action()      {}
func (Skip) action()       {}
func (Next) action()       {}
func (Restart) action()    {}

// Machine reduces actions against one problem set.
type Machine struct {
	problems model.ProblemSet
}

// NewMachine returns a reducer bound to problems.
func NewMachine(problems model.ProblemSet) Machine {
	return Machine{problems: problems}
}

// Problems returns the problem set the machine operates on.
func (m Machine) Problems() model.ProblemSet {
	return m.problems
}

// NewState builds a fresh session: problems in order, each scrambled with a
// seed derived from the session seed and the problem index.
func NewState(problems model.ProblemSet, seed string) State {
	if len(problems) == 0 {
		return State{Current: None, Queue: []int{}, Progress: []model.Progress{}}
	}
	queue := make([]int, 0, len(problems)-1)
	for i := 1; i < len(problems); i++ {
		queue = append(queue, i)
	}
	progress := make([]model.Progress, len(problems))
	for i, p := range problems {
		singles := model.SingleFragments(len(p.Tokens))
		progress[i] = model.Progress{Fragments: shuffle.Shuffle(singles, shuffle.ProblemSeed(seed, i))}
	}
	return State{Current: 0, Queue: queue, Progress: progress}
}

// Reduce applies a to s and returns the next state. Transitions that do not
// apply in the current state return s unchanged. An error is returned only
// when a fragment list breaks the coverage contract; the returned state is
// then s.
func (m Machine) Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case Initialize:
		return NewState(m.problems, a.Seed), nil
	case Restart:
		return NewState(m.problems, a.Seed), nil
	case Reorder:
		return m.reorder(s, a.Fragments)
	case Solve:
		return m.solve(s)
	case Skip:
		return skip(s), nil
	case Next:
		return next(s), nil
	default:
		return s, fmt.Errorf("unknown action %T", a)
	}
}

func (m Machine) reorder(s State, fragments []model.Fragment) (State, error) {
	if !s.HasCurrent() {
		return s, nil
	}
	if err := evaluate.Validate(fragments, m.tokenCount(s.Current)); err != nil {
		return s, err
	}
	out := s.clone()
	out.Progress[s.Current] = model.Progress{
		Fragments: model.CloneFragments(fragments),
		Solved:    s.Progress[s.Current].Solved,
	}
	return out, nil
}

func (m Machine) solve(s State) (State, error) {
	if !s.HasCurrent() {
		return s, nil
	}
	cur := s.Progress[s.Current]
	res, err := evaluate.Evaluate(cur.Fragments, m.tokenCount(s.Current))
	if err != nil {
		return s, fmt.Errorf("failed to evaluate problem %d: %w", s.Current, err)
	}
	out := s.clone()
	solved := cur.Solved || res.Solved
	out.Progress[s.Current] = model.Progress{Fragments: res.Fragments, Solved: solved}
	if solved {
		out.Queue = removeIndex(out.Queue, s.Current)
	}
	return out, nil
}

func skip(s State) State {
	if !s.HasCurrent() || s.Progress[s.Current].Solved || len(s.Queue) == 0 {
		return s
	}
	out := s.clone()
	out.Current = s.Queue[0]
	out.Queue = append(append([]int(nil), s.Queue[1:]...), s.Current)
	return out
}

func next(s State) State {
	if len(s.Queue) == 0 {
		return s
	}
	out := s.clone()
	out.Current = s.Queue[0]
	out.Queue = append([]int(nil), s.Queue[1:]...)
	return out
}

func (m Machine) tokenCount(idx int) int {
	if idx < 0 || idx >= len(m.problems) {
		return 0
	}
	return len(m.problems[idx].Tokens)
}

func removeIndex(queue []int, idx int) []int {
	out := make([]int, 0, len(queue))
	for _, q := range queue {
		if q != idx {
			out = append(out, q)
		}
	}
	return out
}
