package session

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/verte-zerg/tuiorder/internal/evaluate"
	"github.com/verte-zerg/tuiorder/internal/model"
)

func testProblems() model.ProblemSet {
	return model.ProblemSet{
		{Tokens: []string{"Eu", "chamo-me", "Paulo"}, Note: "Grammar: reflexive pronoun after the verb."},
		{Tokens: []string{"Ela", "gosta", "de", "café"}, Note: "gostar takes de."},
		{Tokens: []string{"Nós", "vamos"}, Note: "ir in the first person plural."},
	}
}

func solvedOrder(n int) []model.Fragment {
	return model.SingleFragments(n)
}

func mustReduce(t *testing.T, m Machine, s State, a Action) State {
	t.Helper()
	out, err := m.Reduce(s, a)
	if err != nil {
		t.Fatalf("Reduce(%T) failed: %v", a, err)
	}
	return out
}

func TestNewStateLayout(t *testing.T) {
	problems := testProblems()
	s := NewState(problems, "seed")
	if s.Current != 0 {
		t.Fatalf("expected current 0, got %d", s.Current)
	}
	if diff := cmp.Diff([]int{1, 2}, s.Queue); diff != "" {
		t.Fatalf("unexpected queue (-want +got):\n%s", diff)
	}
	if len(s.Progress) != len(problems) {
		t.Fatalf("expected %d progress entries, got %d", len(problems), len(s.Progress))
	}
	for i, p := range s.Progress {
		if p.Solved {
			t.Fatalf("problem %d unexpectedly solved", i)
		}
		if err := evaluate.Validate(p.Fragments, len(problems[i].Tokens)); err != nil {
			t.Fatalf("problem %d: %v", i, err)
		}
		for _, f := range p.Fragments {
			if f.Len() != 1 || f.Locked {
				t.Fatalf("problem %d: expected unlocked single-token fragments, got %+v", i, f)
			}
		}
	}
	if err := Validate(problems, s); err != nil {
		t.Fatalf("fresh state invalid: %v", err)
	}
}

func TestNewStateReproducible(t *testing.T) {
	problems := testProblems()
	if diff := cmp.Diff(NewState(problems, "abc"), NewState(problems, "abc")); diff != "" {
		t.Fatalf("same seed produced different states (-a +b):\n%s", diff)
	}
}

func TestNewStateEmpty(t *testing.T) {
	s := NewState(nil, "seed")
	if s.HasCurrent() || len(s.Queue) != 0 || len(s.Progress) != 0 {
		t.Fatalf("unexpected empty state: %+v", s)
	}
	m := NewMachine(nil)
	for _, a := range []Action{Solve{}, Skip{}, Next{}, Reorder{}} {
		out := mustReduce(t, m, s, a)
		if diff := cmp.Diff(s, out); diff != "" {
			t.Fatalf("%T changed empty state:\n%s", a, diff)
		}
	}
}

func TestSkipRotatesQueue(t *testing.T) {
	m := NewMachine(testProblems())
	s := NewState(m.Problems(), "seed")
	s = mustReduce(t, m, s, Skip{})
	if s.Current != 1 {
		t.Fatalf("expected current 1, got %d", s.Current)
	}
	if diff := cmp.Diff([]int{2, 0}, s.Queue); diff != "" {
		t.Fatalf("unexpected queue (-want +got):\n%s", diff)
	}
}

func TestSkipNoOps(t *testing.T) {
	m := NewMachine(testProblems())
	base := NewState(m.Problems(), "seed")

	emptyQueue := base.clone()
	emptyQueue.Queue = []int{}
	if out := mustReduce(t, m, emptyQueue, Skip{}); out.Current != 0 {
		t.Fatalf("skip with empty queue moved current to %d", out.Current)
	}

	solved := base.clone()
	solved.Progress[0].Solved = true
	if out := mustReduce(t, m, solved, Skip{}); out.Current != 0 {
		t.Fatalf("skip on solved problem moved current to %d", out.Current)
	}
}

func TestSolveCorrectOrderRetiresProblem(t *testing.T) {
	m := NewMachine(testProblems())
	s := NewState(m.Problems(), "seed")
	s = mustReduce(t, m, s, Reorder{Fragments: solvedOrder(3)})
	s = mustReduce(t, m, s, Solve{})

	p, ok := s.CurrentProgress()
	if !ok || !p.Solved {
		t.Fatalf("expected current problem solved, got %+v", p)
	}
	if len(p.Fragments) != 1 || !p.Fragments[0].Locked {
		t.Fatalf("expected one locked fragment, got %+v", p.Fragments)
	}
	if diff := cmp.Diff([]int{1, 2}, s.Queue); diff != "" {
		t.Fatalf("unexpected queue (-want +got):\n%s", diff)
	}

	s = mustReduce(t, m, s, Next{})
	if s.Current != 1 {
		t.Fatalf("expected current 1 after next, got %d", s.Current)
	}
	if diff := cmp.Diff([]int{2}, s.Queue); diff != "" {
		t.Fatalf("unexpected queue after next (-want +got):\n%s", diff)
	}
	if !s.Progress[0].Solved {
		t.Fatalf("expected retired problem to stay solved")
	}
}

func TestSolvedFlagIsSticky(t *testing.T) {
	m := NewMachine(testProblems())
	s := NewState(m.Problems(), "seed")
	s = mustReduce(t, m, s, Reorder{Fragments: solvedOrder(3)})
	s = mustReduce(t, m, s, Solve{})

	s = mustReduce(t, m, s, Reorder{Fragments: []model.Fragment{
		model.NewFragment([]int{2}, false),
		model.NewFragment([]int{0}, false),
		model.NewFragment([]int{1}, false),
	}})
	if p, _ := s.CurrentProgress(); !p.Solved {
		t.Fatalf("reorder cleared solved flag")
	}
	s = mustReduce(t, m, s, Solve{})
	if p, _ := s.CurrentProgress(); !p.Solved {
		t.Fatalf("solve cleared solved flag")
	}
}

func TestNextOnEmptyQueueIsNoOp(t *testing.T) {
	m := NewMachine(model.ProblemSet{{Tokens: []string{"a", "b"}}})
	s := NewState(m.Problems(), "seed")
	out := mustReduce(t, m, s, Next{})
	if diff := cmp.Diff(s, out); diff != "" {
		t.Fatalf("next changed state:\n%s", diff)
	}
}

func TestReorderRejectsBrokenCoverage(t *testing.T) {
	m := NewMachine(testProblems())
	s := NewState(m.Problems(), "seed")
	bad := []model.Fragment{model.NewFragment([]int{0}, false), model.NewFragment([]int{0}, false)}
	out, err := m.Reduce(s, Reorder{Fragments: bad})
	if !errors.Is(err, evaluate.ErrContractViolation) {
		t.Fatalf("expected contract violation, got %v", err)
	}
	if diff := cmp.Diff(s, out); diff != "" {
		t.Fatalf("state changed on rejected reorder:\n%s", diff)
	}
}

func TestReorderDoesNotAliasInput(t *testing.T) {
	m := NewMachine(testProblems())
	s := NewState(m.Problems(), "seed")
	order := solvedOrder(3)
	s = mustReduce(t, m, s, Reorder{Fragments: order})
	order[0].Indices[0] = 2
	if p, _ := s.CurrentProgress(); p.Fragments[0].Indices[0] != 0 {
		t.Fatalf("state aliases caller fragments")
	}
}

func TestTransitionsDoNotMutatePreviousState(t *testing.T) {
	m := NewMachine(testProblems())
	before := NewState(m.Problems(), "seed")
	snapshot := before.clone()
	after := mustReduce(t, m, before, Reorder{Fragments: solvedOrder(3)})
	after = mustReduce(t, m, after, Solve{})
	_ = mustReduce(t, m, after, Skip{})
	if diff := cmp.Diff(snapshot, before); diff != "" {
		t.Fatalf("previous state mutated:\n%s", diff)
	}
}

func TestRestartReshuffles(t *testing.T) {
	m := NewMachine(testProblems())
	s := NewState(m.Problems(), "one")
	s = mustReduce(t, m, s, Reorder{Fragments: solvedOrder(3)})
	s = mustReduce(t, m, s, Solve{})
	s = mustReduce(t, m, s, Restart{Seed: "two"})
	if diff := cmp.Diff(NewState(m.Problems(), "two"), s); diff != "" {
		t.Fatalf("restart did not produce a fresh state (-want +got):\n%s", diff)
	}
}

func TestWorkedExample(t *testing.T) {
	problems := model.ProblemSet{{Tokens: []string{"Eu", "chamo-me", "Paulo"}, Note: "Grammar: the pronoun follows the verb."}}
	m := NewMachine(problems)
	s := State{
		Current: 0,
		Queue:   []int{},
		Progress: []model.Progress{{Fragments: []model.Fragment{
			model.NewFragment([]int{1}, false),
			model.NewFragment([]int{2}, false),
			model.NewFragment([]int{0}, false),
		}}},
	}

	s = mustReduce(t, m, s, Solve{})
	p, _ := s.CurrentProgress()
	if p.Solved {
		t.Fatalf("shuffled order must not be solved")
	}
	for _, f := range p.Fragments {
		if f.Locked {
			t.Fatalf("nothing should lock for [chamo-me Paulo Eu], got %+v", f)
		}
	}

	s = mustReduce(t, m, s, Reorder{Fragments: solvedOrder(3)})
	s = mustReduce(t, m, s, Solve{})
	p, _ = s.CurrentProgress()
	if !p.Solved {
		t.Fatalf("expected solved after submitting the true order")
	}
	want := []model.Fragment{model.NewFragment([]int{0, 1, 2}, true)}
	if diff := cmp.Diff(want, p.Fragments); diff != "" {
		t.Fatalf("unexpected fragments (-want +got):\n%s", diff)
	}
	if got := p.Fragments[0].Text(problems[0].Tokens); got != "Eu chamo-me Paulo" {
		t.Fatalf("unexpected text %q", got)
	}
	if c := ControlsFor(s); !c.Restart || c.Next || c.Skip || c.Solve {
		t.Fatalf("unexpected controls for last solved problem: %+v", c)
	}
}

func TestStateJSONRoundTripShape(t *testing.T) {
	s := State{Current: None, Queue: nil, Progress: nil}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"current":null,"queue":[],"progress":[]}` {
		t.Fatalf("unexpected encoding: %s", data)
	}

	full := NewState(testProblems(), "seed")
	data, err = json.Marshal(full)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded State
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(full, decoded, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("decoded state differs (-want +got):\n%s", diff)
	}
}

func TestValidateRejectsInconsistentStates(t *testing.T) {
	problems := testProblems()
	good := NewState(problems, "seed")

	tests := []struct {
		name   string
		mutate func(s *State)
	}{
		{name: "short progress", mutate: func(s *State) { s.Progress = s.Progress[:2] }},
		{name: "current in queue", mutate: func(s *State) { s.Queue = append(s.Queue, 0) }},
		{name: "current out of range", mutate: func(s *State) { s.Current = 9 }},
		{name: "queued twice", mutate: func(s *State) { s.Queue = []int{1, 1} }},
		{name: "solved in queue", mutate: func(s *State) { s.Progress[1].Solved = true }},
		{name: "broken coverage", mutate: func(s *State) { s.Progress[0].Fragments = s.Progress[0].Fragments[:1] }},
		{name: "stale id", mutate: func(s *State) { s.Progress[0].Fragments[0].ID = "fragment-x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := good.clone()
			tt.mutate(&s)
			if err := Validate(problems, s); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestControlsFor(t *testing.T) {
	m := NewMachine(testProblems())
	s := NewState(m.Problems(), "seed")
	if c := ControlsFor(s); !c.Solve || !c.Skip || c.Next || c.Restart {
		t.Fatalf("unexpected controls for fresh state: %+v", c)
	}
	s = mustReduce(t, m, s, Reorder{Fragments: solvedOrder(3)})
	s = mustReduce(t, m, s, Solve{})
	if c := ControlsFor(s); c.Solve || c.Skip || !c.Next || c.Restart {
		t.Fatalf("unexpected controls for solved state: %+v", c)
	}
}
