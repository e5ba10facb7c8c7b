// Package session implements the problem sequencing state machine.
package session

import (
	"encoding/json"
	"fmt"

	"github.com/verte-zerg/tuiorder/internal/evaluate"
	"github.com/verte-zerg/tuiorder/internal/model"
)

// None marks the absence of a current problem.
const None = -1

// State is one immutable snapshot of a session. Transitions never modify a
// State in place; they return a new one.
type State struct {
	Current  int
	Queue    []int
	Progress []model.Progress
}

type stateJSON struct {
	Current  *int             `json:"current"`
	Queue    []int            `json:"queue"`
	Progress []model.Progress `json:"progress"`
}

// MarshalJSON encodes a missing current problem as null.
func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{Queue: s.Queue, Progress: s.Progress}
	if out.Queue == nil {
		out.Queue = []int{}
	}
	if out.Progress == nil {
		out.Progress = []model.Progress{}
	}
	if s.Current != None {
		cur := s.Current
		out.Current = &cur
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the persisted record shape.
func (s *State) UnmarshalJSON(data []byte) error {
	var in stateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Current = None
	if in.Current != nil {
		s.Current = *in.Current
	}
	s.Queue = in.Queue
	s.Progress = in.Progress
	return nil
}

// HasCurrent reports whether a problem is active.
func (s State) HasCurrent() bool {
	return s.Current != None
}

// CurrentProgress returns the active problem's progress.
func (s State) CurrentProgress() (model.Progress, bool) {
	if !s.HasCurrent() || s.Current >= len(s.Progress) {
		return model.Progress{}, false
	}
	return s.Progress[s.Current], true
}

// SolvedCount returns the number of solved problems.
func (s State) SolvedCount() int {
	n := 0
	for _, p := range s.Progress {
		if p.Solved {
			n++
		}
	}
	return n
}

// RemainingCount returns the number of problems still to be solved in this
// session: the queue plus an unsolved current problem.
func (s State) RemainingCount() int {
	n := len(s.Queue)
	if p, ok := s.CurrentProgress(); ok && !p.Solved {
		n++
	}
	return n
}

func (s State) clone() State {
	out := State{Current: s.Current, Queue: append([]int(nil), s.Queue...)}
	out.Progress = make([]model.Progress, len(s.Progress))
	for i, p := range s.Progress {
		out.Progress[i] = p.Clone()
	}
	return out
}

// Validate checks a state against a problem set. Restored states that fail
// validation must be discarded.
func Validate(set model.ProblemSet, s State) error {
	if len(s.Progress) != len(set) {
		return fmt.Errorf("progress has %d entries, problem set has %d", len(s.Progress), len(set))
	}
	if len(set) == 0 {
		if s.Current != None || len(s.Queue) != 0 {
			return fmt.Errorf("empty problem set with active problems")
		}
		return nil
	}
	seen := make(map[int]struct{}, len(s.Queue)+1)
	if s.Current != None {
		if s.Current < 0 || s.Current >= len(set) {
			return fmt.Errorf("current problem %d out of range", s.Current)
		}
		seen[s.Current] = struct{}{}
	}
	for _, idx := range s.Queue {
		if idx < 0 || idx >= len(set) {
			return fmt.Errorf("queued problem %d out of range", idx)
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("problem %d queued twice or also current", idx)
		}
		if s.Progress[idx].Solved {
			return fmt.Errorf("solved problem %d is still queued", idx)
		}
		seen[idx] = struct{}{}
	}
	for i, p := range s.Progress {
		if err := evaluate.Validate(p.Fragments, len(set[i].Tokens)); err != nil {
			return fmt.Errorf("problem %d: %w", i, err)
		}
		for _, f := range p.Fragments {
			if f.ID != model.FragmentID(f.Indices) {
				return fmt.Errorf("problem %d: fragment id %q does not match indices", i, f.ID)
			}
		}
	}
	return nil
}
