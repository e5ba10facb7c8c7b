package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuiorder/internal/model"
	"github.com/verte-zerg/tuiorder/internal/shuffle"
)

// Store persists session states keyed by problem set hash.
type Store interface {
	Load(ctx context.Context, hash string) (State, bool)
	Save(ctx context.Context, hash string, s State) error
}

// AttemptRecorder receives one record per Solve.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, a model.Attempt) error
}

// Options configures a Session. Zero values are usable.
type Options struct {
	Store    Store
	Attempts AttemptRecorder
	NewSeed  func() string
	Logger   *zap.Logger
	Now      func() time.Time
}

// Session drives the reducer for one problem set and persists every change.
// It is owned by a single goroutine.
type Session struct {
	machine  Machine
	hash     string
	state    State
	store    Store
	attempts AttemptRecorder
	newSeed  func() string
	logger   *zap.Logger
	now      func() time.Time
	restored bool
}

// Open restores the stored session for hash or starts a fresh one.
func Open(ctx context.Context, problems model.ProblemSet, hash string, opts Options) *Session {
	s := &Session{
		machine:  NewMachine(problems),
		hash:     hash,
		store:    opts.Store,
		attempts: opts.Attempts,
		newSeed:  opts.NewSeed,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.newSeed == nil {
		s.newSeed = shuffle.NewSeed
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	if s.store != nil {
		if st, ok := s.store.Load(ctx, hash); ok {
			if err := Validate(problems, st); err != nil {
				s.logger.Warn("discarding stored session", zap.String("hash", hash), zap.Error(err))
			} else {
				s.state = st
				s.restored = true
				return s
			}
		}
	}
	s.state = NewState(problems, s.newSeed())
	s.persist(ctx)
	return s
}

// Restored reports whether the session came from storage.
func (s *Session) Restored() bool {
	return s.restored
}

// Hash returns the problem set content hash the session is keyed by.
func (s *Session) Hash() string {
	return s.hash
}

// State returns the current snapshot.
func (s *Session) State() State {
	return s.state
}

// Phase reports whether there is anything to solve.
func (s *Session) Phase() Phase {
	if len(s.machine.Problems()) == 0 {
		return PhaseEmpty
	}
	return PhaseReady
}

// Controls returns the navigation requests that apply right now.
func (s *Session) Controls() Controls {
	return ControlsFor(s.state)
}

// CurrentIndex returns the active problem index or None.
func (s *Session) CurrentIndex() int {
	return s.state.Current
}

// CurrentProblem returns the active problem.
func (s *Session) CurrentProblem() (model.Problem, bool) {
	if !s.state.HasCurrent() {
		return model.Problem{}, false
	}
	return s.machine.Problems()[s.state.Current], true
}

// CurrentProgress returns the active problem's fragments and solved flag.
func (s *Session) CurrentProgress() (model.Progress, bool) {
	p, ok := s.state.CurrentProgress()
	if !ok {
		return model.Progress{}, false
	}
	return p.Clone(), true
}

// SolvedCount returns how many problems are solved.
func (s *Session) SolvedCount() int {
	return s.state.SolvedCount()
}

// RemainingCount returns how many problems are still unsolved in rotation.
func (s *Session) RemainingCount() int {
	return s.state.RemainingCount()
}

// TotalCount returns the number of problems in the set.
func (s *Session) TotalCount() int {
	return len(s.machine.Problems())
}

// Reorder replaces the current fragment order.
func (s *Session) Reorder(fragments []model.Fragment) error {
	return s.dispatch(Reorder{Fragments: fragments})
}

// Solve evaluates the current problem and records the attempt.
func (s *Session) Solve() error {
	cur := s.state.Current
	if err := s.dispatch(Solve{}); err != nil {
		return err
	}
	if cur != None {
		s.recordAttempt(cur)
	}
	return nil
}

// Skip moves to the next queued problem, re-queueing the current one.
func (s *Session) Skip() error {
	return s.dispatch(Skip{})
}

// Next retires the solved current problem.
func (s *Session) Next() error {
	return s.dispatch(Next{})
}

// Restart re-shuffles every problem with a fresh seed.
func (s *Session) Restart() error {
	return s.dispatch(Restart{Seed: s.newSeed()})
}

func (s *Session) dispatch(a Action) error {
	next, err := s.machine.Reduce(s.state, a)
	if err != nil {
		return err
	}
	s.state = next
	s.persist(context.Background())
	return nil
}

func (s *Session) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.hash, s.state); err != nil {
		s.logger.Warn("session kept in memory only", zap.String("hash", s.hash), zap.Error(err))
	}
}

func (s *Session) recordAttempt(idx int) {
	if s.attempts == nil {
		return
	}
	p := s.state.Progress[idx]
	locked := 0
	for _, f := range p.Fragments {
		if f.Locked {
			locked += f.Len()
		}
	}
	attempt := model.Attempt{
		SetHash:     s.hash,
		Problem:     idx,
		LockedCount: locked,
		Total:       len(s.machine.Problems()[idx].Tokens),
		Solved:      p.Solved,
		At:          s.now(),
	}
	if err := s.attempts.RecordAttempt(context.Background(), attempt); err != nil {
		s.logger.Warn("failed to record attempt", zap.Int("problem", idx), zap.Error(err))
	}
}
