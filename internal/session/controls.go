package session

// Phase describes where a session is in its lifecycle.
type Phase int

const (
	PhaseLoading Phase = iota // no problem set yet
	PhaseEmpty                // problem set has no problems
	PhaseReady                // a problem set and state are present
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseEmpty:
		return "empty"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Controls lists which navigation requests make sense for a state. The
// reducer accepts every action regardless; these are for the front-end.
type Controls struct {
	Solve   bool
	Skip    bool
	Next    bool
	Restart bool
}

// ControlsFor derives the available controls from s.
func ControlsFor(s State) Controls {
	p, ok := s.CurrentProgress()
	if !ok {
		return Controls{}
	}
	queued := len(s.Queue) > 0
	return Controls{
		Solve:   !p.Solved,
		Skip:    !p.Solved && queued,
		Next:    p.Solved && queued,
		Restart: p.Solved && !queued,
	}
}
