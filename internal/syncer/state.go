package syncer

import "fmt"

// State is the lifecycle stage of a Runner.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateReconciling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReconciling:
		return "reconciling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Failed is reachable from fetching only. Any state may return to idle when
// a cycle is abandoned, and a finished cycle may start over.
var transitions = map[State][]State{
	StateIdle:        {StateFetching},
	StateFetching:    {StateReconciling, StateFailed, StateIdle},
	StateReconciling: {StateDone, StateIdle},
	StateDone:        {StateFetching, StateIdle},
	StateFailed:      {StateFetching, StateIdle},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
