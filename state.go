package player

import "sync"

// PlaybackState is the player's coarse lifecycle state.
type PlaybackState int32

// stateAny is the change() wildcard meaning "from any state", never a
// state the player actually reports.
const stateAny PlaybackState = -1

const (
	StateStopped PlaybackState = iota
	StateStopping
	StateOpening
	StatePlaying
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStopping:
		return "stopping"
	case StateOpening:
		return "opening"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// stateMachine guards the player's PlaybackState and fires exactly one
// callback per accepted transition. change(from, to) with from==stateAny
// accepts the transition regardless of the current state.
type stateMachine struct {
	mu       sync.Mutex
	current  PlaybackState
	onChange func(PlaybackState)
}

func newStateMachine(onChange func(PlaybackState)) *stateMachine {
	return &stateMachine{onChange: onChange}
}

// change moves the state from `from` to `to` and reports whether it did.
// It refuses a no-op transition (current already equals to) and refuses
// a transition whose required `from` does not match the current state,
// unless from is stateAny.
func (m *stateMachine) change(from, to PlaybackState) bool {
	m.mu.Lock()
	if m.current == to {
		m.mu.Unlock()
		return false
	}
	if from != stateAny && from != m.current {
		m.mu.Unlock()
		return false
	}
	m.current = to
	cb := m.onChange
	m.mu.Unlock()
	if cb != nil {
		cb(to)
	}
	return true
}

func (m *stateMachine) get() PlaybackState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
