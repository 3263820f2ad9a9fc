package scene

import (
	"errors"
	"fmt"
)

// State is a step of a single resolution request.
type State string

const (
	StateGenerating         State = "generating"
	StateFallbackGenerating State = "fallback_generating"
	StateExpanding          State = "expanding"
	StateResolved           State = "resolved"
	StateFailed             State = "failed"
)

var allowedTransitions = map[State]map[State]struct{}{
	StateGenerating: {
		StateFallbackGenerating: {},
		StateExpanding:          {},
		StateFailed:             {},
	},
	StateFallbackGenerating: {
		StateExpanding: {},
		StateFailed:    {},
	},
	StateExpanding: {
		StateResolved: {},
		StateFailed:   {},
	},
	StateResolved: {},
	StateFailed:   {},
}

// Machine tracks one request's progress and rejects illegal jumps.
type Machine struct {
	state    State
	observer Observer
}

// Observer is told about every state the machine enters.
type Observer func(State)

func NewMachine(initial State, observer Observer) (*Machine, error) {
	if !isKnownState(initial) {
		return nil, fmt.Errorf("invalid initial state %q", initial)
	}
	m := &Machine{state: initial, observer: observer}
	m.notify()
	return m, nil
}

func (m *Machine) State() State {
	if m == nil {
		return ""
	}
	return m.state
}

func (m *Machine) Transition(next State) error {
	if m == nil {
		return errors.New("machine is nil")
	}
	if !isKnownState(next) {
		return fmt.Errorf("unknown target state %q", next)
	}
	if _, ok := allowedTransitions[m.state][next]; !ok {
		return fmt.Errorf("state transition %q -> %q is not allowed", m.state, next)
	}
	m.state = next
	m.notify()
	return nil
}

func (m *Machine) Terminal() bool {
	return len(allowedTransitions[m.state]) == 0
}

func (m *Machine) notify() {
	if m.observer != nil {
		m.observer(m.state)
	}
}

func isKnownState(state State) bool {
	_, ok := allowedTransitions[state]
	return ok
}
