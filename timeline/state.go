package timeline

import (
	"github.com/dudk/cadence"
)

// StateEvent is a transition into a state at a time.
type StateEvent[S comparable] struct {
	At    float64
	State S
}

// Time implements Event.
func (e *StateEvent[S]) Time() float64 {
	return e.At
}

// StateTimeline is a timeline of state transitions.
type StateTimeline[S comparable] struct {
	*Timeline[*StateEvent[S]]
	initial S
}

// NewStateTimeline creates a state timeline which reports initial state
// before any transition.
func NewStateTimeline[S comparable](initial S) *StateTimeline[S] {
	return &StateTimeline[S]{
		Timeline: New[*StateEvent[S]](),
		initial:  initial,
	}
}

// SetStateAtTime adds a transition. Time must not be negative.
func (st *StateTimeline[S]) SetStateAtTime(s S, t float64) error {
	if t < 0 {
		return cadence.InvalidArgument("StateTimeline.SetStateAtTime", "time", t)
	}
	return st.Add(&StateEvent[S]{At: t, State: s})
}

// GetValueAtTime returns the state at time t.
func (st *StateTimeline[S]) GetValueAtTime(t float64) S {
	if e, ok := st.Get(t); ok {
		return e.State
	}
	return st.initial
}

// GetLastState returns the latest transition into s at or before t.
func (st *StateTimeline[S]) GetLastState(s S, t float64) (*StateEvent[S], bool) {
	for i := st.search(byTime[*StateEvent[S]], t); i >= 0; i-- {
		if st.events[i].State == s {
			return st.events[i], true
		}
	}
	return nil, false
}

// GetNextState returns the earliest transition into s after the last
// transition at or before t.
func (st *StateTimeline[S]) GetNextState(s S, t float64) (*StateEvent[S], bool) {
	i := st.search(byTime[*StateEvent[S]], t)
	if i < 0 {
		return nil, false
	}
	for ; i < len(st.events); i++ {
		if st.events[i].State == s {
			return st.events[i], true
		}
	}
	return nil, false
}
