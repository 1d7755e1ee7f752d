package models

import (
	"fmt"
	"strings"
)

// State represents the lifecycle stage of an issue.
type State string

const (
	StateTodo       State = "todo"
	StateInProgress State = "in_progress"
	StateDone       State = "done"
)

// States lists every valid state in lifecycle order.
var States = []State{StateTodo, StateInProgress, StateDone}

// DefaultState is the state assigned to newly created issues.
const DefaultState = StateTodo

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool {
	switch s {
	case StateTodo, StateInProgress, StateDone:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }

// ParseState converts user input such as "todo", "IN_PROGRESS" or "in-progress"
// into a State.
func ParseState(v string) (State, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), "-", "_")
	s := State(norm)
	if !s.Valid() {
		return "", fmt.Errorf("invalid state %q (want todo, in_progress or done)", v)
	}
	return s, nil
}
