// ABOUTME: Generic finite state machine driven by an explicit transition table
// ABOUTME: Backs the multi-step signup and password reset forms

package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned for a move the transition table does not allow
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrBusy is returned when a form submits while its own request is outstanding
	ErrBusy = errors.New("request already in progress")
	// ErrMissingField is returned when a required form field is empty
	ErrMissingField = errors.New("required field missing")
	// ErrDismissed is returned for a response that arrived after the form was discarded
	ErrDismissed = errors.New("form was dismissed")
)

// Transitions maps each state to the states reachable from it
type Transitions[S comparable] map[S][]S

// Machine tracks the current state of a form. It is not safe for concurrent
// use; the owning flow serializes access.
type Machine[S comparable] struct {
	initial S
	state   S
	table   Transitions[S]
}

// NewMachine creates a machine positioned at initial
func NewMachine[S comparable](initial S, table Transitions[S]) *Machine[S] {
	return &Machine[S]{initial: initial, state: initial, table: table}
}

// State returns the current state
func (m *Machine[S]) State() S {
	return m.state
}

// Can reports whether to is reachable from the current state
func (m *Machine[S]) Can(to S) bool {
	for _, s := range m.table[m.state] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves to the given state or returns ErrInvalidTransition
func (m *Machine[S]) Transition(to S) error {
	if !m.Can(to) {
		return fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}

// Reset returns to the initial state unconditionally
func (m *Machine[S]) Reset() {
	m.state = m.initial
}
