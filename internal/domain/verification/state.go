package verification

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid verification transition")
	ErrUnknownState      = errors.New("unknown verification state")
)

type State string

const (
	StatePaymentMethod   State = "payment-method"
	StateBankPending     State = "bank-pending"
	StatePaymentInfo     State = "payment-info"
	StateIdentity        State = "identity"
	StateApprovalPending State = "approval-pending"

	InitialState = StatePaymentMethod
)

// States lists the machine's states in flow order.
var States = []State{StatePaymentMethod, StateBankPending, StatePaymentInfo, StateIdentity, StateApprovalPending}

type Event string

const (
	EventContinue Event = "continue"
	EventBack     Event = "back"
	EventSubmit   Event = "submit"
	EventEdit     Event = "edit"
)

type edge struct {
	from  State
	event Event
}

var transitions = map[edge]State{
	{StatePaymentMethod, EventContinue}: StateBankPending,
	{StateBankPending, EventContinue}:   StatePaymentInfo,
	{StateBankPending, EventBack}:       StatePaymentMethod,
	{StatePaymentInfo, EventContinue}:   StateIdentity,
	{StatePaymentInfo, EventBack}:       StateBankPending,
	{StateIdentity, EventSubmit}:        StateApprovalPending,
	{StateIdentity, EventBack}:          StatePaymentInfo,
	{StateApprovalPending, EventEdit}:   StatePaymentMethod,
}

func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return s == StateApprovalPending
}

// Next returns the state reached by applying event in from.
func Next(from State, event Event) (State, error) {
	if !from.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, from)
	}
	to, ok := transitions[edge{from, event}]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, from)
	}
	return to, nil
}

// Allowed lists the events accepted in s.
func Allowed(s State) []Event {
	var out []Event
	for _, ev := range []Event{EventContinue, EventBack, EventSubmit, EventEdit} {
		if _, ok := transitions[edge{s, ev}]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// Recover validates a persisted value against the known states. Anything else resets to
// the initial state and reports reset=true so callers can overwrite the stored value.
func Recover(raw string) (state State, reset bool) {
	s, err := Decode(raw)
	if err != nil {
		return InitialState, true
	}
	return s, false
}

func Encode(s State) string {
	return string(s)
}

func Decode(raw string) (State, error) {
	s := State(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, raw)
	}
	return s, nil
}

func ParseEvent(v string) (Event, error) {
	switch Event(v) {
	case EventContinue, EventBack, EventSubmit, EventEdit:
		return Event(v), nil
	default:
		return "", fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, v)
	}
}
