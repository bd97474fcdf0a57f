package models

import (
	"fmt"
	"time"
)

// DialogueState is the booking progress of a single call.
type DialogueState string

const (
	StateNew                  DialogueState = "NEW"
	StateCollecting           DialogueState = "COLLECTING"
	StateProposing            DialogueState = "PROPOSING"
	StateAwaitingConfirmation DialogueState = "AWAITING_CONFIRMATION"
	StateBooked               DialogueState = "BOOKED"
)

// allowedTransitions lists every legal move of the booking state machine.
// Self transitions are always allowed and are not listed.
var allowedTransitions = map[DialogueState][]DialogueState{
	StateNew:                  {StateCollecting, StateProposing},
	StateCollecting:           {StateProposing},
	StateProposing:            {StateAwaitingConfirmation, StateCollecting},
	StateAwaitingConfirmation: {StateBooked, StateCollecting, StateProposing},
	StateBooked:               {StateCollecting},
}

// CanTransition reports whether moving from s to next is a legal transition.
func (s DialogueState) CanTransition(next DialogueState) bool {
	if s == next {
		return true
	}
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known states.
func (s DialogueState) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CallContext is the slot model of one call: everything the caller has told us so far
// plus where the booking negotiation stands.
type CallContext struct {
	CallID        string        `json:"callId"`
	CallerName    *string       `json:"callerName,omitempty"`
	Service       *string       `json:"service,omitempty"`       // e.g. "haircut"
	RequestedTime *time.Time    `json:"requestedTime,omitempty"` // always absolute, never a relative phrase
	State         DialogueState `json:"state"`
	ProposedTime  *time.Time    `json:"proposedTime,omitempty"` // time offered in the pending proposal
	BookingRef    string        `json:"bookingRef,omitempty"`
	ConfirmCode   string        `json:"confirmationCode,omitempty"`
	LastReplyText string        `json:"lastReplyText,omitempty"` // debugging/resumption only
	Turns         int           `json:"turns"`
	CreatedAt     time.Time     `json:"createdAt"`
	LastActivity  time.Time     `json:"lastActivity"`
}

// NewCallContext returns an empty context in the NEW state.
func NewCallContext(callID string, now time.Time) *CallContext {
	return &CallContext{
		CallID:       callID,
		State:        StateNew,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// AwaitingConfirmation is true once a specific time was proposed and we wait for yes/no.
func (c *CallContext) AwaitingConfirmation() bool {
	return c.State == StateAwaitingConfirmation
}

// BookingConfirmed is true once the appointment was written to the calendar.
func (c *CallContext) BookingConfirmed() bool {
	return c.State == StateBooked
}

// Transition moves the context to next, refusing moves the state machine does not allow.
func (c *CallContext) Transition(next DialogueState) error {
	if !c.State.CanTransition(next) {
		return fmt.Errorf("illegal dialogue transition %s -> %s", c.State, next)
	}
	c.State = next
	return nil
}

// Known returns the slot values already on file, as sent to the NLU.
func (c *CallContext) Known() KnownSlots {
	return KnownSlots{
		Name:          c.CallerName,
		Service:       c.Service,
		RequestedTime: c.RequestedTime,
		State:         c.State,
	}
}

// Snapshot copies the fields carried between turns in the state token.
func (c *CallContext) Snapshot() ContextSnapshot {
	return ContextSnapshot{
		CallerName:    c.CallerName,
		Service:       c.Service,
		RequestedTime: c.RequestedTime,
		ProposedTime:  c.ProposedTime,
		State:         c.State,
		BookingRef:    c.BookingRef,
		ConfirmCode:   c.ConfirmCode,
	}
}

// Restore seeds an empty context from a snapshot taken on an earlier turn.
func (c *CallContext) Restore(s ContextSnapshot) {
	c.CallerName = s.CallerName
	c.Service = s.Service
	c.RequestedTime = s.RequestedTime
	c.ProposedTime = s.ProposedTime
	c.BookingRef = s.BookingRef
	c.ConfirmCode = s.ConfirmCode
	if s.State.Valid() {
		c.State = s.State
	}
}

// ContextSnapshot is the portable part of a CallContext.
type ContextSnapshot struct {
	CallerName    *string       `json:"n,omitempty"`
	Service       *string       `json:"s,omitempty"`
	RequestedTime *time.Time    `json:"t,omitempty"`
	ProposedTime  *time.Time    `json:"p,omitempty"`
	State         DialogueState `json:"st,omitempty"`
	BookingRef    string        `json:"r,omitempty"`
	ConfirmCode   string        `json:"c,omitempty"`
}
