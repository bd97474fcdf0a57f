package models

import "time"

// KnownSlots are the slot values already on file for a call.
type KnownSlots struct {
	Name          *string       `json:"name,omitempty"`
	Service       *string       `json:"service,omitempty"`
	RequestedTime *time.Time    `json:"requested_time,omitempty"`
	State         DialogueState `json:"state,omitempty"`
}

// NLURequest is the typed conversation handed to the NLU collaborator.
type NLURequest struct {
	Instruction string     `json:"instruction"` // persona + output schema
	Known       KnownSlots `json:"known"`
	Utterance   string     `json:"utterance"`
	Now         time.Time  `json:"now"`
	TimeZone    string     `json:"time_zone"`
}

// Intent is the structured output the NLU is asked to produce. Optional fields are pointers
// so an omitted field can be told apart from an empty one.
type Intent struct {
	Reply            string  `json:"reply"`
	Name             *string `json:"name,omitempty"`
	Service          *string `json:"service,omitempty"`
	RequestedTime    *string `json:"requested_time,omitempty"` // absolute ISO-8601 as returned by the NLU
	BookingIntent    bool    `json:"booking_intent"`
	NeedConfirmation bool    `json:"need_confirmation"`
	BookingConfirmed bool    `json:"booking_confirmed"`
	MissingSlot      *string `json:"missing_slot,omitempty"` // "name", "service" or "time"

	// ParsedTime is RequestedTime after normalization; nil when absent or unparseable.
	ParsedTime *time.Time `json:"-"`
}

// WantsBooking reports whether the caller is trying to book, either by asking or by
// confirming a proposal.
func (i Intent) WantsBooking() bool {
	return i.BookingIntent || i.BookingConfirmed
}

// NLUOutcome is the result of one NLU call: exactly one of StructuredOutcome,
// UnstructuredOutcome or UnavailableOutcome.
type NLUOutcome interface {
	isNLUOutcome()
}

// StructuredOutcome carries a successfully parsed intent.
type StructuredOutcome struct {
	Intent Intent
}

// UnstructuredOutcome carries NLU output that could not be parsed as an Intent.
type UnstructuredOutcome struct {
	Raw string
}

// UnavailableOutcome means the NLU could not be reached at all.
type UnavailableOutcome struct {
	Err error
}

func (StructuredOutcome) isNLUOutcome()   {}
func (UnstructuredOutcome) isNLUOutcome() {}
func (UnavailableOutcome) isNLUOutcome()  {}

// IntentOf returns the parsed intent of an outcome, if any.
func IntentOf(o NLUOutcome) (Intent, bool) {
	if s, ok := o.(StructuredOutcome); ok {
		return s.Intent, true
	}
	return Intent{}, false
}
