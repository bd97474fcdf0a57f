package models

// TurnInput is one caller utterance, already transcribed.
type TurnInput struct {
	CallID    string
	Utterance string
}

// TurnResult is what the dialogue controller decided for a turn.
type TurnResult struct {
	Reply       string
	State       DialogueState
	Booked      bool   // true only on the turn that committed the booking
	BookingRef  string // set when Booked
	ConfirmCode string // set when Booked; the code read to the caller
	Snapshot    ContextSnapshot
}

// InstructionKind selects the TwiML the telephony layer emits.
type InstructionKind int

const (
	// InstructionPlayAndRecord plays AudioURL (or speaks Text when there is no clip),
	// then records the next utterance.
	InstructionPlayAndRecord InstructionKind = iota
	// InstructionSayAndHangup speaks Text and ends the call.
	InstructionSayAndHangup
)

// Instruction is the next step handed back to the telephony transport.
type Instruction struct {
	Kind       InstructionKind
	AudioURL   string
	Text       string
	StateToken string
}
