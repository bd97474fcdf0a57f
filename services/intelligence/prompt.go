package ai

import (
	"fmt"
	"strings"
	"time"

	"freshfade/models"
)

const receptionistPrompt = `
## Identity & Role

You are the friendly phone receptionist for **%s**. You answer calls, help callers book an
appointment (haircut, beard trim, shave, kids cut, ...) and answer simple questions. Sound
natural and warm. Keep every reply short: one or two sentences, it will be read aloud.

## Booking

- To book you need the caller's **name**, the **service** and a **date and time**.
- Ask for one missing piece at a time.
- Never say a booking is confirmed yourself; the system checks the calendar and confirms.
- When the caller agrees to a proposed time ("yes", "sounds good", "book it"), set
  booking_confirmed to true and keep booking_intent true.
- When the caller turns a proposed time down, set booking_intent and booking_confirmed to false
  unless they give a new time in the same sentence.

## Output

Reply with a single JSON object and nothing else:
{
  "reply": string,              // what to say to the caller
  "name": string|null,          // caller's name if they said it
  "service": string|null,       // requested service, lower case
  "requested_time": string|null,// ABSOLUTE time, ISO-8601 with offset, e.g. 2026-10-17T15:00:00-04:00
  "booking_intent": boolean,    // the caller wants to book
  "need_confirmation": boolean, // you are asking the caller to confirm a time
  "booking_confirmed": boolean, // the caller just agreed to the proposed time
  "missing_slot": "name"|"service"|"time"|null
}
Resolve relative dates ("tomorrow", "next Friday") against the current time given below.
Omit fields you did not learn in this turn.
`

// BuildInstruction returns the fixed persona and output schema for the business.
func BuildInstruction(businessName string) string {
	return strings.TrimSpace(fmt.Sprintf(receptionistPrompt, businessName))
}

// RenderRequest renders the per-turn part of the conversation: clock, known slots and the
// caller's words.
func RenderRequest(req models.NLURequest) string {
	var sb strings.Builder

	now := req.Now
	fmt.Fprintf(&sb, "Current time: %s (%s, timezone %s)\n",
		now.Format(time.RFC3339), now.Format("Monday"), req.TimeZone)

	sb.WriteString("Known so far:\n")
	fmt.Fprintf(&sb, "- name: %s\n", orUnknown(req.Known.Name))
	fmt.Fprintf(&sb, "- service: %s\n", orUnknown(req.Known.Service))
	if req.Known.RequestedTime != nil {
		fmt.Fprintf(&sb, "- requested_time: %s (%s)\n",
			req.Known.RequestedTime.Format(time.RFC3339), SpokenTime(*req.Known.RequestedTime))
	} else {
		sb.WriteString("- requested_time: unknown\n")
	}
	if req.Known.State == models.StateAwaitingConfirmation {
		sb.WriteString("- a time was proposed and we are waiting for the caller to confirm\n")
	}
	if req.Known.State == models.StateBooked {
		sb.WriteString("- this caller already has a confirmed booking\n")
	}

	fmt.Fprintf(&sb, "\nCaller said: %q\n", req.Utterance)
	return sb.String()
}

func orUnknown(s *string) string {
	if s == nil || *s == "" {
		return "unknown"
	}
	return *s
}
