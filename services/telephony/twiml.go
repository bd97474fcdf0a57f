package telephony

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"freshfade/models"

	"github.com/twilio/twilio-go/twiml"
)

// ApologyText is spoken before hanging up on an unrecoverable error.
const ApologyText = "We are sorry. An error has occurred. Please try again later."

// RecordOptions configures the <Record> verb that captures the next utterance.
type RecordOptions struct {
	ActionURL string // absolute URL of the turn webhook
	MaxLength int    // seconds
	Timeout   int    // seconds of silence that end the recording
}

// Render turns an instruction into a TwiML document.
func Render(instr models.Instruction, opts RecordOptions) (string, error) {
	switch instr.Kind {
	case models.InstructionPlayAndRecord:
		return PlayAndRecord(instr.AudioURL, instr.Text, TurnActionURL(opts.ActionURL, instr.StateToken), opts)
	case models.InstructionSayAndHangup:
		return SayAndHangup(instr.Text)
	default:
		return "", fmt.Errorf("unknown instruction kind %d", instr.Kind)
	}
}

// PlayAndRecord plays audioURL and records the caller's answer, posting it to actionURL.
// Without an audio URL the text is spoken with Twilio's own voice instead. The trailing
// redirect keeps the call alive when the caller says nothing and Record falls through.
func PlayAndRecord(audioURL, text, actionURL string, opts RecordOptions) (string, error) {
	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = 30
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3
	}

	var prompt twiml.Element
	switch {
	case audioURL != "":
		prompt = &twiml.VoicePlay{Url: audioURL}
	case strings.TrimSpace(text) != "":
		prompt = &twiml.VoiceSay{Message: text, Voice: "alice"}
	default:
		prompt = &twiml.VoiceSay{Message: ApologyText, Voice: "alice"}
	}

	verbs := []twiml.Element{
		prompt,
		&twiml.VoiceRecord{
			Action:    actionURL,
			Method:    "POST",
			MaxLength: strconv.Itoa(maxLength),
			Timeout:   strconv.Itoa(timeout),
			PlayBeep:  "false",
			Trim:      "trim-silence",
		},
		&twiml.VoiceRedirect{Url: actionURL, Method: "POST"},
	}
	return twiml.Voice(verbs)
}

// SayAndHangup speaks text and ends the call.
func SayAndHangup(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		text = ApologyText
	}
	verbs := []twiml.Element{
		&twiml.VoiceSay{Message: text, Voice: "alice"},
		&twiml.VoiceHangup{},
	}
	return twiml.Voice(verbs)
}

// TurnActionURL appends the state token to the turn webhook URL.
func TurnActionURL(base, stateToken string) string {
	if stateToken == "" {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("state", stateToken)
	u.RawQuery = q.Encode()
	return u.String()
}
