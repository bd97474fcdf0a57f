package booking

import "github.com/google/uuid"

// codeAlphabet leaves out 0/O and 1/I so a code survives being read over the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ConfirmationCodeLength is the number of characters in a confirmation code.
const ConfirmationCodeLength = 6

// NewConfirmationCode returns a random code the caller can write down and quote back.
// It is independent of the calendar's own reference.
func NewConfirmationCode() string {
	id := uuid.New()
	code := make([]byte, ConfirmationCodeLength)
	for i := range code {
		code[i] = codeAlphabet[int(id[i])%len(codeAlphabet)]
	}
	return string(code)
}
