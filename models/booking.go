package models

import "time"

// BookingRecord is a confirmed appointment as written to the calendar of record.
type BookingRecord struct {
	ID          string    `bson:"id" json:"id"`                   // booking reference (uuid or calendar event id)
	Summary     string    `bson:"summary" json:"summary"`         // e.g. "Haircut - Sam"
	Description string    `bson:"description" json:"description"` // free text, includes the call id
	Start       time.Time `bson:"start" json:"start"`
	End         time.Time `bson:"end" json:"end"` // Start + booking duration
	TimeZone    string    `bson:"time_zone" json:"time_zone"`
	CallID      string    `bson:"call_id,omitempty" json:"call_id,omitempty"`
	CallerName  string    `bson:"caller_name,omitempty" json:"caller_name,omitempty"`
	Service     string    `bson:"service,omitempty" json:"service,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`

	ConfirmationCode string `bson:"confirmation_code,omitempty" json:"confirmation_code,omitempty"` // short code read to the caller
}

// Overlaps reports whether the record intersects the half-open range [start, end).
func (b BookingRecord) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && b.End.After(start)
}
