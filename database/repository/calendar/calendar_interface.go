package calendarRepo

import (
	"context"
	"time"

	"freshfade/models"
)

// CalendarRepository is the calendar of record for appointments.
type CalendarRepository interface {
	// ListOverlapping returns every booking intersecting [start, end).
	ListOverlapping(ctx context.Context, start, end time.Time) ([]models.BookingRecord, error)
	// Insert writes one booking and returns its reference. Not idempotent.
	Insert(ctx context.Context, record *models.BookingRecord) (string, error)
}
