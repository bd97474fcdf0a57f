package booking

import (
	"context"
	"time"

	"freshfade/models"
)

const (
	// DefaultSearchStep is the distance between two probes of FindNext.
	DefaultSearchStep = 30 * time.Minute
	// DefaultMaxProbes bounds FindNext to a four hour forward search.
	DefaultMaxProbes = 8
)

// AvailabilityResolver answers "is this time free" against the calendar of record.
type AvailabilityResolver interface {
	IsAvailable(ctx context.Context, start time.Time, duration time.Duration) bool
	FindNext(ctx context.Context, start time.Time, duration time.Duration, maxProbes int) (time.Time, bool)
}

// BookingCommitter writes confirmed appointments.
type BookingCommitter interface {
	Commit(ctx context.Context, req CommitRequest) (*models.BookingRecord, error)
}

// CommitRequest is one confirmed appointment to write.
type CommitRequest struct {
	CallID   string
	Name     string
	Service  string
	Start    time.Time
	Duration time.Duration
}
