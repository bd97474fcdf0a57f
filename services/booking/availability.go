package booking

import (
	"context"
	"time"

	calendarRepo "freshfade/database/repository/calendar"

	"go.uber.org/zap"
)

// DefaultAvailabilityResolver checks slots against a CalendarRepository.
type DefaultAvailabilityResolver struct {
	Calendar calendarRepo.CalendarRepository
	Step     time.Duration // probe increment for FindNext; DefaultSearchStep when zero
	Logger   *zap.Logger
}

// IsAvailable returns true only when no booking overlaps [start, start+duration).
// A failed query reports the slot as taken.
func (r *DefaultAvailabilityResolver) IsAvailable(ctx context.Context, start time.Time, duration time.Duration) bool {
	end := start.Add(duration)
	conflicts, err := r.Calendar.ListOverlapping(ctx, start, end)
	if err != nil {
		r.logger().Warn("availability check failed, treating slot as taken",
			zap.Time("start", start), zap.Duration("duration", duration), zap.Error(err))
		return false
	}
	if len(conflicts) > 0 {
		r.logger().Debug("slot has conflicts",
			zap.Time("start", start), zap.Int("conflicts", len(conflicts)))
		return false
	}
	return true
}

// FindNext probes start, start+step, start+2*step... and returns the first free time.
// It gives up after maxProbes probes (DefaultMaxProbes when maxProbes <= 0).
func (r *DefaultAvailabilityResolver) FindNext(ctx context.Context, start time.Time, duration time.Duration, maxProbes int) (time.Time, bool) {
	if maxProbes <= 0 {
		maxProbes = DefaultMaxProbes
	}
	step := r.Step
	if step <= 0 {
		step = DefaultSearchStep
	}

	for i := 0; i < maxProbes; i++ {
		candidate := start.Add(time.Duration(i) * step)
		if r.IsAvailable(ctx, candidate, duration) {
			return candidate, true
		}
	}
	r.logger().Info("no open slot found",
		zap.Time("from", start), zap.Int("probes", maxProbes))
	return time.Time{}, false
}

func (r *DefaultAvailabilityResolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
