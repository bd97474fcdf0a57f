package booking

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	calendarRepo "freshfade/database/repository/calendar"
	"freshfade/models"

	"go.uber.org/zap"
)

// DefaultBookingCommitter writes one BookingRecord per call to Commit.
type DefaultBookingCommitter struct {
	Calendar calendarRepo.CalendarRepository
	Location *time.Location
	Logger   *zap.Logger
	NewCode  func() string // NewConfirmationCode when nil
}

// Commit inserts the appointment and returns the written record, carrying the
// calendar's reference and the caller's confirmation code. Calling it twice creates
// two records.
func (c *DefaultBookingCommitter) Commit(ctx context.Context, req CommitRequest) (*models.BookingRecord, error) {
	if req.Start.IsZero() {
		return nil, NewInvalidBookingError("missing start time")
	}
	if req.Duration <= 0 {
		return nil, NewInvalidBookingError("duration must be positive")
	}
	newCode := c.NewCode
	if newCode == nil {
		newCode = NewConfirmationCode
	}

	loc := c.Location
	if loc == nil {
		loc = req.Start.Location()
	}
	start := req.Start.In(loc)
	record := &models.BookingRecord{
		Summary:     summary(req.Service, req.Name),
		Description: fmt.Sprintf("Booked by phone (call %s)", req.CallID),
		Start:       start,
		End:         start.Add(req.Duration),
		TimeZone:    loc.String(),
		CallID:      req.CallID,
		CallerName:  req.Name,
		Service:     req.Service,
		CreatedAt:   time.Now(),

		ConfirmationCode: newCode(),
	}

	ref, err := c.Calendar.Insert(ctx, record)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Error("booking commit failed", zap.String("callID", req.CallID), zap.Error(err))
		}
		return nil, NewCommitError(err)
	}
	record.ID = ref
	if c.Logger != nil {
		c.Logger.Info("booking committed",
			zap.String("callID", req.CallID),
			zap.String("ref", ref),
			zap.String("code", record.ConfirmationCode),
			zap.Time("start", start))
	}
	return record, nil
}

func summary(service, name string) string {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "Appointment"
	} else {
		r, size := utf8.DecodeRuneInString(service)
		service = string(unicode.ToUpper(r)) + service[size:]
	}
	if name = strings.TrimSpace(name); name == "" {
		return service
	}
	return service + " - " + name
}
