package calendarRepo

import (
	"context"
	"fmt"
	"time"

	"freshfade/models"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleCalendarRepo uses a Google Calendar as the calendar of record.
type GoogleCalendarRepo struct {
	svc        *calendar.Service
	calendarID string
	timeout    time.Duration
}

// NewGoogleCalendarRepo authenticates with a service account file.
func NewGoogleCalendarRepo(ctx context.Context, credentialsFile, calendarID string, timeout time.Duration) (*GoogleCalendarRepo, error) {
	svc, err := calendar.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GoogleCalendarRepo{svc: svc, calendarID: calendarID, timeout: timeout}, nil
}

// ListOverlapping lists events intersecting [start, end). The Calendar API treats
// timeMin/timeMax as exclusive bounds on event end/start, which is exactly an overlap test.
func (r *GoogleCalendarRepo) ListOverlapping(ctx context.Context, start, end time.Time) ([]models.BookingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	events, err := r.svc.Events.List(r.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("error listing calendar events: %w", err)
	}

	return recordsFromEvents(events.Items)
}

// recordsFromEvents keeps the events that block time. Free ("transparent") events are
// skipped; an event we cannot read still blocks the slot, so it fails the whole list.
func recordsFromEvents(items []*calendar.Event) ([]models.BookingRecord, error) {
	records := make([]models.BookingRecord, 0, len(items))
	for _, ev := range items {
		if ev.Transparency == "transparent" {
			continue
		}
		rec, err := recordFromEvent(ev)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Insert creates the calendar event and returns its event id.
func (r *GoogleCalendarRepo) Insert(ctx context.Context, record *models.BookingRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	created, err := r.svc.Events.Insert(r.calendarID, eventFromRecord(record)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("error inserting calendar event: %w", err)
	}
	record.ID = created.Id
	return created.Id, nil
}

// confirmationCodeKey is the private extended property holding the caller's code.
const confirmationCodeKey = "confirmationCode"

func eventFromRecord(record *models.BookingRecord) *calendar.Event {
	ev := &calendar.Event{
		Summary:     record.Summary,
		Description: record.Description,
		Start: &calendar.EventDateTime{
			DateTime: record.Start.Format(time.RFC3339),
			TimeZone: record.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: record.End.Format(time.RFC3339),
			TimeZone: record.TimeZone,
		},
	}
	if record.ConfirmationCode != "" {
		ev.Description = fmt.Sprintf("%s\nConfirmation code: %s", ev.Description, record.ConfirmationCode)
		ev.ExtendedProperties = &calendar.EventExtendedProperties{
			Private: map[string]string{confirmationCodeKey: record.ConfirmationCode},
		}
	}
	return ev
}

func recordFromEvent(ev *calendar.Event) (models.BookingRecord, error) {
	start, err := eventTime(ev.Start)
	if err != nil {
		return models.BookingRecord{}, fmt.Errorf("event %s start: %w", ev.Id, err)
	}
	end, err := eventTime(ev.End)
	if err != nil {
		return models.BookingRecord{}, fmt.Errorf("event %s end: %w", ev.Id, err)
	}
	tz := ""
	if ev.Start != nil {
		tz = ev.Start.TimeZone
	}
	rec := models.BookingRecord{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       start,
		End:         end,
		TimeZone:    tz,
	}
	if ev.ExtendedProperties != nil {
		rec.ConfirmationCode = ev.ExtendedProperties.Private[confirmationCodeKey]
	}
	return rec, nil
}

// eventTime reads timed and all-day event boundaries.
func eventTime(dt *calendar.EventDateTime) (time.Time, error) {
	if dt == nil {
		return time.Time{}, fmt.Errorf("missing event time")
	}
	if dt.DateTime != "" {
		return time.Parse(time.RFC3339, dt.DateTime)
	}
	return time.Parse("2006-01-02", dt.Date)
}
