package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"freshfade/services/notification"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeBookingConfirmation = "booking:confirmation"
	TypeBookingReminder     = "booking:reminder"
)

// NewConfirmationTask builds the task that texts the caller right after booking.
func NewConfirmationTask(notice notification.BookingNotice) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(notice)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingConfirmation, b)
	opts := []asynq.Option{asynq.MaxRetry(5), asynq.Timeout(30 * time.Second)}
	return task, opts, nil
}

// NewReminderTask builds the task that texts the caller at fireAt.
func NewReminderTask(notice notification.BookingNotice, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(notice)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt), asynq.MaxRetry(3)}
	return task, opts, nil
}

// ParseNotice decodes a booking task payload.
func ParseNotice(task *asynq.Task) (notification.BookingNotice, error) {
	var n notification.BookingNotice
	if err := json.Unmarshal(task.Payload(), &n); err != nil {
		return n, fmt.Errorf("invalid booking payload: %w", err)
	}
	return n, nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// BookingQueue schedules the SMS follow-ups of a booking.
type BookingQueue struct {
	client       enqueuer
	reminderLead time.Duration // zero disables reminders
	now          func() time.Time
	logger       *zap.Logger
}

func NewBookingQueue(client *asynq.Client, reminderLead time.Duration, logger *zap.Logger) *BookingQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingQueue{client: client, reminderLead: reminderLead, now: time.Now, logger: logger}
}

// NotifyBooking enqueues the confirmation and, when the appointment is far enough away,
// a reminder reminderLead before it starts.
func (q *BookingQueue) NotifyBooking(ctx context.Context, notice notification.BookingNotice) error {
	task, opts, err := NewConfirmationTask(notice)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue confirmation: %w", err)
	}

	if q.reminderLead <= 0 {
		return nil
	}
	fireAt := notice.Start.Add(-q.reminderLead)
	if !fireAt.After(q.now()) {
		return nil
	}
	task, opts, err = NewReminderTask(notice, fireAt)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	q.logger.Info("booking reminder scheduled", zap.String("ref", notice.Ref), zap.Time("fireAt", fireAt))
	return nil
}
