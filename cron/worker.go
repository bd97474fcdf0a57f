package cron

import (
	"context"
	"fmt"

	"freshfade/services/notification"
	"freshfade/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NewServeMux routes booking tasks to the notification service.
func NewServeMux(notifSvc notification.NotificationService, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingConfirmation, handleConfirmationTask(notifSvc, logger))
	mux.HandleFunc(tasks.TypeBookingReminder, handleReminderTask(notifSvc, logger))
	return mux
}

// StartNotificationWorker runs the SMS worker in the background. Call Shutdown on the
// returned server when the process exits.
func StartNotificationWorker(redisOpts asynq.RedisClientOpt, notifSvc notification.NotificationService, logger *zap.Logger) (*asynq.Server, error) {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)
	if err := srv.Start(NewServeMux(notifSvc, logger)); err != nil {
		return nil, fmt.Errorf("failed to start notification worker: %w", err)
	}
	logger.Info("notification worker started")
	return srv, nil
}

func handleConfirmationTask(notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		n, err := tasks.ParseNotice(task)
		if err != nil {
			logger.Error("dropping confirmation task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err := notifSvc.SendBookingConfirmation(ctx, n); err != nil {
			logger.Warn("confirmation sms failed", zap.String("ref", n.Ref), zap.Error(err))
			return err
		}
		return nil
	}
}

func handleReminderTask(notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		n, err := tasks.ParseNotice(task)
		if err != nil {
			logger.Error("dropping reminder task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err := notifSvc.SendBookingReminder(ctx, n); err != nil {
			logger.Warn("reminder sms failed", zap.String("ref", n.Ref), zap.Error(err))
			return err
		}
		return nil
	}
}
