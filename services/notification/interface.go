package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// NotificationService tells callers about their bookings outside the call.
type NotificationService interface {
	SendBookingConfirmation(ctx context.Context, notice BookingNotice) error
	SendBookingReminder(ctx context.Context, notice BookingNotice) error
}

// BookingNotice is what the caller receives after a successful booking.
type BookingNotice struct {
	To       string    `json:"to"` // E.164 caller number
	Business string    `json:"business,omitempty"`
	Service  string    `json:"service,omitempty"`
	Start    time.Time `json:"start"`
	Ref      string    `json:"ref,omitempty"` // spoken reference
}

// Text renders the SMS body.
func (n BookingNotice) Text() string {
	var sb strings.Builder
	if n.Business != "" {
		sb.WriteString(n.Business + ": ")
	}
	service := n.Service
	if service == "" {
		service = "appointment"
	}
	fmt.Fprintf(&sb, "your %s is booked for %s.", service, n.Start.Format("Mon Jan 2 at 3:04 PM"))
	if n.Ref != "" {
		fmt.Fprintf(&sb, " Ref %s.", n.Ref)
	}
	return sb.String()
}

// ReminderText renders the SMS sent shortly before the appointment.
func (n BookingNotice) ReminderText() string {
	var sb strings.Builder
	if n.Business != "" {
		sb.WriteString(n.Business + ": ")
	}
	service := n.Service
	if service == "" {
		service = "appointment"
	}
	fmt.Fprintf(&sb, "reminder, your %s is today at %s.", service, n.Start.Format("3:04 PM"))
	if n.Ref != "" {
		fmt.Fprintf(&sb, " Ref %s.", n.Ref)
	}
	return sb.String()
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMSNotificationService sends confirmations through the Twilio Messages API.
type SMSNotificationService struct {
	api    messageCreator
	from   string
	logger *zap.Logger
}

func NewSMSNotificationService(accountSID, authToken, from string, logger *zap.Logger) (*SMSNotificationService, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials or sender number")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMSNotificationService{api: client.Api, from: from, logger: logger}, nil
}

func (s *SMSNotificationService) SendBookingConfirmation(ctx context.Context, notice BookingNotice) error {
	return s.send(ctx, notice.To, notice.Text(), "booking confirmation sent")
}

func (s *SMSNotificationService) SendBookingReminder(ctx context.Context, notice BookingNotice) error {
	return s.send(ctx, notice.To, notice.ReminderText(), "booking reminder sent")
}

func (s *SMSNotificationService) send(ctx context.Context, to, body, logMsg string) error {
	if to == "" {
		return fmt.Errorf("no recipient number")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(to)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, msg)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	s.logger.Info(logMsg, zap.String("to", to), zap.String("sid", sid))
	return nil
}
