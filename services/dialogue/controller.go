package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"freshfade/models"
	"freshfade/services/booking"
	ai "freshfade/services/intelligence"

	"go.uber.org/zap"
)

// IntentSource is the part of the intent extractor the controller needs.
type IntentSource interface {
	Extract(ctx context.Context, callID, utterance string) (string, models.NLUOutcome)
}

// Controller runs the per-call booking state machine on top of the NLU reply.
type Controller struct {
	Extractor IntentSource
	Store     ai.ContextStore
	Resolver  booking.AvailabilityResolver
	Committer booking.BookingCommitter
	Duration  time.Duration // appointment length
	Step      time.Duration // distance between alternative slots
	MaxProbes int
	Location  *time.Location
	Logger    *zap.Logger
}

// HandleTurn processes one caller utterance and returns the reply to speak.
// It never fails: every collaborator error ends up as a spoken reply.
func (c *Controller) HandleTurn(ctx context.Context, in models.TurnInput) models.TurnResult {
	log := c.logger().With(zap.String("callID", in.CallID))

	cc, created := c.Store.GetOrCreate(in.CallID)
	if created {
		log.Info("new call context")
	}
	cc.Turns++

	bookedService, bookedTime := cc.Service, cc.ProposedTime
	reply, outcome := c.Extractor.Extract(ctx, in.CallID, in.Utterance)
	intent, structured := models.IntentOf(outcome)

	result := models.TurnResult{}

	if cc.State == models.StateBooked && structured && intent.WantsBooking() &&
		changedBooking(bookedService, bookedTime, cc.Service, cc.RequestedTime) {
		log.Info("caller started a second booking", zap.String("previousRef", cc.BookingRef))
		c.move(cc, models.StateCollecting, log)
		cc.ProposedTime = nil
		cc.BookingRef = ""
		cc.ConfirmCode = ""
	}

	switch {
	case structured && intent.WantsBooking() && cc.RequestedTime != nil && cc.State != models.StateBooked:
		reply, result.Booked = c.negotiate(ctx, cc, intent, reply, log)
	case cc.State == models.StateNew:
		c.move(cc, models.StateCollecting, log)
	case structured && cc.AwaitingConfirmation() && !intent.BookingIntent && !intent.BookingConfirmed:
		log.Info("caller declined the proposed time")
		c.move(cc, models.StateCollecting, log)
		cc.ProposedTime = nil
	}

	if strings.TrimSpace(reply) == "" {
		reply = ai.ApologyReply
	}
	cc.LastReplyText = reply

	result.Reply = reply
	result.State = cc.State
	if result.Booked {
		result.BookingRef = cc.BookingRef
		result.ConfirmCode = cc.ConfirmCode
	}
	result.Snapshot = cc.Snapshot()
	return result
}

// negotiate checks the requested time and proposes, re-proposes or commits. It returns the
// reply to speak and whether a booking was written during this call.
func (c *Controller) negotiate(ctx context.Context, cc *models.CallContext, intent models.Intent, reply string, log *zap.Logger) (string, bool) {
	requested := cc.RequestedTime.In(c.location())

	if !c.Resolver.IsAvailable(ctx, requested, c.Duration) {
		alt, found := c.Resolver.FindNext(ctx, requested.Add(c.step()), c.Duration, c.MaxProbes)
		if !found {
			log.Info("no alternative slot", zap.Time("requested", requested))
			c.move(cc, models.StateCollecting, log)
			cc.ProposedTime = nil
			return noOpeningReply(requested), false
		}
		alt = alt.In(c.location())
		cc.RequestedTime = &alt
		c.propose(cc, alt, log)
		return alternativeReply(requested, alt), false
	}

	awaitingSameTime := cc.AwaitingConfirmation() && cc.ProposedTime != nil && cc.ProposedTime.Equal(requested)
	if !awaitingSameTime {
		c.propose(cc, requested, log)
		return proposalReply(cc.Service, requested), false
	}
	if !intent.BookingConfirmed {
		return reply, false
	}

	rec, err := c.Committer.Commit(ctx, booking.CommitRequest{
		CallID:   cc.CallID,
		Name:     deref(cc.CallerName),
		Service:  deref(cc.Service),
		Start:    requested,
		Duration: c.Duration,
	})
	if err != nil {
		log.Error("commit failed", zap.Error(err))
		c.move(cc, models.StateCollecting, log)
		cc.ProposedTime = nil
		return commitFailedReply, false
	}

	cc.BookingRef = rec.ID
	cc.ConfirmCode = rec.ConfirmationCode
	c.move(cc, models.StateBooked, log)
	return confirmationReply(cc.CallerName, cc.Service, requested, cc.ConfirmCode), true
}

func (c *Controller) propose(cc *models.CallContext, at time.Time, log *zap.Logger) {
	c.move(cc, models.StateProposing, log)
	t := at
	cc.ProposedTime = &t
	c.move(cc, models.StateAwaitingConfirmation, log)
}

func (c *Controller) move(cc *models.CallContext, next models.DialogueState, log *zap.Logger) {
	prev := cc.State
	if err := cc.Transition(next); err != nil {
		log.Error("dialogue transition rejected", zap.Error(err))
		return
	}
	if prev != next {
		log.Debug("dialogue state", zap.String("from", string(prev)), zap.String("to", string(next)))
	}
}

func (c *Controller) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c *Controller) step() time.Duration {
	if c.Step <= 0 {
		return booking.DefaultSearchStep
	}
	return c.Step
}

func (c *Controller) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// changedBooking reports whether the slots now on file describe a different appointment
// than the one already booked.
func changedBooking(bookedService *string, bookedTime *time.Time, service *string, requested *time.Time) bool {
	if service != nil && (bookedService == nil || *service != *bookedService) {
		return true
	}
	if requested != nil && (bookedTime == nil || !requested.Equal(*bookedTime)) {
		return true
	}
	return false
}

const commitFailedReply = "I'm sorry, I couldn't save that booking just now. Could we try again or pick another time?"

func proposalReply(service *string, at time.Time) string {
	if s := deref(service); s != "" {
		return fmt.Sprintf("I can book your %s for %s. Shall I confirm?", s, ai.SpokenTime(at))
	}
	return fmt.Sprintf("I can book you for %s. Shall I confirm?", ai.SpokenTime(at))
}

func alternativeReply(requested, alt time.Time) string {
	return fmt.Sprintf("Sorry, %s is already taken. The next opening is %s. Would that work for you?",
		ai.SpokenTime(requested), ai.SpokenTime(alt))
}

func noOpeningReply(requested time.Time) string {
	return fmt.Sprintf("Sorry, %s is taken and I couldn't find an opening shortly after. What other time works for you?",
		ai.SpokenTime(requested))
}

func confirmationReply(name, service *string, at time.Time, code string) string {
	var sb strings.Builder
	sb.WriteString("You're all set")
	if n := deref(name); n != "" {
		sb.WriteString(", " + n)
	}
	sb.WriteString("! ")
	if s := deref(service); s != "" {
		fmt.Fprintf(&sb, "Your %s is booked for %s.", s, ai.SpokenTime(at))
	} else {
		fmt.Fprintf(&sb, "You're booked for %s.", ai.SpokenTime(at))
	}
	if code != "" {
		fmt.Fprintf(&sb, " Your confirmation code is %s.", code)
	}
	return sb.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
