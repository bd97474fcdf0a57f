package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"freshfade/models"

	"go.uber.org/zap"
)

// ApologyReply is spoken when the language model cannot be reached.
const ApologyReply = "I'm sorry, I'm having a little trouble right now. Could you say that again?"

// IntentExtractor turns an utterance into a reply plus structured booking intent and merges
// what it learned into the caller's context.
type IntentExtractor struct {
	client      NLUClient
	store       ContextStore
	instruction string
	location    *time.Location
	timeout     time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

type ExtractorOptions struct {
	BusinessName string
	Location     *time.Location
	Timeout      time.Duration // per NLU call; no deadline when zero
}

func NewIntentExtractor(client NLUClient, store ContextStore, opts ExtractorOptions, logger *zap.Logger) *IntentExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &IntentExtractor{
		client:      client,
		store:       store,
		instruction: BuildInstruction(opts.BusinessName),
		location:    loc,
		timeout:     opts.Timeout,
		now:         time.Now,
		logger:      logger,
	}
}

// Extract runs one NLU round trip for callID. The returned reply is never empty.
func (e *IntentExtractor) Extract(ctx context.Context, callID, utterance string) (string, models.NLUOutcome) {
	cc, _ := e.store.GetOrCreate(callID)
	log := e.logger.With(zap.String("callID", callID))

	if e.client == nil {
		log.Warn("nlu unavailable", zap.Error(ErrNLUNotConfigured))
		return ApologyReply, models.UnavailableOutcome{Err: ErrNLUNotConfigured}
	}

	req := models.NLURequest{
		Instruction: e.instruction,
		Known:       cc.Known(),
		Utterance:   utterance,
		Now:         e.now().In(e.location),
		TimeZone:    e.location.String(),
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	raw, err := e.client.Complete(callCtx, req)
	if err != nil {
		log.Error("nlu call failed", zap.Error(err))
		return ApologyReply, models.UnavailableOutcome{Err: err}
	}

	outcome := ParseOutcome(raw, e.location)
	switch o := outcome.(type) {
	case models.StructuredOutcome:
		if o.Intent.RequestedTime != nil && o.Intent.ParsedTime == nil {
			log.Debug("dropping unparseable requested_time", zap.String("raw", *o.Intent.RequestedTime))
		}
		MergeIntent(cc, o.Intent)
		reply := strings.TrimSpace(o.Intent.Reply)
		if reply == "" {
			reply = ApologyReply
		}
		return reply, outcome
	case models.UnstructuredOutcome:
		log.Warn("nlu returned unstructured output", zap.Int("length", len(o.Raw)))
		reply := strings.TrimSpace(o.Raw)
		if reply == "" {
			reply = ApologyReply
		}
		return reply, outcome
	default:
		return ApologyReply, outcome
	}
}

// ParseOutcome decodes raw NLU text. Anything that is not a JSON object yields an
// UnstructuredOutcome carrying the raw text.
func ParseOutcome(raw string, loc *time.Location) models.NLUOutcome {
	body := stripCodeFence(raw)
	if !strings.HasPrefix(body, "{") {
		return models.UnstructuredOutcome{Raw: raw}
	}

	var intent models.Intent
	if err := json.Unmarshal([]byte(body), &intent); err != nil {
		return models.UnstructuredOutcome{Raw: raw}
	}

	if intent.RequestedTime != nil {
		if t, err := NormalizeTime(*intent.RequestedTime, loc); err == nil {
			intent.ParsedTime = &t
		}
	}
	return models.StructuredOutcome{Intent: intent}
}

// MergeIntent copies the fields the NLU returned into cc. Omitted, empty or unparseable
// fields leave the context untouched.
func MergeIntent(cc *models.CallContext, intent models.Intent) {
	if name := trimmed(intent.Name); name != nil {
		cc.CallerName = name
	}
	if service := trimmed(intent.Service); service != nil {
		lower := strings.ToLower(*service)
		cc.Service = &lower
	}
	if intent.ParsedTime != nil {
		t := *intent.ParsedTime
		cc.RequestedTime = &t
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// stripCodeFence removes a ```json ... ``` wrapper some models add around JSON.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
