package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"freshfade/models"
	ai "freshfade/services/intelligence"
	"freshfade/services/notification"
	"freshfade/services/speech"
	"freshfade/services/storage"
	"freshfade/services/telephony"
	"freshfade/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TurnProcessor runs one dialogue turn.
type TurnProcessor interface {
	HandleTurn(ctx context.Context, in models.TurnInput) models.TurnResult
}

// RecordingSource downloads the caller's recorded utterance.
type RecordingSource interface {
	Fetch(ctx context.Context, recordingURL string) ([]byte, error)
}

// BookingNotifier schedules the caller's follow-up messages for a new booking.
type BookingNotifier interface {
	NotifyBooking(ctx context.Context, notice notification.BookingNotice) error
}

// VoiceHandler serves the Twilio voice webhooks.
type VoiceHandler struct {
	Dialogue    TurnProcessor
	Store       ai.ContextStore
	Recordings  RecordingSource
	Transcriber speech.Transcriber // nil: every turn has an empty utterance
	Synthesizer speech.Synthesizer // nil: the fallback clip, or Twilio's voice when there is none
	Audio       storage.AudioStore
	Notifier    BookingNotifier // nil: no SMS confirmations

	Record           telephony.RecordOptions
	BusinessName     string
	FallbackAudioURL string
	Location         *time.Location
	Logger           *zap.Logger
}

// Greeting is the first thing a caller hears.
func (h *VoiceHandler) Greeting() string {
	return fmt.Sprintf("Welcome to %s. How can I assist you today?", h.BusinessName)
}

// IncomingCallHandler answers a new call: greets and starts recording.
func (h *VoiceHandler) IncomingCallHandler(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	log := h.logger().With(zap.String("callID", callSid))
	if callSid == "" {
		log.Warn("incoming call without CallSid")
		h.hangUp(c, telephony.ApologyText)
		return
	}

	cc, _ := h.Store.GetOrCreate(callSid)
	greeting := h.Greeting()
	cc.LastReplyText = greeting
	log.Info("incoming call", zap.String("from", c.PostForm("From")))

	h.playAndRecord(c, h.speak(c.Request.Context(), greeting, log), greeting, cc.Snapshot(), log)
}

// TurnHandler processes the recording posted by the <Record> action.
func (h *VoiceHandler) TurnHandler(c *gin.Context) {
	ctx := c.Request.Context()
	callSid := c.PostForm("CallSid")
	log := h.logger().With(zap.String("callID", callSid))
	if callSid == "" {
		log.Warn("turn without CallSid")
		h.hangUp(c, telephony.ApologyText)
		return
	}

	h.restore(callSid, c.Query("state"), log)

	// No RecordingUrl means the caller stayed silent and the redirect after <Record> fired.
	var utterance string
	if recordingURL := c.PostForm("RecordingUrl"); recordingURL != "" {
		audio, err := h.Recordings.Fetch(ctx, recordingURL)
		if err != nil {
			log.Error("could not fetch recording", zap.Error(err))
			h.hangUp(c, telephony.ApologyText)
			return
		}
		utterance = h.transcribe(ctx, audio, log)
	} else {
		log.Info("no recording on this turn, treating as silence")
	}

	result := h.Dialogue.HandleTurn(ctx, models.TurnInput{CallID: callSid, Utterance: utterance})
	log.Info("turn handled",
		zap.String("utterance", utterance),
		zap.String("state", string(result.State)),
		zap.Bool("booked", result.Booked))

	if result.Booked {
		h.notifyBooking(ctx, c.PostForm("From"), result, log)
	}

	h.playAndRecord(c, h.speak(ctx, result.Reply, log), result.Reply, result.Snapshot, log)
}

// CallStatusHandler drops the call context once Twilio reports the call finished.
func (h *VoiceHandler) CallStatusHandler(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	status := c.PostForm("CallStatus")
	switch status {
	case "completed", "failed", "busy", "no-answer", "canceled":
		h.Store.Delete(callSid)
		h.logger().Info("call ended", zap.String("callID", callSid), zap.String("status", status))
	}
	c.Status(http.StatusNoContent)
}

// restore seeds a context the store lost (restart or eviction) from the state token.
func (h *VoiceHandler) restore(callSid, token string, log *zap.Logger) {
	cc, created := h.Store.GetOrCreate(callSid)
	if !created || token == "" {
		return
	}
	snap, err := telephony.DecodeState(token)
	if err != nil {
		log.Warn("ignoring state token", zap.Error(err))
		return
	}
	cc.Restore(snap)
	log.Info("call context restored from state token", zap.String("state", string(cc.State)))
}

func (h *VoiceHandler) transcribe(ctx context.Context, audio []byte, log *zap.Logger) string {
	if h.Transcriber == nil {
		return ""
	}
	text, err := h.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		log.Warn("transcription failed, continuing with empty utterance", zap.Error(err))
		return ""
	}
	return text
}

// speak synthesizes text and returns a URL Twilio can play. Any failure yields the
// fallback clip, which may be empty; the reply is then spoken with <Say>.
func (h *VoiceHandler) speak(ctx context.Context, text string, log *zap.Logger) string {
	if h.Synthesizer == nil || h.Audio == nil {
		return h.FallbackAudioURL
	}
	audio, contentType, err := h.Synthesizer.Synthesize(ctx, text)
	if err != nil {
		log.Warn("speech synthesis failed, playing fallback", zap.Error(err))
		return h.FallbackAudioURL
	}
	url, err := h.Audio.Put(ctx, audio, contentType)
	if err != nil {
		log.Warn("audio upload failed, playing fallback", zap.Error(err))
		return h.FallbackAudioURL
	}
	return url
}

func (h *VoiceHandler) notifyBooking(ctx context.Context, to string, result models.TurnResult, log *zap.Logger) {
	if h.Notifier == nil || to == "" || result.Snapshot.ProposedTime == nil {
		return
	}
	notice := notification.BookingNotice{
		To:       to,
		Business: h.BusinessName,
		Start:    result.Snapshot.ProposedTime.In(h.location()),
		Ref:      result.ConfirmCode,
	}
	if result.Snapshot.Service != nil {
		notice.Service = *result.Snapshot.Service
	}

	if err := h.Notifier.NotifyBooking(ctx, notice); err != nil {
		log.Warn("booking sms not scheduled", zap.Error(err))
	}
}

func (h *VoiceHandler) playAndRecord(c *gin.Context, audioURL, text string, snap models.ContextSnapshot, log *zap.Logger) {
	token, err := telephony.EncodeState(snap)
	if err != nil {
		log.Warn("state token not attached", zap.Error(err))
		token = ""
	}
	xml, err := telephony.Render(models.Instruction{
		Kind:       models.InstructionPlayAndRecord,
		AudioURL:   audioURL,
		Text:       text,
		StateToken: token,
	}, h.Record)
	if err != nil {
		log.Error("failed to render TwiML", zap.Error(err))
		h.hangUp(c, telephony.ApologyText)
		return
	}
	c.Data(http.StatusOK, "text/xml", []byte(xml))
}

func (h *VoiceHandler) hangUp(c *gin.Context, text string) {
	xml, err := telephony.Render(models.Instruction{Kind: models.InstructionSayAndHangup, Text: text}, h.Record)
	if err != nil {
		h.logger().Error("failed to render hangup TwiML", zap.Error(err))
		xml = utils.VoiceApologyTwiML
	}
	c.Data(http.StatusOK, "text/xml", []byte(xml))
}

func (h *VoiceHandler) location() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

func (h *VoiceHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
