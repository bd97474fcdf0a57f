package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haguro/elevenlabs-go"
)

// Synthesizer turns reply text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (audio []byte, contentType string, err error)
}

type textToSpeechFunc func(ctx context.Context, voiceID string, req elevenlabs.TextToSpeechRequest) ([]byte, error)

// ElevenLabsSynthesizer calls the ElevenLabs text-to-speech API.
type ElevenLabsSynthesizer struct {
	APIKey  string
	VoiceID string
	Timeout time.Duration // per request; 15s when zero

	textToSpeech textToSpeechFunc
}

// NewElevenLabsSynthesizer returns a synthesizer speaking with voiceID.
func NewElevenLabsSynthesizer(apiKey, voiceID string, timeout time.Duration) *ElevenLabsSynthesizer {
	return &ElevenLabsSynthesizer{APIKey: apiKey, VoiceID: voiceID, Timeout: timeout}
}

// Synthesize returns mp3 audio for text.
func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if s.APIKey == "" {
		return nil, "", fmt.Errorf("elevenlabs api key not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("nothing to synthesize")
	}

	tts := s.textToSpeech
	if tts == nil {
		tts = s.callAPI
	}
	audio, err := tts(ctx, s.VoiceID, elevenlabs.TextToSpeechRequest{
		Text: text,
		VoiceSettings: &elevenlabs.VoiceSettings{
			Stability:       0.4,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("tts request failed: %w", err)
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("tts returned no audio")
	}
	return audio, "audio/mpeg", nil
}

// callAPI builds a client per request so the caller's context bounds the call.
func (s *ElevenLabsSynthesizer) callAPI(ctx context.Context, voiceID string, req elevenlabs.TextToSpeechRequest) ([]byte, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return elevenlabs.NewClient(ctx, s.APIKey, timeout).TextToSpeech(voiceID, req)
}
