package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/haguro/elevenlabs-go"
	"go.uber.org/zap"
)

// wavBytes builds a minimal PCM WAV file, optionally with a LIST chunk before fmt.
func wavBytes(sampleRate uint32, channels, bits uint16, withList bool) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(0))
	b.WriteString("WAVE")
	if withList {
		b.WriteString("LIST")
		binary.Write(&b, binary.LittleEndian, uint32(4))
		b.WriteString("INFO")
	}
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, channels)
	binary.Write(&b, binary.LittleEndian, sampleRate)
	binary.Write(&b, binary.LittleEndian, sampleRate*uint32(channels)*uint32(bits/8))
	binary.Write(&b, binary.LittleEndian, channels*(bits/8))
	binary.Write(&b, binary.LittleEndian, bits)
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(4))
	b.Write([]byte{0, 0, 0, 0})
	return b.Bytes()
}

func TestParseWaveHeader(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantRate uint32
		wantErr  bool
	}{
		{name: "twilio 8k mono", data: wavBytes(8000, 1, 16, false), wantRate: 8000},
		{name: "leading LIST chunk", data: wavBytes(16000, 1, 16, true), wantRate: 16000},
		{name: "mp3 bytes", data: []byte("ID3\x03\x00\x00\x00\x00\x00\x00"), wantErr: true},
		{name: "truncated", data: []byte("RIFF\x00\x00\x00\x00WAVE"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := parseWaveHeader(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", h)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.SampleRate != tt.wantRate || h.NumChannels != 1 || h.BitsPerSample != 16 {
				t.Errorf("header = %+v", h)
			}
		})
	}
}

func TestRecognitionConfig(t *testing.T) {
	cfg := recognitionConfig(wavBytes(8000, 1, 16, false), "en-US", zap.NewNop())
	if cfg.Encoding != speechpb.RecognitionConfig_LINEAR16 || cfg.SampleRateHertz != 8000 {
		t.Errorf("config = %v", cfg)
	}

	cfg = recognitionConfig([]byte("not audio"), "en-GB", zap.NewNop())
	if cfg.Encoding != speechpb.RecognitionConfig_ENCODING_UNSPECIFIED || cfg.SampleRateHertz != 0 {
		t.Errorf("config = %v", cfg)
	}
	if cfg.LanguageCode != "en-GB" {
		t.Errorf("language = %q", cfg.LanguageCode)
	}
}

func TestElevenLabsSynthesizer(t *testing.T) {
	var gotVoice string
	var got elevenlabs.TextToSpeechRequest
	s := NewElevenLabsSynthesizer("key", "voice-1", 0)
	s.textToSpeech = func(ctx context.Context, voiceID string, req elevenlabs.TextToSpeechRequest) ([]byte, error) {
		gotVoice, got = voiceID, req
		return []byte("ID3-audio"), nil
	}

	audio, contentType, err := s.Synthesize(context.Background(), "Hello there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(audio) != "ID3-audio" || contentType != "audio/mpeg" {
		t.Errorf("audio = %q, type = %q", audio, contentType)
	}
	if gotVoice != "voice-1" || got.Text != "Hello there" {
		t.Errorf("voice = %q, request = %+v", gotVoice, got)
	}
	if got.VoiceSettings == nil || got.VoiceSettings.Stability != 0.4 || got.VoiceSettings.SimilarityBoost != 0.75 {
		t.Errorf("voice settings = %+v", got.VoiceSettings)
	}
}

func TestElevenLabsSynthesizer_Errors(t *testing.T) {
	calls := 0
	s := NewElevenLabsSynthesizer("bad", "v", 0)
	s.textToSpeech = func(ctx context.Context, voiceID string, req elevenlabs.TextToSpeechRequest) ([]byte, error) {
		calls++
		return nil, errors.New("invalid api key")
	}
	if _, _, err := s.Synthesize(context.Background(), "Hello"); err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("expected api error, got %v", err)
	}

	s.textToSpeech = func(ctx context.Context, voiceID string, req elevenlabs.TextToSpeechRequest) ([]byte, error) {
		calls++
		return nil, nil
	}
	if _, _, err := s.Synthesize(context.Background(), "Hello"); err == nil {
		t.Error("expected error for empty audio")
	}

	if _, _, err := s.Synthesize(context.Background(), "  "); err == nil {
		t.Error("expected error for blank text")
	}
	noKey := &ElevenLabsSynthesizer{VoiceID: "v", textToSpeech: s.textToSpeech}
	if _, _, err := noKey.Synthesize(context.Background(), "Hello"); err == nil {
		t.Error("expected error without api key")
	}
	if calls != 2 {
		t.Errorf("blank text and a missing key must not reach the api, got %d calls", calls)
	}
}
