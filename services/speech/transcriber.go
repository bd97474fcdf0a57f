package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stt "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Transcriber turns a recorded utterance into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// ErrEmptyRecording is returned for recordings with no audio payload.
var ErrEmptyRecording = errors.New("empty recording")

// GoogleTranscriber uses Google Cloud Speech-to-Text synchronous recognition.
type GoogleTranscriber struct {
	client   *stt.Client
	language string
	logger   *zap.Logger
}

func NewGoogleTranscriber(ctx context.Context, credentialsFile, language string, logger *zap.Logger) (*GoogleTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := stt.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	if language == "" {
		language = "en-US"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleTranscriber{client: client, language: language, logger: logger}, nil
}

// Transcribe returns the best transcript of audio. A recording with no speech gives "".
func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyRecording
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig(audio, g.language, g.logger),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		transcript.WriteString(result.Alternatives[0].Transcript)
		transcript.WriteString(" ")
	}
	return strings.TrimSpace(transcript.String()), nil
}

func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}

// recognitionConfig describes the audio from its WAV header. Twilio recordings are 8 kHz mono
// PCM; anything without a readable header is left for the service to detect.
func recognitionConfig(audio []byte, language string, logger *zap.Logger) *speechpb.RecognitionConfig {
	cfg := &speechpb.RecognitionConfig{
		LanguageCode: language,
		Model:        "phone_call",
	}
	header, err := parseWaveHeader(audio)
	if err != nil {
		logger.Debug("recording has no WAV header", zap.Error(err))
		cfg.Encoding = speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
		return cfg
	}
	if header.AudioFormat == 1 && header.BitsPerSample == 16 {
		cfg.Encoding = speechpb.RecognitionConfig_LINEAR16
	}
	cfg.SampleRateHertz = int32(header.SampleRate)
	cfg.AudioChannelCount = int32(header.NumChannels)
	return cfg
}
