package telephony

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ErrNoCandidates is returned when no recording URL could be derived.
var ErrNoCandidates = errors.New("no recording url")

const maxRecordingSize = 10 * 1024 * 1024

// RecordingFetcher downloads Twilio recordings. Recordings may 404 for a moment after the
// Record action fires, so every candidate URL is retried with a linear backoff.
type RecordingFetcher struct {
	AccountSID string
	AuthToken  string
	Attempts   int           // per candidate; 3 when zero
	Backoff    time.Duration // delay unit between attempts; 500ms when zero
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Fetch returns the raw bytes of the recording at recordingURL.
func (f *RecordingFetcher) Fetch(ctx context.Context, recordingURL string) ([]byte, error) {
	candidates := RecordingCandidates(recordingURL)
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	client := f.retryClient()
	var lastErr error
	for _, candidate := range candidates {
		data, err := f.get(ctx, client, candidate)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		f.logger().Debug("recording candidate failed", zap.String("url", candidate), zap.Error(err))
	}
	return nil, fmt.Errorf("recording unavailable: %w", lastErr)
}

func (f *RecordingFetcher) get(ctx context.Context, client *retryablehttp.Client, u string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if f.AccountSID != "" && f.AuthToken != "" {
		req.SetBasicAuth(f.AccountSID, f.AuthToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordingSize))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty body")
	}
	return data, nil
}

func (f *RecordingFetcher) retryClient() *retryablehttp.Client {
	attempts := f.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := f.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = f.client()
	client.Logger = retryLogger{f.logger().Sugar()}
	client.RetryMax = attempts - 1
	client.RetryWaitMin = backoff
	client.RetryWaitMax = time.Duration(attempts) * backoff
	client.CheckRetry = retryMissingRecording
	client.Backoff = linearBackoff
	return client
}

// retryMissingRecording treats 404 as "not uploaded yet" on top of the default policy.
func retryMissingRecording(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err == nil && resp.StatusCode == http.StatusNotFound {
		return true, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func linearBackoff(min, max time.Duration, attemptNum int, _ *http.Response) time.Duration {
	wait := min * time.Duration(attemptNum+1)
	if wait > max {
		return max
	}
	return wait
}

func (f *RecordingFetcher) client() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (f *RecordingFetcher) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

// retryLogger routes retryablehttp's leveled logs into zap. Retries are routine here,
// so nothing is logged above warn.
type retryLogger struct {
	s *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.s.Warnw(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }

// RecordingCandidates lists the URLs to try for a recording, WAV first. Only WAV and the
// bare resource are tried: the bare URL serves WAV too, and the transcriber needs the
// header to read the sample rate.
func RecordingCandidates(recordingURL string) []string {
	base := strings.TrimSpace(recordingURL)
	if base == "" {
		return nil
	}
	switch {
	case strings.HasSuffix(base, ".wav"):
		return []string{base}
	case strings.HasSuffix(base, ".mp3"):
		return []string{strings.TrimSuffix(base, ".mp3") + ".wav"}
	}
	return []string{base + ".wav", base}
}
