package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"freshfade/models"
)

func TestRender_PlayAndRecord(t *testing.T) {
	out, err := Render(models.Instruction{
		Kind:       models.InstructionPlayAndRecord,
		AudioURL:   "https://example.com/audio/abc",
		StateToken: "eyJzdCI6Ik5FVyJ9",
	}, RecordOptions{ActionURL: "https://example.com/voice/turn", MaxLength: 20})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		"<Play>https://example.com/audio/abc</Play>",
		`action="https://example.com/voice/turn?state=eyJzdCI6Ik5FVyJ9"`,
		`maxLength="20"`,
		`method="POST"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("TwiML missing %s:\n%s", want, out)
		}
	}
	if strings.Index(out, "<Play>") > strings.Index(out, "<Record") {
		t.Error("audio must play before recording starts")
	}
	redirect := `<Redirect method="POST">https://example.com/voice/turn?state=eyJzdCI6Ik5FVyJ9</Redirect>`
	if !strings.Contains(out, redirect) {
		t.Errorf("TwiML missing redirect for silent callers:\n%s", out)
	}
	if strings.Index(out, "<Record") > strings.Index(out, "<Redirect") {
		t.Error("redirect must follow the recording")
	}
}

func TestPlayAndRecord_SaysTextWithoutAudio(t *testing.T) {
	out, err := PlayAndRecord("", "What time works for you?", "https://example.com/voice/turn", RecordOptions{})
	if err != nil {
		t.Fatalf("PlayAndRecord: %v", err)
	}
	if strings.Contains(out, "<Play") {
		t.Errorf("nothing to play without an audio url:\n%s", out)
	}
	if !strings.Contains(out, "What time works for you?</Say>") || !strings.Contains(out, "<Record") {
		t.Errorf("expected the reply spoken then recorded:\n%s", out)
	}

	out, _ = PlayAndRecord("", " ", "https://example.com/voice/turn", RecordOptions{})
	if !strings.Contains(out, ApologyText) {
		t.Errorf("blank text should fall back to the apology:\n%s", out)
	}
}

func TestRender_SayAndHangup(t *testing.T) {
	out, err := Render(models.Instruction{Kind: models.InstructionSayAndHangup, Text: "Goodbye."}, RecordOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "Goodbye.</Say>") || !strings.Contains(out, "<Hangup") {
		t.Errorf("unexpected TwiML:\n%s", out)
	}

	out, _ = SayAndHangup("  ")
	if !strings.Contains(out, ApologyText) {
		t.Errorf("blank text should fall back to the apology:\n%s", out)
	}
}

func TestTurnActionURL(t *testing.T) {
	if got := TurnActionURL("https://example.com/voice/turn", ""); got != "https://example.com/voice/turn" {
		t.Errorf("got %q", got)
	}
	if got := TurnActionURL("https://example.com/voice/turn?state=old", "new"); got != "https://example.com/voice/turn?state=new" {
		t.Errorf("got %q", got)
	}
}

func TestStateToken_RoundTrip(t *testing.T) {
	name, service := "Sam", "haircut"
	at := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)
	in := models.ContextSnapshot{
		CallerName:    &name,
		Service:       &service,
		RequestedTime: &at,
		ProposedTime:  &at,
		State:         models.StateAwaitingConfirmation,
	}

	token, err := EncodeState(in)
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token is not URL safe: %s", token)
	}

	out, err := DecodeState(token)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if *out.CallerName != "Sam" || *out.Service != "haircut" || !out.ProposedTime.Equal(at) || out.State != in.State {
		t.Errorf("decoded %+v", out)
	}
}

func TestDecodeState_Invalid(t *testing.T) {
	for _, token := range []string{"%%%", "bm90LWpzb24", "eyJzdCI6IkRBTkNJTkcifQ"} {
		if _, err := DecodeState(token); err == nil {
			t.Errorf("DecodeState(%q) should fail", token)
		}
	}
	if s, err := DecodeState(""); err != nil || s.State != "" {
		t.Errorf("empty token: %+v, %v", s, err)
	}
}

func TestRecordingCandidates(t *testing.T) {
	got := RecordingCandidates("https://api.twilio.com/rec/RE1")
	want := []string{"https://api.twilio.com/rec/RE1.wav", "https://api.twilio.com/rec/RE1"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v", got)
	}
	for _, u := range got {
		if strings.HasSuffix(u, ".mp3") {
			t.Errorf("mp3 rendition must not be fetched: %v", got)
		}
	}
	if got := RecordingCandidates("https://x/RE1.wav"); len(got) != 1 || got[0] != "https://x/RE1.wav" {
		t.Errorf("explicit wav should be used as is: %v", got)
	}
	if got := RecordingCandidates("https://x/RE1.mp3"); len(got) != 1 || got[0] != "https://x/RE1.wav" {
		t.Errorf("explicit mp3 should be swapped for wav: %v", got)
	}
	if RecordingCandidates(" ") != nil {
		t.Error("blank url has no candidates")
	}
}

func TestRecordingFetcher_RetriesUntilAvailable(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC1" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		// The WAV rendition shows up on the third request.
		if atomic.AddInt32(&hits, 1) <= 2 || !strings.HasSuffix(r.URL.Path, ".wav") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("RIFF-data"))
	}))
	defer srv.Close()

	f := &RecordingFetcher{AccountSID: "AC1", AuthToken: "secret", Attempts: 3, Backoff: time.Millisecond, HTTPClient: srv.Client()}
	data, err := f.Fetch(context.Background(), srv.URL+"/RE1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "RIFF-data" {
		t.Errorf("data = %q", data)
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}

func TestRecordingFetcher_GivesUp(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := &RecordingFetcher{Attempts: 2, Backoff: time.Millisecond, HTTPClient: srv.Client()}
	if _, err := f.Fetch(context.Background(), srv.URL+"/RE1"); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&hits); n != 4 {
		t.Errorf("expected 2 attempts on each of 2 candidates, got %d requests", n)
	}

	if _, err := f.Fetch(context.Background(), ""); err != ErrNoCandidates {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
}

func TestRecordingFetcher_UnauthorizedNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := &RecordingFetcher{Attempts: 3, Backoff: time.Millisecond, HTTPClient: srv.Client()}
	if _, err := f.Fetch(context.Background(), srv.URL+"/RE1"); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("a 401 should be tried once per candidate, got %d requests", n)
	}
}

func TestLinearBackoff(t *testing.T) {
	if got := linearBackoff(time.Second, 3*time.Second, 0, nil); got != time.Second {
		t.Errorf("first wait = %v", got)
	}
	if got := linearBackoff(time.Second, 3*time.Second, 1, nil); got != 2*time.Second {
		t.Errorf("second wait = %v", got)
	}
	if got := linearBackoff(time.Second, 3*time.Second, 5, nil); got != 3*time.Second {
		t.Errorf("wait should be capped, got %v", got)
	}
}
