package config

import "testing"

func TestFallbackAudioURL(t *testing.T) {
	c := Config{PublicBaseURL: "https://example.com"}
	if got := c.FallbackAudioURL(); got != "" {
		t.Errorf("no clip configured, got %q", got)
	}
	c.FallbackAudioPath = "/static/sorry.mp3"
	if got := c.FallbackAudioURL(); got != "https://example.com/static/sorry.mp3" {
		t.Errorf("got %q", got)
	}
}
