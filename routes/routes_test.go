package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"freshfade/handlers"

	"github.com/gin-gonic/gin"
)

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	hb := &handlers.HandlerBundle{
		Voice:        &handlers.VoiceHandler{},
		Audio:        &handlers.AudioHandler{},
		BusinessName: "Fresh Fade Barbershop",
	}
	RegisterRoutes(r, hb, Options{StaticDir: t.TempDir()})

	want := map[string]bool{
		"POST /voice":        false,
		"POST /voice/turn":   false,
		"POST /voice/status": false,
		"GET /audio/:id":     false,
		"GET /health":        false,
		"GET /":              false,
	}
	for _, ri := range r.Routes() {
		key := ri.Method + " " + ri.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, found := range want {
		if !found {
			t.Errorf("route %s not registered", route)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health status %d", w.Code)
	}
}

func TestRegisterRoutes_SignatureRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	hb := &handlers.HandlerBundle{Voice: &handlers.VoiceHandler{}}
	RegisterRoutes(r, hb, Options{
		ValidateSignature: true,
		TwilioAuthToken:   "secret",
		PublicBaseURL:     "https://receptionist.example.com",
		StaticDir:         t.TempDir(),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/voice", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unsigned webhook got %d", w.Code)
	}
}

func TestRegisterRoutes_ServesFallbackClip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sorry.mp3"), []byte("ID3clip"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	RegisterRoutes(r, &handlers.HandlerBundle{Voice: &handlers.VoiceHandler{}}, Options{StaticDir: dir})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/sorry.mp3", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ID3clip" {
		t.Errorf("clip status %d body %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/missing.mp3", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing clip status %d", w.Code)
	}
}
