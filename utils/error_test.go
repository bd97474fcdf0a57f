package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Logger = zap.NewNop()

	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/voice/turn", func(c *gin.Context) { panic("boom") })
	r.GET("/health", func(c *gin.Context) { panic("boom") })

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"voice route answers with TwiML", http.MethodPost, "/voice/turn", http.StatusOK, "<Hangup/>"},
		{"other routes answer with JSON", http.MethodGet, "/health", http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestCheckHealth_NoDependencies(t *testing.T) {
	status := CheckHealth(t.Context(), nil, nil)
	if status.Redis != nil || status.Mongo != nil {
		t.Errorf("unused dependencies reported: %+v", status)
	}
	if GetHealthStatus().CheckedAt.IsZero() {
		t.Error("snapshot not stored")
	}
}
