package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// sign computes the signature Twilio sends for a form POST.
func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(fullURL)
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(sb.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newSignedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/voice/turn", TwilioSignatureMiddleware("secret", "https://receptionist.example.com/"), func(c *gin.Context) {
		c.String(http.StatusOK, c.PostForm("CallSid"))
	})
	return r
}

func TestTwilioSignatureMiddleware(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}, "RecordingUrl": {"https://api.twilio.com/rec/RE1"}}
	target := "/voice/turn?state=abc"
	valid := sign("secret", "https://receptionist.example.com"+target, form)

	tests := []struct {
		name      string
		signature string
		want      int
	}{
		{name: "valid signature", signature: valid, want: http.StatusOK},
		{name: "missing signature", signature: "", want: http.StatusUnauthorized},
		{name: "wrong signature", signature: sign("other", "https://receptionist.example.com"+target, form), want: http.StatusForbidden},
	}

	r := newSignedRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.signature != "" {
				req.Header.Set("X-Twilio-Signature", tt.signature)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK && w.Body.String() != "CA1" {
				t.Errorf("form not available downstream: %q", w.Body.String())
			}
		})
	}
}
