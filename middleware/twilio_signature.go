package middleware

import (
	"net/http"
	"strings"

	"freshfade/utils"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"
	"go.uber.org/zap"
)

// TwilioSignatureMiddleware rejects webhook requests whose X-Twilio-Signature does not match.
// publicBaseURL is the externally visible origin Twilio signed against, since the request may
// arrive through a proxy with a different host.
func TwilioSignatureMiddleware(authToken, publicBaseURL string) gin.HandlerFunc {
	validator := client.NewRequestValidator(authToken)
	base := strings.TrimRight(publicBaseURL, "/")

	return func(c *gin.Context) {
		logger := utils.GetLogger()

		signature := c.GetHeader("X-Twilio-Signature")
		if signature == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Twilio signature"})
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid form body"})
			return
		}

		params := make(map[string]string, len(c.Request.PostForm))
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		fullURL := base + c.Request.URL.RequestURI()
		if !validator.Validate(fullURL, params, signature) {
			logger.Warn("Rejected webhook with invalid Twilio signature", zap.String("url", fullURL))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid signature"})
			return
		}
		c.Next()
	}
}
