package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// VoiceApologyTwiML ends a call politely when a voice webhook cannot continue.
const VoiceApologyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response>` +
	`<Say voice="alice">We are sorry. An error has occurred. Please try again later.</Say><Hangup/></Response>`

// ErrorHandler is a middleware to catch panics and return structured errors. Voice webhooks
// get TwiML instead of JSON so the caller still hears something.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				if strings.HasPrefix(c.Request.URL.Path, "/voice") {
					c.Data(http.StatusOK, "text/xml", []byte(VoiceApologyTwiML))
					c.Abort()
					return
				}
				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}
