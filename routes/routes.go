package routes

import (
	"time"

	"freshfade/handlers"
	"freshfade/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options carries the route-level settings that come from configuration.
type Options struct {
	ValidateSignature bool
	TwilioAuthToken   string
	PublicBaseURL     string
	StaticDir         string
}

// RegisterVoiceRoutes registers the Twilio voice webhooks.
func RegisterVoiceRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	voice := r.Group("/voice")
	{
		if opts.ValidateSignature {
			voice.Use(middleware.TwilioSignatureMiddleware(opts.TwilioAuthToken, opts.PublicBaseURL))
		}
		voice.POST("", hb.Voice.IncomingCallHandler)
		voice.POST("/turn", hb.Voice.TurnHandler)
		voice.POST("/status", hb.Voice.CallStatusHandler)
	}
}

// RegisterAudioRoutes serves synthesized clips and the static fallback assets.
func RegisterAudioRoutes(r gin.IRouter, hb *handlers.HandlerBundle, opts Options) {
	if hb.Audio != nil {
		r.GET("/audio/:id", hb.Audio.GetClipHandler)
	}
	staticDir := opts.StaticDir
	if staticDir == "" {
		staticDir = "./static"
	}
	r.Static("/static", staticDir)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r gin.IRouter, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
	r.GET("/", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Twilio-Signature"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterVoiceRoutes(r, hb, opts)
	RegisterAudioRoutes(r, hb, opts)
	RegisterHealthRoute(r, hb)
}
