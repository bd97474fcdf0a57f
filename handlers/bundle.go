package handlers

import (
	"net/http"

	ai "freshfade/services/intelligence"
	"freshfade/utils"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Voice *VoiceHandler
	Audio *AudioHandler // nil when clips are hosted outside this service

	Store        ai.ContextStore
	BusinessName string
}

// HealthHandler reports liveness, active calls and the last dependency check.
func (hb *HandlerBundle) HealthHandler(c *gin.Context) {
	active := 0
	if hb.Store != nil {
		active = hb.Store.Len()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"message":      "Hi, I'm the " + hb.BusinessName + " receptionist",
		"activeCalls":  active,
		"dependencies": utils.GetHealthStatus(),
	})
}
