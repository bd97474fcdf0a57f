package handlers

import (
	"context"
	"errors"
	"net/http"

	"freshfade/services/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClipSource returns stored audio clips by id.
type ClipSource interface {
	Get(ctx context.Context, id string) ([]byte, string, error)
}

// AudioHandler serves synthesized clips to Twilio's <Play> fetcher.
type AudioHandler struct {
	Clips  ClipSource
	Logger *zap.Logger
}

func (h *AudioHandler) GetClipHandler(c *gin.Context) {
	id := c.Param("id")
	data, contentType, err := h.Clips.Get(c.Request.Context(), id)
	if errors.Is(err, storage.ErrClipNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "clip not found"})
		return
	}
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("failed to load clip", zap.String("id", id), zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load clip"})
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, contentType, data)
}
