package storage

import (
	"context"
	"errors"
)

// AudioStore hosts synthesized clips at a URL Twilio can fetch.
type AudioStore interface {
	Put(ctx context.Context, data []byte, contentType string) (url string, err error)
}

// ErrClipNotFound is returned for unknown or expired clip ids.
var ErrClipNotFound = errors.New("audio clip not found")
