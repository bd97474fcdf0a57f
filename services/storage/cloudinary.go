package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

type clipUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryAudioStore uploads clips to Cloudinary and hands out the secure delivery URL.
type CloudinaryAudioStore struct {
	uploader clipUploader
	folder   string
}

func NewCloudinaryAudioStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryAudioStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryAudioStore{uploader: &cld.Upload, folder: folder}, nil
}

// Put uploads data as an audio asset. Cloudinary files audio under the "video" resource type.
func (s *CloudinaryAudioStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty audio clip")
	}
	result, err := s.uploader.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     uuid.New().String(),
		Folder:       s.folder,
		ResourceType: "video",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload audio clip: %w", err)
	}
	if result == nil || result.Error.Message != "" {
		msg := "no result"
		if result != nil {
			msg = result.Error.Message
		}
		return "", fmt.Errorf("cloudinary rejected audio clip: %s", msg)
	}
	if result.SecureURL == "" {
		return "", errors.New("cloudinary returned no URL")
	}
	return result.SecureURL, nil
}
