package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-redis/redis/v8"
)

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestRedisAudioStore_PutGet(t *testing.T) {
	rdb := newFakeRedis()
	store := NewRedisAudioStore(rdb, "https://receptionist.example.com/", 10*time.Minute)

	url, err := store.Put(context.Background(), []byte("ID3-audio"), "audio/mpeg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(url, "https://receptionist.example.com/audio/") {
		t.Fatalf("url = %q", url)
	}

	id := strings.TrimPrefix(url, "https://receptionist.example.com/audio/")
	if rdb.ttls[audioKeyPrefix+id] != 10*time.Minute {
		t.Errorf("ttl = %v", rdb.ttls[audioKeyPrefix+id])
	}

	data, contentType, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "ID3-audio" || contentType != "audio/mpeg" {
		t.Errorf("got %q (%s)", data, contentType)
	}
}

func TestRedisAudioStore_Errors(t *testing.T) {
	rdb := newFakeRedis()
	store := NewRedisAudioStore(rdb, "http://localhost:8080", 0)

	if _, _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrClipNotFound) {
		t.Errorf("expected ErrClipNotFound, got %v", err)
	}
	if _, err := store.Put(context.Background(), nil, "audio/mpeg"); err == nil {
		t.Error("expected error for an empty clip")
	}

	rdb.setErr = errors.New("connection refused")
	if _, err := store.Put(context.Background(), []byte("x"), ""); err == nil {
		t.Error("expected error when redis fails")
	}

	rdb.values[audioKeyPrefix+"bad"] = "no separator"
	if _, _, err := store.Get(context.Background(), "bad"); err == nil || errors.Is(err, ErrClipNotFound) {
		t.Errorf("expected corrupt clip error, got %v", err)
	}
}

func TestEncodeClip_DefaultContentType(t *testing.T) {
	contentType, data, ok := decodeClip(encodeClip("", []byte{0, 1, 2}))
	if !ok || contentType != "audio/mpeg" || len(data) != 3 || data[0] != 0 {
		t.Errorf("decoded %q %v %v", contentType, data, ok)
	}
}

type fakeUploader struct {
	uploadFunc func(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

func (f *fakeUploader) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	return f.uploadFunc(ctx, file, params)
}

func TestCloudinaryAudioStore_Put(t *testing.T) {
	var gotParams uploader.UploadParams
	var gotBody string
	store := &CloudinaryAudioStore{folder: "receptionist", uploader: &fakeUploader{
		uploadFunc: func(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
			gotParams = params
			b, _ := io.ReadAll(file.(io.Reader))
			gotBody = string(b)
			return &uploader.UploadResult{SecureURL: "https://res.cloudinary.com/demo/video/upload/clip.mp3"}, nil
		},
	}}

	url, err := store.Put(context.Background(), []byte("ID3-audio"), "audio/mpeg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://res.cloudinary.com/demo/video/upload/clip.mp3" {
		t.Errorf("url = %q", url)
	}
	if gotParams.ResourceType != "video" || gotParams.Folder != "receptionist" || gotParams.PublicID == "" {
		t.Errorf("params = %+v", gotParams)
	}
	if gotBody != "ID3-audio" {
		t.Errorf("uploaded %q", gotBody)
	}
}

func TestCloudinaryAudioStore_Rejected(t *testing.T) {
	store := &CloudinaryAudioStore{uploader: &fakeUploader{
		uploadFunc: func(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
			return &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid api_key"}}, nil
		},
	}}
	if _, err := store.Put(context.Background(), []byte("x"), "audio/mpeg"); err == nil || !strings.Contains(err.Error(), "Invalid api_key") {
		t.Errorf("expected rejection error, got %v", err)
	}
}
