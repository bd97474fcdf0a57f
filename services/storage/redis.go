package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const audioKeyPrefix = "audio:"

// redisClient is the subset of *redis.Client used for clips.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisAudioStore keeps clips in Redis for ttl and serves them from BaseURL/audio/<id>.
type RedisAudioStore struct {
	client  redisClient
	baseURL string
	ttl     time.Duration
}

func NewRedisAudioStore(client redisClient, publicBaseURL string, ttl time.Duration) *RedisAudioStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisAudioStore{
		client:  client,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		ttl:     ttl,
	}
}

// Put stores data under a fresh id and returns its public URL.
func (s *RedisAudioStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty audio clip")
	}
	id := uuid.New().String()
	if err := s.client.Set(ctx, audioKeyPrefix+id, encodeClip(contentType, data), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store audio clip: %w", err)
	}
	return s.baseURL + "/audio/" + id, nil
}

// Get returns a stored clip and its content type.
func (s *RedisAudioStore) Get(ctx context.Context, id string) ([]byte, string, error) {
	raw, err := s.client.Get(ctx, audioKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, "", ErrClipNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load audio clip: %w", err)
	}
	contentType, data, ok := decodeClip(raw)
	if !ok {
		return nil, "", fmt.Errorf("corrupt audio clip %s", id)
	}
	return data, contentType, nil
}

// A clip is stored as "<content-type>\x00<bytes>".
func encodeClip(contentType string, data []byte) []byte {
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	out := make([]byte, 0, len(contentType)+1+len(data))
	out = append(out, contentType...)
	out = append(out, 0)
	return append(out, data...)
}

func decodeClip(raw []byte) (string, []byte, bool) {
	i := bytes.IndexByte(raw, 0)
	if i <= 0 {
		return "", nil, false
	}
	return string(raw[:i]), raw[i+1:], true
}
