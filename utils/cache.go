package utils

import (
	"context"
	"fmt"
	"time"

	"freshfade/config"

	"github.com/go-redis/redis/v8"
)

// AudioCacheClient holds synthesized clips until Twilio has played them.
var AudioCacheClient *redis.Client

// InitAudioCache connects the Redis client used for audio clips.
func InitAudioCache() (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAudioDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (audio cache): %w", err)
	}
	AudioCacheClient = client
	return client, nil
}
