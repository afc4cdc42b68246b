package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// AudioCache stores narration audio by key. A missing key loads as nil, nil.
type AudioCache interface {
	LoadAudio(ctx context.Context, key string) ([]byte, error)
	StoreAudio(ctx context.Context, key string, audio []byte, ttl time.Duration) error
}

// RedisAudioCache keeps narration audio as raw bytes under the given key.
type RedisAudioCache struct {
	client *redis.Client
	logger *slog.Logger
}

var _ AudioCache = (*RedisAudioCache)(nil)

func NewRedisAudioCache(client *redis.Client, logger *slog.Logger) *RedisAudioCache {
	return &RedisAudioCache{
		client: client,
		logger: logger,
	}
}

func (c *RedisAudioCache) LoadAudio(ctx context.Context, key string) ([]byte, error) {
	audio, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load audio %s: %w", key, err)
	}
	c.logger.Debug("Loaded cached audio", "key", key, "bytes", len(audio))
	return audio, nil
}

func (c *RedisAudioCache) StoreAudio(ctx context.Context, key string, audio []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, audio, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store audio %s: %w", key, err)
	}
	return nil
}
