package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
	"github.com/jwebster45206/story-adventure/pkg/storage"
)

const (
	adventureKeyPrefix = "adventure:"
	lockKeyPrefix      = "adventure-lock:"
)

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisStorage keeps each adventure as a JSON blob with a sliding TTL.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	ttl     time.Duration
	lockTTL time.Duration
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(client *redis.Client, ttl, lockTTL time.Duration, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{
		client:  client,
		logger:  logger,
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Adventure operations

func (r *RedisStorage) SaveAdventure(ctx context.Context, a *adventure.Adventure) error {
	if a == nil {
		return errors.New("adventure cannot be nil")
	}
	a.UpdatedAt = time.Now()

	data, err := json.Marshal(a)
	if err != nil {
		r.logger.Error("Failed to marshal adventure", "adventure_id", a.ID, "error", err)
		return fmt.Errorf("failed to marshal adventure: %w", err)
	}

	if err := r.client.Set(ctx, adventureKeyPrefix+a.ID.String(), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save adventure", "adventure_id", a.ID, "error", err)
		return fmt.Errorf("failed to save adventure: %w", err)
	}

	r.logger.Debug("Adventure saved", "adventure_id", a.ID, "bytes", len(data), "nodes", len(a.StoryTree))
	return nil
}

func (r *RedisStorage) LoadAdventure(ctx context.Context, id uuid.UUID) (*adventure.Adventure, error) {
	data, err := r.client.Get(ctx, adventureKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load adventure", "adventure_id", id, "error", err)
		return nil, fmt.Errorf("failed to load adventure: %w", err)
	}

	var a adventure.Adventure
	if err := json.Unmarshal(data, &a); err != nil {
		r.logger.Error("Failed to unmarshal adventure", "adventure_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal adventure: %w", err)
	}
	return &a, nil
}

func (r *RedisStorage) DeleteAdventure(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, adventureKeyPrefix+id.String()).Err(); err != nil {
		r.logger.Error("Failed to delete adventure", "adventure_id", id, "error", err)
		return fmt.Errorf("failed to delete adventure: %w", err)
	}
	return nil
}

// Lock operations

func (r *RedisStorage) TryLock(ctx context.Context, id uuid.UUID) (string, bool, error) {
	token := uuid.New().String()
	ok, err := r.client.SetNX(ctx, lockKeyPrefix+id.String(), token, r.lockTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (r *RedisStorage) Unlock(ctx context.Context, id uuid.UUID, token string) error {
	n, err := releaseScript.Run(ctx, r.client, []string{lockKeyPrefix + id.String()}, token).Int()
	if err != nil {
		r.logger.Error("Failed to release adventure lock", "adventure_id", id, "error", err)
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if n == 0 {
		return storage.ErrLockNotHeld
	}
	return nil
}

func (r *RedisStorage) IsLocked(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.client.Exists(ctx, lockKeyPrefix+id.String()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check lock: %w", err)
	}
	return n > 0, nil
}
