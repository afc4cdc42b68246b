package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

const narrationKeyPrefix = "narration:"

// CachedNarrator reuses audio for text it has already narrated.
// Cache errors are logged and fall through to the wrapped narrator.
type CachedNarrator struct {
	next   Narrator
	cache  AudioCache
	ttl    time.Duration
	logger *slog.Logger
}

var _ Narrator = (*CachedNarrator)(nil)

func NewCachedNarrator(next Narrator, cache AudioCache, ttl time.Duration, logger *slog.Logger) *CachedNarrator {
	return &CachedNarrator{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// NarrationKey is the cache key for a piece of text.
func NarrationKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return narrationKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedNarrator) Synthesize(ctx context.Context, text string) ([]byte, error) {
	key := NarrationKey(text)

	if audio, err := c.cache.LoadAudio(ctx, key); err != nil {
		c.logger.Warn("Narration cache read failed", "error", err)
	} else if len(audio) > 0 {
		c.logger.Debug("Narration cache hit", "key", key)
		return audio, nil
	}

	audio, err := c.next.Synthesize(ctx, text)
	if err != nil || len(audio) == 0 {
		return audio, err
	}

	if err := c.cache.StoreAudio(ctx, key, audio, c.ttl); err != nil {
		c.logger.Warn("Narration cache write failed", "error", err)
	}
	return audio, nil
}
