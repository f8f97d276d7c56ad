package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"notesync/metrics"
)

// ErrCacheInvalidation marks a failed eviction. A write that hits it has
// committed to the store but may leave a stale cache entry behind.
var ErrCacheInvalidation = errors.New("cache invalidation failed")

type cacheEnvelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// NoteCache is the read-through cache manager. Reads degrade to a miss on
// any backend problem; deletes are retried and then reported.
type NoteCache struct {
	backend Cache
	logger  *slog.Logger
	now     func() time.Time

	retries int
	backoff time.Duration
}

func NewNoteCache(backend Cache, logger *slog.Logger) *NoteCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteCache{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		retries: 3,
		backoff: 100 * time.Millisecond,
	}
}

// WithRetry sets the number of delete attempts and the base backoff.
func (c *NoteCache) WithRetry(attempts int, backoff time.Duration) *NoteCache {
	if attempts < 1 {
		attempts = 1
	}
	c.retries = attempts
	c.backoff = backoff
	return c
}

// WithClock replaces the time source used for envelope expiry.
func (c *NoteCache) WithClock(now func() time.Time) *NoteCache {
	c.now = now
	return c
}

// Get decodes the entry at key into dst and reports whether it was a hit.
func (c *NoteCache) Get(ctx context.Context, key string, dst any) bool {
	data, err := c.backend.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		metrics.TrackCacheRequest("miss")
		return false
	}
	if err != nil {
		metrics.TrackCacheRequest("error")
		c.logger.Warn("cache read failed, falling back to store", "key", key, "error", err)
		return false
	}

	var env cacheEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.TrackCacheRequest("error")
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return false
	}
	if !env.ExpiresAt.IsZero() && !c.now().Before(env.ExpiresAt) {
		metrics.TrackCacheRequest("miss")
		return false
	}
	if err := json.Unmarshal(env.Value, dst); err != nil {
		metrics.TrackCacheRequest("error")
		c.logger.Warn("discarding undecodable cache value", "key", key, "error", err)
		return false
	}

	metrics.TrackCacheRequest("hit")
	return true
}

// Set overwrites key with value for ttl.
func (c *NoteCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	env := cacheEnvelope{Value: raw}
	if ttl > 0 {
		env.ExpiresAt = c.now().Add(ttl)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal cache envelope: %w", err)
	}

	return c.backend.Set(ctx, key, data, ttl)
}

func (c *NoteCache) Delete(ctx context.Context, key string) error {
	return c.DeleteMany(ctx, []string{key})
}

// DeleteMany evicts keys, retrying backend failures with a linear backoff.
// Absent keys are not an error, so repeating a call is harmless.
func (c *NoteCache) DeleteMany(ctx context.Context, keys []string) error {
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return nil
	}

	var err error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if err = c.backend.Delete(ctx, keys...); err == nil {
			metrics.TrackInvalidation("ok")
			return nil
		}
		c.logger.Warn("cache delete failed", "keys", len(keys), "attempt", attempt, "error", err)
		if attempt == c.retries {
			break
		}

		select {
		case <-ctx.Done():
			metrics.TrackInvalidation("error")
			return fmt.Errorf("%w: %w", ErrCacheInvalidation, ctx.Err())
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}

	metrics.TrackInvalidation("error")
	return fmt.Errorf("%w: %w", ErrCacheInvalidation, err)
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
