package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"notesync/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRedisCache(t *testing.T) (*miniredis.Miniredis, *NoteCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewNoteCache(NewRedisCacheFromClient(client), quietLogger())
}

// flakyCache fails the first `failures` calls of each operation.
type flakyCache struct {
	mu       sync.Mutex
	failures int
	getErr   error
	deletes  int
	deleted  [][]string
	stored   map[string][]byte
}

func (f *flakyCache) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if v, ok := f.stored[key]; ok {
		return v, nil
	}
	return nil, ErrCacheMiss
}

func (f *flakyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.stored == nil {
		f.stored = make(map[string][]byte)
	}
	f.stored[key] = value
	return nil
}

func (f *flakyCache) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deletes <= f.failures {
		return errors.New("connection reset")
	}
	f.deleted = append(f.deleted, keys)
	return nil
}

func TestNoteCacheRedisRoundTrip(t *testing.T) {
	mr, cache := setupRedisCache(t)
	ctx := context.Background()

	note := &model.Note{ID: "n1", UserID: "u1", Title: "Hi", Slug: "hi", Content: "body"}
	require.NoError(t, cache.Set(ctx, NoteKey("u1", "n1"), note, 5*time.Minute))

	assert.True(t, mr.Exists("note:u1:n1"))
	assert.Equal(t, 5*time.Minute, mr.TTL("note:u1:n1"))

	var got model.Note
	require.True(t, cache.Get(ctx, NoteKey("u1", "n1"), &got))
	assert.Equal(t, note.Title, got.Title)
	assert.Equal(t, note.Slug, got.Slug)

	var missing model.Note
	assert.False(t, cache.Get(ctx, NoteKey("u1", "other"), &missing))
}

func TestNoteCacheRedisExpiry(t *testing.T) {
	mr, cache := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Second))
	mr.FastForward(time.Second)

	var got string
	assert.False(t, cache.Get(ctx, "k", &got), "expired entry must be a miss")
}

func TestNoteCacheEnvelopeExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	// backend without TTL support, so only the envelope can expire the entry
	backend := &flakyCache{}
	cache := NewNoteCache(backend, quietLogger()).WithClock(clock)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Nanosecond))

	var got string
	require.True(t, cache.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)

	now = now.Add(time.Nanosecond)
	assert.False(t, cache.Get(ctx, "k", &got))
}

func TestMemoryCacheTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mc := NewMemoryCache().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "short", []byte("a"), time.Nanosecond))
	require.NoError(t, mc.Set(ctx, "forever", []byte("b"), 0))

	v, err := mc.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)

	now = now.Add(time.Nanosecond)
	_, err = mc.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	now = now.Add(24 * time.Hour)
	v, err = mc.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), v)
}

func TestNoteCacheGetDegradesOnBackendError(t *testing.T) {
	cache := NewNoteCache(&flakyCache{getErr: errors.New("dial tcp: refused")}, quietLogger())

	var got model.Note
	assert.False(t, cache.Get(context.Background(), "note:u:n", &got))
}

func TestNoteCacheGetDiscardsCorruptEntry(t *testing.T) {
	backend := &flakyCache{stored: map[string][]byte{"k": []byte("not json")}}
	cache := NewNoteCache(backend, quietLogger())

	var got string
	assert.False(t, cache.Get(context.Background(), "k", &got))
}

func TestNoteCacheDeleteManyRetries(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		backend := &flakyCache{failures: 2}
		cache := NewNoteCache(backend, quietLogger()).WithRetry(3, time.Millisecond)

		err := cache.DeleteMany(context.Background(), []string{"a", "b", "a"})
		require.NoError(t, err)
		assert.Equal(t, 3, backend.deletes)
		require.Len(t, backend.deleted, 1)
		assert.Equal(t, []string{"a", "b"}, backend.deleted[0])
	})

	t.Run("propagates persistent failure", func(t *testing.T) {
		backend := &flakyCache{failures: 10}
		cache := NewNoteCache(backend, quietLogger()).WithRetry(3, time.Millisecond)

		err := cache.DeleteMany(context.Background(), []string{"a"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCacheInvalidation)
		assert.Equal(t, 3, backend.deletes)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		backend := &flakyCache{failures: 10}
		cache := NewNoteCache(backend, quietLogger()).WithRetry(5, time.Hour)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := cache.DeleteMany(ctx, []string{"a"})
		assert.ErrorIs(t, err, ErrCacheInvalidation)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, backend.deletes)
	})

	t.Run("no keys is a no-op", func(t *testing.T) {
		backend := &flakyCache{failures: 10}
		cache := NewNoteCache(backend, quietLogger())

		require.NoError(t, cache.DeleteMany(context.Background(), nil))
		assert.Equal(t, 0, backend.deletes)
	})
}

func TestNoteCacheDeleteIsIdempotent(t *testing.T) {
	mr, cache := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, cache.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, cache.Set(ctx, "keep", 3, time.Minute))

	require.NoError(t, cache.DeleteMany(ctx, []string{"a", "b", "never-set"}))
	before := mr.Keys()

	require.NoError(t, cache.DeleteMany(ctx, []string{"a", "b", "never-set"}))
	assert.Equal(t, before, mr.Keys())
	assert.Equal(t, []string{"keep"}, mr.Keys())
}
