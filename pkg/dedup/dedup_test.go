package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "hookd:build:abc-123", Key("build", "abc-123"))
}

func TestConfigDefaults(t *testing.T) {
	config := Config{}
	config.SetDefaults()

	assert.Equal(t, BackendNone, config.Backend)
	assert.Equal(t, DefaultHeader, config.Header)
	assert.Equal(t, DefaultTTL, config.TTL)
	assert.Equal(t, DefaultSize, config.Size)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(Config{})
	assert.NoError(t, err)
	assert.IsType(t, nopStore{}, store)

	store, err = NewStore(Config{Backend: BackendMemory})
	assert.NoError(t, err)
	assert.IsType(t, &memoryStore{}, store)

	_, err = NewStore(Config{Backend: BackendRedis})
	assert.Error(t, err)

	_, err = NewStore(Config{Backend: "etcd"})
	assert.Error(t, err)
}

func TestNopStore(t *testing.T) {
	store := NewNopStore()
	for i := 0; i < 2; i++ {
		fresh, err := store.Record(context.Background(), "k", nil)
		assert.NoError(t, err)
		assert.True(t, fresh)
	}
	assert.NoError(t, store.Forget(context.Background(), "k"))
}

func TestMemoryStore(t *testing.T) {
	now := time.Now()
	store := NewMemoryStore(2, time.Minute)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	fresh, err := store.Record(ctx, "a", []byte("body-a"))
	assert.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.Record(ctx, "a", []byte("body-a"))
	assert.NoError(t, err)
	assert.False(t, fresh)

	body, ok := store.Body("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("body-a"), body)

	// Forgotten deliveries are accepted again
	assert.NoError(t, store.Forget(ctx, "a"))
	fresh, err = store.Record(ctx, "a", []byte("body-a"))
	assert.NoError(t, err)
	assert.True(t, fresh)

	// Unknown keys are ignored
	assert.NoError(t, store.Forget(ctx, "missing"))

	// Expired deliveries are accepted again
	now = now.Add(2 * time.Minute)
	fresh, err = store.Record(ctx, "a", nil)
	assert.NoError(t, err)
	assert.True(t, fresh)

	// Oldest delivery is forgotten when full
	store.Record(ctx, "b", nil)
	store.Record(ctx, "c", nil)
	assert.Equal(t, 2, store.Len())
	_, ok = store.Body("a")
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	server := miniredis.RunT(t)

	store, err := NewStore(Config{Backend: BackendRedis, RedisURL: "redis://" + server.Addr(), TTL: time.Minute})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	fresh, err := store.Record(ctx, Key("build", "1"), []byte(`{"parameters":{}}`))
	assert.NoError(t, err)
	assert.True(t, fresh)

	value, err := server.Get("hookd:build:1")
	assert.NoError(t, err)
	assert.Equal(t, `{"parameters":{}}`, value)
	assert.Equal(t, time.Minute, server.TTL("hookd:build:1"))

	fresh, err = store.Record(ctx, Key("build", "1"), nil)
	assert.NoError(t, err)
	assert.False(t, fresh)

	assert.NoError(t, store.Forget(ctx, Key("build", "1")))
	assert.False(t, server.Exists("hookd:build:1"))
	fresh, err = store.Record(ctx, Key("build", "1"), nil)
	assert.NoError(t, err)
	assert.True(t, fresh)

	server.FastForward(2 * time.Minute)
	fresh, err = store.Record(ctx, Key("build", "1"), nil)
	assert.NoError(t, err)
	assert.True(t, fresh)
}

func TestRedisStoreInvalidUrl(t *testing.T) {
	_, err := NewRedisStore("http://localhost", time.Minute)
	assert.Error(t, err)
}

func TestRedisStoreUnavailable(t *testing.T) {
	server := miniredis.RunT(t)
	store, err := NewRedisStore("redis://"+server.Addr(), time.Minute)
	require.NoError(t, err)
	defer store.Close()

	server.Close()

	_, err = store.Record(context.Background(), "k", nil)
	assert.Error(t, err)
}
