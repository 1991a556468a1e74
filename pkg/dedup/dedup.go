package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/srand/hookd/pkg/log"
)

const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Header identifying a delivery, unless configured otherwise.
const DefaultHeader = "X-GitHub-Delivery"

const (
	DefaultTTL  = time.Hour
	DefaultSize = 10000
)

// Records webhook deliveries so that retransmissions are only executed once.
type Store interface {
	// Record a delivery and its request body.
	// Returns false if the key was already recorded and has not expired.
	Record(ctx context.Context, key string, body []byte) (bool, error)

	// Forget a recorded delivery, so that it is accepted again.
	Forget(ctx context.Context, key string) error

	Close() error
}

type Config struct {
	// One of none, memory or redis.
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Redis connection URL, redis://[user:password@]host:port/db
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`

	// How long deliveries are remembered.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// Request header carrying the delivery id.
	Header string `mapstructure:"header" yaml:"header"`

	// Maximum number of deliveries remembered by the memory backend.
	Size int `mapstructure:"size" yaml:"size"`
}

func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendNone
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Header == "" {
		c.Header = DefaultHeader
	}
	if c.Size <= 0 {
		c.Size = DefaultSize
	}
}

func (c *Config) Log() {
	log.Info("Deduplication backend:", c.Backend)
	if c.Backend != BackendNone {
		log.Info("  header:", c.Header)
		log.Info("  ttl:", c.TTL)
	}
}

// Create the store selected by the configuration.
func NewStore(config Config) (Store, error) {
	config.SetDefaults()

	switch config.Backend {
	case BackendNone:
		return NewNopStore(), nil
	case BackendMemory:
		return NewMemoryStore(config.Size, config.TTL), nil
	case BackendRedis:
		return NewRedisStore(config.RedisURL, config.TTL)
	default:
		return nil, fmt.Errorf("unknown deduplication backend: %s", config.Backend)
	}
}

// Returns the store key of a delivery to a webhook.
func Key(webhook, delivery string) string {
	return fmt.Sprintf("hookd:%s:%s", webhook, delivery)
}

type nopStore struct{}

// Returns a store that never reports duplicates.
func NewNopStore() Store {
	return nopStore{}
}

func (nopStore) Record(context.Context, string, []byte) (bool, error) {
	return true, nil
}

func (nopStore) Forget(context.Context, string) error {
	return nil
}

func (nopStore) Close() error {
	return nil
}
