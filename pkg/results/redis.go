package results

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	// Address is the Redis server address (e.g., "localhost:6379")
	Address string `yaml:"address"`

	// Password for Redis authentication (optional)
	Password string `yaml:"password"`

	// Database number to use (default: 0)
	Database int `yaml:"database"`

	// Prefix is prepended to all keys
	Prefix string `yaml:"prefix"`

	// TTL for record keys; 0 keeps them forever
	TTL time.Duration `yaml:"ttl"`

	// Timeout for Redis operations
	Timeout time.Duration `yaml:"timeout"`

	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig(address string) RedisConfig {
	return RedisConfig{
		Address:      address,
		Prefix:       "procmine:results:",
		Timeout:      5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// RedisBackend stores records as JSON strings plus a sorted-set index
// scored by creation time.
type RedisBackend struct {
	cfg    RedisConfig
	client redis.UniversalClient
}

// NewRedisBackend connects and pings the server.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
	b := NewRedisBackendWithClient(cfg, client)
	if err := b.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return b, nil
}

// NewRedisBackendWithClient wraps an existing client.
func NewRedisBackendWithClient(cfg RedisConfig, client redis.UniversalClient) *RedisBackend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &RedisBackend{cfg: cfg, client: client}
}

func (b *RedisBackend) key(id string) string {
	return b.cfg.Prefix + id
}

func (b *RedisBackend) indexKey() string {
	return b.cfg.Prefix + "index"
}

// Save stores the record and indexes it in one pipeline.
func (b *RedisBackend) Save(ctx context.Context, r *Record) error {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	pipe := b.client.TxPipeline()
	pipe.Set(ctx, b.key(r.ID), data, b.cfg.TTL)
	pipe.ZAdd(ctx, b.indexKey(), redis.Z{Score: float64(r.CreatedAt.UnixNano()), Member: r.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save result to Redis: %w", err)
	}
	return nil
}

// Load fetches a record.
func (b *RedisBackend) Load(ctx context.Context, id string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	data, err := b.client.Get(ctx, b.key(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load result from Redis: %w", err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &r, nil
}

// Delete removes the record and its index entry.
func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	pipe := b.client.TxPipeline()
	pipe.Del(ctx, b.key(id))
	pipe.ZRem(ctx, b.indexKey(), id)
	_, err := pipe.Exec(ctx)
	return err
}

// List walks the index newest first. Index entries whose record expired
// are pruned.
func (b *RedisBackend) List(ctx context.Context) ([]*Record, error) {
	ids, err := b.client.ZRevRange(ctx, b.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read result index: %w", err)
	}

	var records []*Record
	for _, id := range ids {
		r, err := b.Load(ctx, id)
		if stderrors.Is(err, ErrNotFound) {
			b.client.ZRem(ctx, b.indexKey(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// Name returns "redis".
func (b *RedisBackend) Name() string {
	return "redis"
}

// Ping checks the connection.
func (b *RedisBackend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()
	return b.client.Ping(ctx).Err()
}

// Close closes the connection.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
