// Package cartstore provides domain.CartStore implementations backed by Redis
// and by process memory.
package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis client methods used by RedisStore.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisConfig holds connection and key settings for RedisStore.
type RedisConfig struct {
	Address  string
	Password string
	DB       int

	// Prefix is prepended to the customer id to form the key, e.g. "cart:".
	Prefix string

	// TTL expires idle carts. Zero keeps carts forever.
	TTL time.Duration
}

// RedisStore keeps one JSON-encoded cart per customer key.
type RedisStore struct {
	cfg    RedisConfig
	client RedisClient
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts := &redis.Options{
		Addr: cfg.Address,
		DB:   cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cartstore: redis ping %s: %w", cfg.Address, err)
	}

	return NewRedisStoreWithClient(cfg, client), nil
}

// NewRedisStoreWithClient creates a RedisStore over an existing client.
func NewRedisStoreWithClient(cfg RedisConfig, client RedisClient) *RedisStore {
	return &RedisStore{cfg: cfg, client: client}
}

// Get returns the stored cart, or nil when the key does not exist.
func (s *RedisStore) Get(ctx context.Context, customerID int64) (*domain.Cart, error) {
	raw, err := s.client.Get(ctx, s.key(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cartstore: get cart %d: %w", customerID, err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, domain.Internal(err, "cartstore.get", "stored cart is not valid JSON")
	}
	cart.CustomerID = customerID
	return &cart, nil
}

// Put replaces the stored cart. A nil cart deletes the key.
func (s *RedisStore) Put(ctx context.Context, customerID int64, cart *domain.Cart) error {
	key := s.key(customerID)
	if cart == nil {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("cartstore: delete cart %d: %w", customerID, err)
		}
		return nil
	}

	raw, err := json.Marshal(cart)
	if err != nil {
		return domain.Internal(err, "cartstore.put", "failed to encode cart")
	}
	if err := s.client.Set(ctx, key, raw, s.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("cartstore: put cart %d: %w", customerID, err)
	}
	return nil
}

// Ping checks the Redis connection for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(customerID int64) string {
	return s.cfg.Prefix + strconv.FormatInt(customerID, 10)
}
