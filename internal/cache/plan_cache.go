// Package cache memoizes computed plans in Redis, keyed by the fingerprint of
// the inputs that produced them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	planKeyPrefix  = "planner:plan:"
	defaultPlanTTL = 5 * time.Minute
	pingTimeout    = 5 * time.Second
	// keys fetched per SCAN round and removed per DEL call
	invalidateBatch = 100
)

// PlanCache stores JSON-encoded plan results. Implementations must treat a
// miss and a disabled cache the same way.
type PlanCache interface {
	Get(ctx context.Context, fingerprint string, dst any) (bool, error)
	Set(ctx context.Context, fingerprint string, value any) error
	InvalidateAll(ctx context.Context) error
}

type redisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPlanCache struct{}

// NewPlanCache connects to Redis when caching is enabled. A failed connection
// is logged and degrades to the no-op cache; planning never depends on Redis.
func NewPlanCache(cfg config.CacheConfig) PlanCache {
	if !cfg.Enabled {
		return NewNoopPlanCache()
	}

	c, err := dialPlanCache(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Plan cache disabled")
		return NewNoopPlanCache()
	}
	log.Info().Str("addr", c.client.Options().Addr).Dur("ttl", c.ttl).Msg("Plan cache enabled")
	return c
}

func NewNoopPlanCache() PlanCache {
	return &noopPlanCache{}
}

func dialPlanCache(cfg config.CacheConfig) (*redisPlanCache, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", opts.Addr, err)
	}

	ttl := time.Duration(cfg.PlanTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultPlanTTL
	}
	return &redisPlanCache{client: client, ttl: ttl}, nil
}

// redisOptions prefers REDIS_URL and otherwise builds the address from host
// and port, falling back to a local server.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func planKey(fingerprint string) string {
	return planKeyPrefix + fingerprint
}

func (c *redisPlanCache) Get(ctx context.Context, fingerprint string, dst any) (bool, error) {
	payload, err := c.client.Get(ctx, planKey(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode plan cache: %w", err)
	}
	return true, nil
}

func (c *redisPlanCache) Set(ctx context.Context, fingerprint string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode plan cache: %w", err)
	}

	if err := c.client.Set(ctx, planKey(fingerprint), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached plan. Keys are collected with SCAN so a
// large keyspace never blocks the server.
func (c *redisPlanCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, planKeyPrefix+"*", invalidateBatch).Iterator()
	batch := make([]string, 0, invalidateBatch)
	removed := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis delete failed: %w", err)
		}
		removed += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == invalidateBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}
	log.Debug().Int("keys", removed).Msg("Invalidated plan cache")
	return nil
}

func (n *noopPlanCache) Get(ctx context.Context, fingerprint string, dst any) (bool, error) {
	return false, nil
}

func (n *noopPlanCache) Set(ctx context.Context, fingerprint string, value any) error {
	return nil
}

func (n *noopPlanCache) InvalidateAll(ctx context.Context) error {
	return nil
}
