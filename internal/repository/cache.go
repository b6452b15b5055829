package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const (
	cartKeyPrefix  = "cart:"
	defaultCartTTL = 24 * time.Hour
)

// NewRedisClient builds a client from config without connecting.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisCartCache implements CartCache using Redis. Each cart is one JSON
// value under cart:<user id> and its TTL is refreshed on every write.
type RedisCartCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

func NewRedisCartCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisCartCache {
	if ttl == 0 {
		ttl = defaultCartTTL
	}
	return &RedisCartCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns ErrCacheMiss when the user has no cached cart.
func (c *RedisCartCache) Get(ctx context.Context, userID string) ([]models.CartLine, error) {
	data, err := c.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Cache miss", logging.Fields{"user_id": userID})
		return nil, ErrCacheMiss
	}
	if err != nil {
		c.logger.Error("Cache get error", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var lines []models.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	c.logger.Debug("Cache hit", logging.Fields{"user_id": userID, "lines": len(lines)})
	return lines, nil
}

// Set stores lines. An empty cart deletes the key instead.
func (c *RedisCartCache) Set(ctx context.Context, userID string, lines []models.CartLine) error {
	if len(lines) == 0 {
		return c.Delete(ctx, userID)
	}

	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := c.client.Set(ctx, cartKey(userID), data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *RedisCartCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (c *RedisCartCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func cartKey(userID string) string {
	return cartKeyPrefix + userID
}
