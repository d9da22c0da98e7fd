// Package cache provides a Redis-backed cache for per-user holdings
// listings. Entries are written on read and invalidated on every portfolio
// mutation, so a cached listing never outlives the state it was read from by
// more than the TTL.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stockfolio/stockfolio/pkg/models"
)

const holdingsKeyPrefix = "holdings:"

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// HoldingsCache caches holdings listings in Redis. Cache failures are logged
// and treated as misses; the store remains the source of truth.
type HoldingsCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*HoldingsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &HoldingsCache{client: client, logger: logger, ttl: ttl}, nil
}

func holdingsKey(userID uuid.UUID) string {
	return holdingsKeyPrefix + userID.String()
}

// GetHoldings returns the cached listing for a user, if present.
func (c *HoldingsCache) GetHoldings(ctx context.Context, userID uuid.UUID) ([]models.Position, bool) {
	raw, err := c.client.Get(ctx, holdingsKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("holdings cache read failed", zap.Error(err))
		return nil, false
	}

	var positions []models.Position
	if err := json.Unmarshal(raw, &positions); err != nil {
		c.logger.Warn("holdings cache entry corrupt, dropping", zap.Error(err))
		c.client.Del(ctx, holdingsKey(userID))
		return nil, false
	}
	return positions, true
}

// SetHoldings stores the listing for a user with the configured TTL.
func (c *HoldingsCache) SetHoldings(ctx context.Context, userID uuid.UUID, positions []models.Position) {
	raw, err := json.Marshal(positions)
	if err != nil {
		c.logger.Warn("holdings cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, holdingsKey(userID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("holdings cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached listing for a user.
func (c *HoldingsCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.client.Del(ctx, holdingsKey(userID)).Err(); err != nil {
		c.logger.Warn("holdings cache invalidation failed", zap.Error(err))
	}
}

// Close releases the underlying Redis connection.
func (c *HoldingsCache) Close() error {
	return c.client.Close()
}
