// Package cache stores computed settlements in Redis.
//
// Keys embed the receipt version, so an entry can never describe a receipt
// state other than the one it was computed from and nothing needs explicit
// invalidation; old versions simply expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/receiptsplit/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

// SettlementCache is the read-through cache the service uses.
type SettlementCache interface {
	Get(ctx context.Context, receiptID string, version int64) (*models.Settlement, error)
	Set(ctx context.Context, s *models.Settlement) error
}

var (
	_ SettlementCache = (*RedisCache)(nil)
	_ SettlementCache = Nop{}
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, receiptID string, version int64) (*models.Settlement, error) {
	data, err := r.client.Get(ctx, cacheKey(receiptID, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var s models.Settlement
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal settlement failed: %w", err)
	}
	return &s, nil
}

func (r *RedisCache) Set(ctx context.Context, s *models.Settlement) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settlement failed: %w", err)
	}

	// Jitter spreads expiry of entries written together.
	ttl := r.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	if err := r.client.Set(ctx, cacheKey(s.ReceiptID, s.Version), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(receiptID string, version int64) string {
	return fmt.Sprintf("settlement:%s:%d", receiptID, version)
}

// Nop is used when no Redis is configured: every lookup misses.
type Nop struct{}

func (Nop) Get(context.Context, string, int64) (*models.Settlement, error) {
	return nil, ErrCacheMiss
}

func (Nop) Set(context.Context, *models.Settlement) error { return nil }
