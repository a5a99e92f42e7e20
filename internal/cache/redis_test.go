package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/receiptsplit/internal/models"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func sampleSettlement(version int64) *models.Settlement {
	return &models.Settlement{
		ReceiptID: "r1",
		Version:   version,
		Subtotal:  1000,
		Total:     1100,
		People: []models.PersonSettlement{
			{ParticipantID: "p-a", DisplayName: "Alice", Subtotal: 500, ServiceCharge: 50, Total: 550, Items: []models.PersonItem{}},
			{ParticipantID: "p-b", DisplayName: "Bob", Subtotal: 500, ServiceCharge: 50, Total: 550, Items: []models.PersonItem{}},
		},
	}
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "r1", 3)
	assert.ErrorIs(t, err, ErrCacheMiss)

	want := sampleSettlement(3)
	require.NoError(t, c.Set(ctx, want))
	assert.True(t, mr.Exists("settlement:r1:3"))

	got, err := c.Get(ctx, "r1", 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// A newer version never sees the older entry.
	_, err = c.Get(ctx, "r1", 4)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleSettlement(1)))
	ttl := mr.TTL("settlement:r1:1")
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)

	mr.FastForward(21 * time.Minute)
	_, err := c.Get(ctx, "r1", 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Errors(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("settlement:r1:9", "{not json"))
	_, err := c.Get(ctx, "r1", 9)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	mr.Close()
	_, err = c.Get(ctx, "r1", 1)
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var c SettlementCache = Nop{}
	require.NoError(t, c.Set(context.Background(), sampleSettlement(1)))
	_, err := c.Get(context.Background(), "r1", 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
