package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache keys for the read paths that get invalidated on settlement
const (
	LeaderboardCacheKey = "leaderboard:top" // Top miners by total mined
	PoolStatsCacheKey   = "stats:tokenpool" // Token pool snapshot
)

// WalletCacheKey builds the per-user wallet snapshot key
func WalletCacheKey(userID uint) string {
	return "wallet:user:" + strconv.Itoa(int(userID))
}

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes a key from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err() // Delete key from Redis
}

// InvalidateSettlementCaches drops the cached views that go stale when a
// user's balance moves: their wallet snapshot and the leaderboard.
func InvalidateSettlementCaches(ctx context.Context, rdb *redis.Client, userID uint) {
	if rdb == nil {
		return // Cache is optional in jobs and tests
	}
	_ = DeleteCache(ctx, rdb, WalletCacheKey(userID)) // Wallet snapshot
	_ = DeleteCache(ctx, rdb, LeaderboardCacheKey)    // Leaderboard
}
