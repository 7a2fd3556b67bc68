package api

import (
	"context"                        // Context for Redis operations
	"mining_rewards/internal/domain" // Importing domain models
	"mining_rewards/internal/utils"  // Utility functions
	"net/http"                       // HTTP status codes
	"strconv"                        // String conversion
	"time"                           // Cache TTL

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// LeaderboardEntry is one ranked miner
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`            // Position, 1-based
	Username      string  `json:"username"`        // Miner username
	TotalMined    float64 `json:"total_mined"`     // Lifetime mined coins
	TotalHashRate float64 `json:"total_hash_rate"` // Last reported hash rate
}

// maxLeaderboardSize bounds the ranked list that gets cached and served
const maxLeaderboardSize = 100

// GetLeaderboardHandler returns the top miners ranked by total mined coins.
// The full top list is cached under a single key so settlement can
// invalidate it with one delete; the limit is applied by slicing.
func GetLeaderboardHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 25 // Default leaderboard size
		if l := c.Query("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= maxLeaderboardSize {
				limit = v // Set limit if valid
			}
		}
		ctx := context.Background()    // Context for Redis operations
		var entries []LeaderboardEntry // Slice to hold entries
		found, err := utils.GetCache(ctx, rdb, utils.LeaderboardCacheKey, &entries)
		// If found in cache, return the requested slice of it
		if err == nil && found {
			if len(entries) > limit {
				entries = entries[:limit] // Ranks are already 1-based, slicing keeps them
			}
			c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "cached": true})
			return
		}
		var users []domain.User // Slice to hold users
		if err := db.Where("total_mined > 0").
			Order("total_mined desc").
			Limit(maxLeaderboardSize).
			Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
			return
		}
		// Map users to ranked entries
		entries = make([]LeaderboardEntry, len(users))
		for i, u := range users {
			entries[i] = LeaderboardEntry{
				Rank:          i + 1,           // Position
				Username:      u.Username,      // Miner username
				TotalMined:    u.TotalMined,    // Lifetime mined coins
				TotalHashRate: u.TotalHashRate, // Last reported hash rate
			}
		}
		// Cache the full top list under the key settlement invalidates
		_ = utils.SetCache(ctx, rdb, utils.LeaderboardCacheKey, entries, 60*time.Second)
		if len(entries) > limit {
			entries = entries[:limit] // Serve only the requested size
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "cached": false}) // Return leaderboard
	}
}

// GetPoolStatsHandler returns the token-pool summary row. The row is
// recomputed by a periodic job; readers tolerate staleness.
func GetPoolStatsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		var pool domain.TokenPool   // Pool row to hold data
		found, err := utils.GetCache(ctx, rdb, utils.PoolStatsCacheKey, &pool)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"pool": pool, "cached": true})
			return
		}
		if err := db.First(&pool, domain.TokenPoolID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pool stats not available"})
			return
		}
		_ = utils.SetCache(ctx, rdb, utils.PoolStatsCacheKey, pool, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, gin.H{"pool": pool, "cached": false})                 // Return pool stats
	}
}
