package api

import (
	"context"                            // Context for Redis operations
	"mining_rewards/internal/domain"     // Importing domain models
	"mining_rewards/internal/reward"     // Reward math
	"mining_rewards/internal/settlement" // Balance settlement
	"mining_rewards/internal/utils"      // Utility functions
	"net/http"                           // HTTP status codes

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// SubmitBenchmarkRequest reports one completed benchmark run
type SubmitBenchmarkRequest struct {
	Score      float64 `json:"score" binding:"required,gt=0"`     // Benchmark score
	HashRate   float64 `json:"hash_rate" binding:"required,gt=0"` // Measured hash rate
	Duration   float64 `json:"duration" binding:"required,gt=0"`  // Run duration in seconds
	Algorithm  string  `json:"algorithm" binding:"required"`      // Benchmark algorithm tag
	Difficulty string  `json:"difficulty"`                        // Difficulty tag: easy, medium, hard
}

// SubmitBenchmarkHandler records an immutable benchmark result and credits
// its reward immediately. The result row and the balance increment are two
// separate writes; a crash between them is tolerated, not rolled back.
func SubmitBenchmarkHandler(db *gorm.DB, rdb *redis.Client, settler *settlement.Settler, baseRate float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req SubmitBenchmarkRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Reward computed at submission time; the snapshot is never recomputed
		tokens := reward.BenchmarkReward(req.Score, req.Difficulty, baseRate)
		result := domain.BenchmarkResult{
			UserID:        userID.(uint),  // Owning user
			Score:         req.Score,      // Benchmark score
			HashRate:      req.HashRate,   // Measured hash rate
			Duration:      req.Duration,   // Run duration
			Algorithm:     req.Algorithm,  // Algorithm tag
			Difficulty:    req.Difficulty, // Difficulty tag
			TokensAwarded: tokens,         // Tokens credited now
		}
		if err := db.Create(&result).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to record benchmark")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record benchmark"})
			return
		}
		// Credit the award; atomic increment on the user row
		if err := settler.CreditTokens(userID.(uint), tokens); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":      userID,      // User ID
				"benchmark_id": result.ID,   // Recorded result
				"error":        err.Error(), // Error message
			}).Error("Failed to credit benchmark reward")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to credit reward"})
			return
		}
		// Log the award
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,         // User ID
			"score":      req.Score,      // Benchmark score
			"difficulty": req.Difficulty, // Difficulty tag
			"tokens":     tokens,         // Awarded tokens
		}).Info("Benchmark reward settled")
		// Drop cached views that just went stale
		utils.InvalidateSettlementCaches(context.Background(), rdb, userID.(uint))
		// Return the recorded result
		c.JSON(http.StatusCreated, gin.H{"result": result, "tokens_awarded": tokens})
	}
}

// ListBenchmarksHandler returns the caller's benchmark history, newest first
func ListBenchmarksHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		page, pageSize := pageParams(c) // Shared pagination parsing
		offset := (page - 1) * pageSize // Calculate offset
		var total int64                 // Total result count
		if err := db.Model(&domain.BenchmarkResult{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count benchmarks"})
			return
		}
		var results []domain.BenchmarkResult // Slice to hold results
		if err := db.Where("user_id = ?", userID).
			Order("created_at desc").
			Offset(offset).
			Limit(pageSize).
			Find(&results).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch benchmarks"})
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		c.JSON(http.StatusOK, gin.H{
			"results":     results,    // List of results
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total results
			"total_pages": totalPages, // Total pages
		})
	}
}
