package api

import (
	"context"                            // Context for Redis operations
	"errors"                             // Sentinel error checks
	"mining_rewards/internal/domain"     // Importing domain models
	"mining_rewards/internal/settlement" // Accrual and balance settlement
	"mining_rewards/internal/utils"      // Utility functions
	"net/http"                           // HTTP status codes
	"time"                               // Timestamps

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // Session identifiers
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// StartSessionRequest opens a new mining session
type StartSessionRequest struct {
	Algorithm  string `json:"algorithm" binding:"required"` // Mining algorithm tag
	Difficulty string `json:"difficulty"`                   // Difficulty tag: easy, medium, hard
}

// UpdateSessionRequest reports cumulative lifetime telemetry for a session
type UpdateSessionRequest struct {
	HashRate float64 `json:"hash_rate" binding:"required,gt=0"` // Current hash rate
	Duration float64 `json:"duration" binding:"required,gt=0"`  // Cumulative duration in seconds
}

// StartSessionHandler creates a MiningRecord for a new session
func StartSessionHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req StartSessionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Create the session record
		rec := domain.MiningRecord{
			SessionID:  uuid.NewString(), // Client-visible session identifier
			UserID:     userID.(uint),    // Owning user
			StartedAt:  time.Now(),       // Session start
			Algorithm:  req.Algorithm,    // Algorithm tag
			Difficulty: req.Difficulty,   // Difficulty tag
		}
		if err := db.Create(&rec).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to start mining session")
			// Return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
			return
		}
		// Log session start
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,        // User ID
			"session_id": rec.SessionID, // New session
			"algorithm":  req.Algorithm, // Algorithm tag
		}).Info("Mining session started")
		// Return the new session
		c.JSON(http.StatusCreated, gin.H{"session": rec})
	}
}

// UpdateSessionHandler settles one cumulative telemetry report. The delta
// between the reported cumulative reward and what was already credited is
// what lands on the balance; replays and stale reports credit nothing.
func UpdateSessionHandler(db *gorm.DB, rdb *redis.Client, settler *settlement.Settler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req UpdateSessionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		sessionID := c.Param("id") // Session identifier from the path
		rec, coinsDelta, tokensDelta, err := settler.SettleMiningUpdate(sessionID, userID.(uint), req.HashRate, req.Duration)
		if err != nil {
			switch {
			case errors.Is(err, settlement.ErrSessionNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			case errors.Is(err, settlement.ErrSessionClosed):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Session already ended"})
			default:
				logrus.WithFields(logrus.Fields{
					"user_id":    userID,      // User ID
					"session_id": sessionID,   // Session being updated
					"error":      err.Error(), // Error message
				}).Error("Mining update failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed"})
			}
			return
		}
		// Drop cached views that just went stale
		if tokensDelta > 0 || coinsDelta > 0 {
			utils.InvalidateSettlementCaches(context.Background(), rdb, userID.(uint))
		}
		// Return the credited deltas and refreshed session state
		c.JSON(http.StatusOK, gin.H{
			"session":      rec,         // Refreshed session
			"coins_delta":  coinsDelta,  // Coins credited this update
			"tokens_delta": tokensDelta, // Tokens credited this update
		})
	}
}

// StopSessionHandler finalizes a session by setting its end time
func StopSessionHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		sessionID := c.Param("id") // Session identifier from the path
		// Finalize only the caller's own open session
		res := db.Model(&domain.MiningRecord{}).
			Where("session_id = ? AND user_id = ? AND ended_at IS NULL", sessionID, userID).
			Update("ended_at", time.Now())
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to stop session"})
			return
		}
		if res.RowsAffected == 0 {
			// Either unknown or already finalized
			c.JSON(http.StatusNotFound, gin.H{"error": "No open session with that id"})
			return
		}
		// Log session stop
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,    // User ID
			"session_id": sessionID, // Finalized session
		}).Info("Mining session stopped")
		c.JSON(http.StatusOK, gin.H{"message": "Session stopped"})
	}
}

// ListSessionsHandler returns the caller's mining sessions, newest first
func ListSessionsHandler(db *gorm.DB) gin.HandlerFunc {
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
		var total int64                 // Total session count
		if err := db.Model(&domain.MiningRecord{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count sessions"})
			return
		}
		var sessions []domain.MiningRecord // Slice to hold sessions
		if err := db.Where("user_id = ?", userID).
			Order("created_at desc").
			Offset(offset).
			Limit(pageSize).
			Find(&sessions).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		c.JSON(http.StatusOK, gin.H{
			"sessions":    sessions,   // List of sessions
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total sessions
			"total_pages": totalPages, // Total pages
		})
	}
}
