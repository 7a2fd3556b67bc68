package api

import (
	"context"                            // Context for Redis operations
	"errors"                             // Sentinel error checks
	"mining_rewards/internal/domain"     // Importing domain models
	"mining_rewards/internal/settlement" // Withdrawal pipeline
	"mining_rewards/internal/utils"      // Utility functions
	"net/http"                           // HTTP status codes
	"time"                               // Cache TTL

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// WithdrawRequest asks to move tokens to an external address
type WithdrawRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"` // Withdrawal amount
	ToAddress string  `json:"to_address" binding:"required"`  // Destination address
}

// WalletResponse is the cached balance snapshot
type WalletResponse struct {
	UserID         uint      `json:"user_id"`         // User ID
	WalletAddress  string    `json:"wallet_address"`  // Payout address
	VirtualBalance float64   `json:"virtual_balance"` // Withdrawable tokens
	TotalMined     float64   `json:"total_mined"`     // Lifetime mined coins
	TotalHashRate  float64   `json:"total_hash_rate"` // Last reported hash rate
	LastActive     time.Time `json:"last_active"`     // Last telemetry update
}

// GetWalletHandler returns the balance snapshot for the authenticated user
func GetWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background()                     // Context for Redis operations
		cacheKey := utils.WalletCacheKey(userID.(uint)) // Cache key for wallet
		var snapshot WalletResponse                     // Snapshot to hold data
		found, err := utils.GetCache(ctx, rdb, cacheKey, &snapshot)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"wallet": snapshot, "cached": true})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			// Return not found if user doesn't exist
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		snapshot = WalletResponse{
			UserID:         user.ID,             // User ID
			WalletAddress:  user.WalletAddress,  // Payout address
			VirtualBalance: user.VirtualBalance, // Withdrawable tokens
			TotalMined:     user.TotalMined,     // Lifetime mined coins
			TotalHashRate:  user.TotalHashRate,  // Last reported hash rate
			LastActive:     user.LastActive,     // Last telemetry update
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, snapshot, 60*time.Second)  // Cache for 60 seconds
		c.JSON(http.StatusOK, gin.H{"wallet": snapshot, "cached": false}) // Return wallet info
	}
}

// WithdrawHandler enters the withdrawal state machine and drives it to a
// terminal state. A rejected request leaves no transaction row behind.
func WithdrawHandler(db *gorm.DB, rdb *redis.Client, pipeline *settlement.WithdrawalPipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req WithdrawRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Entry guard: rejects before any row is created
		tx, err := pipeline.Request(userID.(uint), req.Amount, req.ToAddress)
		if err != nil {
			switch {
			case errors.Is(err, settlement.ErrBelowMinimum):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Amount below minimum withdrawal"})
			case errors.Is(err, settlement.ErrInsufficientBalance):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
			case errors.Is(err, settlement.ErrInvalidAddress):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid destination address"})
			default:
				logrus.WithFields(logrus.Fields{
					"user_id": userID,      // User ID
					"error":   err.Error(), // Error message
				}).Error("Withdrawal request failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Withdrawal failed"})
			}
			return
		}
		// Drive the state machine to a terminal state
		if err := pipeline.Settle(c.Request.Context(), tx.ID); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"tx_id":   tx.ID,       // Transaction being settled
				"error":   err.Error(), // Error message
			}).Error("Withdrawal settlement failed")
		}
		// Reload the terminal state for the response
		var final domain.WalletTransaction
		if err := db.First(&final, tx.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Withdrawal failed"})
			return
		}
		// Drop cached views when the balance actually moved
		if final.Status == domain.TxStatusCompleted {
			utils.InvalidateSettlementCaches(context.Background(), rdb, userID.(uint))
		}
		c.JSON(http.StatusOK, gin.H{"transaction": final})
	}
}

// GetTransactionHandler returns one of the caller's transactions by id
func GetTransactionHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var tx domain.WalletTransaction // Transaction to hold data
		// Scope the lookup to the caller's own transactions
		if err := db.Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&tx).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"transaction": tx})
	}
}

// GetTransactionHistoryHandler returns the caller's withdrawal history
func GetTransactionHistoryHandler(db *gorm.DB) gin.HandlerFunc {
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
		var total int64                 // Total transaction count
		if err := db.Model(&domain.WalletTransaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count transactions"})
			return
		}
		var transactions []domain.WalletTransaction // Slice to hold transactions
		if err := db.Where("user_id = ?", userID).
			Order("created_at desc").
			Offset(offset).
			Limit(pageSize).
			Find(&transactions).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		c.JSON(http.StatusOK, gin.H{
			"transactions": transactions, // List of transactions
			"page":         page,         // Current page
			"page_size":    pageSize,     // Page size
			"total":        total,        // Total transactions
			"total_pages":  totalPages,   // Total pages
		})
	}
}
