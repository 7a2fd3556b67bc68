package ws

import (
	"context"  // Context for cache invalidation
	"errors"   // Sentinel error checks
	"net/http" // Upgrade request check
	"time"     // Pong timestamps

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/gorilla/websocket" // WebSocket connections
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library

	"mining_rewards/internal/settlement" // Accrual and balance settlement
	"mining_rewards/internal/utils"      // Cache invalidation
)

// The browser mining client connects cross-origin, so the upgrader accepts
// any origin; the JWT middleware has already authenticated the request.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MiningUpdatePayload is the telemetry body of a MINING_UPDATE frame.
// Values are cumulative lifetime totals, not increments.
type MiningUpdatePayload struct {
	SessionID string  `json:"session_id"` // Open session to settle
	HashRate  float64 `json:"hash_rate"`  // Current hash rate
	Duration  float64 `json:"duration"`   // Cumulative duration in seconds
}

// Handler serves the socket telemetry channel
type Handler struct {
	hub     *Hub                // Connection registry
	rdb     *redis.Client       // Cache to invalidate after settlement
	settler *settlement.Settler // Shared settlement path with the HTTP API
}

// NewHandler wires the socket channel to the settlement core
func NewHandler(hub *Hub, rdb *redis.Client, settler *settlement.Settler) *Handler {
	return &Handler{hub: hub, rdb: rdb, settler: settler}
}

// Serve upgrades the request and pumps telemetry frames until disconnect
func (h *Handler) Serve(c *gin.Context) {
	userID, exists := c.Get("userID") // Set by the JWT middleware
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("WebSocket upgrade failed")
		return
	}

	client := &Client{UserID: userID.(uint), Conn: conn}
	h.hub.Register(client)
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
	}()

	for {
		var msg struct {
			Type string              `json:"type"` // Frame type
			Data MiningUpdatePayload `json:"data"` // Telemetry payload for MINING_UPDATE
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithFields(logrus.Fields{
					"user_id": client.UserID, // Disconnecting miner
					"error":   err.Error(),   // Close cause
				}).Warn("WebSocket read error")
			}
			break
		}
		h.handleMessage(client, msg.Type, &msg.Data)
	}
}

// handleMessage dispatches one inbound frame
func (h *Handler) handleMessage(client *Client, msgType string, payload *MiningUpdatePayload) {
	switch msgType {
	case "PING":
		h.hub.Push(client.UserID, &Message{
			Type: "PONG",
			Data: gin.H{"timestamp": time.Now().Unix()},
		})
	case "MINING_UPDATE":
		h.handleMiningUpdate(client, payload)
	default:
		h.hub.Push(client.UserID, &Message{
			Type: "ERROR",
			Data: gin.H{"error": "unknown message type"},
		})
	}
}

// handleMiningUpdate runs a socket telemetry report through the same
// accrual and settlement path as the HTTP session update.
func (h *Handler) handleMiningUpdate(client *Client, payload *MiningUpdatePayload) {
	if payload.SessionID == "" || payload.HashRate <= 0 || payload.Duration <= 0 {
		h.hub.Push(client.UserID, &Message{
			Type: "ERROR",
			Data: gin.H{"error": "invalid mining update"},
		})
		return
	}
	rec, coinsDelta, tokensDelta, err := h.settler.SettleMiningUpdate(payload.SessionID, client.UserID, payload.HashRate, payload.Duration)
	if err != nil {
		reason := "update failed"
		switch {
		case errors.Is(err, settlement.ErrSessionNotFound):
			reason = "session not found"
		case errors.Is(err, settlement.ErrSessionClosed):
			reason = "session already ended"
		default:
			logrus.WithFields(logrus.Fields{
				"user_id":    client.UserID,     // Reporting miner
				"session_id": payload.SessionID, // Session in the frame
				"error":      err.Error(),       // What went wrong
			}).Error("Socket mining update failed")
		}
		h.hub.Push(client.UserID, &Message{
			Type: "ERROR",
			Data: gin.H{"error": reason, "session_id": payload.SessionID},
		})
		return
	}
	if coinsDelta > 0 || tokensDelta > 0 {
		utils.InvalidateSettlementCaches(context.Background(), h.rdb, client.UserID)
	}
	// Push the credited deltas back to the miner
	h.hub.Push(client.UserID, &Message{
		Type: "BALANCE_UPDATE",
		Data: gin.H{
			"session_id":    rec.SessionID,    // Settled session
			"coins_delta":   coinsDelta,       // Coins credited this frame
			"tokens_delta":  tokensDelta,      // Tokens credited this frame
			"coins_earned":  rec.CoinsEarned,  // Session cumulative coins
			"tokens_earned": rec.TokensEarned, // Session cumulative tokens
		},
	})
}
