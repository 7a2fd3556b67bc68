package domain

import "time"

// User Model
type User struct {
	ID            uint   `gorm:"primaryKey"`      // Primary key
	Username      string `gorm:"unique;not null"` // Unique username
	Password      string `gorm:"not null"`        // Hashed password
	WalletAddress string `gorm:"index"`           // Destination address on the settlement network
	Role          string `gorm:"default:user"`    // Role: user or admin

	VirtualBalance float64   `gorm:"not null;default:0"` // Withdrawable token balance, never negative
	TotalMined     float64   `gorm:"not null;default:0"` // Lifetime mined coins, only ever incremented
	TotalHashRate  float64   `gorm:"not null;default:0"` // Last reported hash rate, overwritten on each update
	LastActive     time.Time // Refreshed on every telemetry update, settled or not

	CreatedAt int64 `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
}
