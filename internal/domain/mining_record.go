package domain

import "time"

// MiningRecord Model: one mining session from start to stop
type MiningRecord struct {
	ID        uint       `gorm:"primaryKey"`          // Primary key
	SessionID string     `gorm:"uniqueIndex;size:64"` // Client-visible session identifier
	UserID    uint       `gorm:"index"`               // Owning user
	StartedAt time.Time  // Session start
	EndedAt   *time.Time // Set once on stop; nil while the session is open

	HashRate float64 // Current reported hash rate
	Duration float64 // Cumulative session duration in seconds

	// Cumulative rewards. Monotonically non-decreasing while the session is
	// open; the accrual tracker clamps any apparent decrease to a zero delta.
	CoinsEarned  float64 `gorm:"not null;default:0"` // Cumulative coins
	TokensEarned float64 `gorm:"not null;default:0"` // Cumulative tokens

	Algorithm  string `gorm:"size:32"` // Mining algorithm tag
	Difficulty string `gorm:"size:16"` // Difficulty tag: easy, medium, hard

	CreatedAt int64 `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
	UpdatedAt int64 `gorm:"autoUpdateTime:milli"` // Timestamp of last update in milliseconds
}
