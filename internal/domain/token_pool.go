package domain

// TokenPoolID is the fixed primary key of the singleton summary row
const TokenPoolID = 1

// TokenPool Model: singleton summary row, recomputed periodically.
// At most one row exists; writes go through upsert on the fixed ID.
type TokenPool struct {
	ID                uint    `gorm:"primaryKey"` // Always TokenPoolID
	TotalSupply       float64 // Total token supply
	CirculatingSupply float64 // Sum of all user virtual balances
	Reserve           float64 // TotalSupply - CirculatingSupply

	BenchmarkRewardRate float64 // Current benchmark base rate
	MiningRewardRate    float64 // Current mining token rate
	MinimumWithdrawal   float64 // Current withdrawal floor

	UpdatedAt int64 `gorm:"autoUpdateTime:milli"` // Timestamp of last recompute in milliseconds
}
