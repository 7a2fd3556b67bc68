package domain

// BenchmarkResult Model: immutable snapshot of one benchmark run
type BenchmarkResult struct {
	ID     uint `gorm:"primaryKey"` // Primary key
	UserID uint `gorm:"index"`      // Owning user

	Score      float64 // Benchmark score
	HashRate   float64 // Measured hash rate
	Duration   float64 // Run duration in seconds
	Algorithm  string  `gorm:"size:32"` // Benchmark algorithm tag
	Difficulty string  `gorm:"size:16"` // Difficulty tag: easy, medium, hard

	TokensAwarded float64 // Tokens credited at submission time, never recomputed

	CreatedAt int64 `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
}
