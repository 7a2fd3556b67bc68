package settlement

import (
	"errors" // Sentinel errors
	"time"   // Liveness timestamps

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library

	"mining_rewards/internal/domain" // Importing domain models
	"mining_rewards/internal/reward" // Reward math
)

// ErrSessionClosed is returned when telemetry arrives for a finalized session
var ErrSessionClosed = errors.New("mining session already ended")

// ErrSessionNotFound is returned when no session matches the id and user
var ErrSessionNotFound = errors.New("mining session not found")

// Settler applies reward deltas to user balances. All monetary mutation
// goes through the store's atomic increment expressions; the settler never
// does a read-modify-write on a balance field.
type Settler struct {
	db         *gorm.DB // Ledger store handle
	miningRate float64  // Tokens per mined coin
}

// NewSettler creates a Settler bound to the store and the mining reward rate
func NewSettler(db *gorm.DB, miningRate float64) *Settler {
	return &Settler{db: db, miningRate: miningRate}
}

// ApplyDelta credits a user's aggregates and refreshes liveness tracking.
// The monetary fields are only touched for strictly positive deltas, but
// total_hash_rate and last_active are refreshed on every call: liveness
// is decoupled from reward accrual.
func (s *Settler) ApplyDelta(userID uint, coinsDelta, tokensDelta, hashRate float64) error {
	updates := map[string]any{
		"total_hash_rate": hashRate,   // Overwrite, not accumulate
		"last_active":     time.Now(), // Liveness refresh
	}
	if coinsDelta > 0 {
		updates["total_mined"] = gorm.Expr("total_mined + ?", coinsDelta) // Atomic increment
	}
	if tokensDelta > 0 {
		updates["virtual_balance"] = gorm.Expr("virtual_balance + ?", tokensDelta) // Atomic increment
	}
	return s.db.Model(&domain.User{}).Where("id = ?", userID).Updates(updates).Error
}

// CreditTokens credits a one-shot token award (benchmark submission) and
// refreshes last_active. Hash rate is left alone: benchmarks are not
// liveness telemetry for mining.
func (s *Settler) CreditTokens(userID uint, tokens float64) error {
	if tokens <= 0 {
		return nil
	}
	return s.db.Model(&domain.User{}).Where("id = ?", userID).Updates(map[string]any{
		"virtual_balance": gorm.Expr("virtual_balance + ?", tokens), // Atomic increment
		"last_active":     time.Now(),                               // Liveness refresh
	}).Error
}

// SettleMiningUpdate processes one cumulative telemetry report for an open
// session: recompute the cumulative reward, derive the clamped delta against
// what the session has already been credited, persist the new cumulative
// state, and credit the delta to the user. Returns the refreshed record and
// the credited deltas.
//
// Stored cumulative totals never decrease: a report that computes a smaller
// cumulative value than what is stored credits nothing and leaves the stored
// totals where they were.
func (s *Settler) SettleMiningUpdate(sessionID string, userID uint, hashRate, duration float64) (*domain.MiningRecord, float64, float64, error) {
	var rec domain.MiningRecord
	// Look up the session, scoped to its owner
	if err := s.db.Where("session_id = ? AND user_id = ?", sessionID, userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, 0, ErrSessionNotFound
		}
		return nil, 0, 0, err
	}
	// Finalized sessions accept no further telemetry
	if rec.EndedAt != nil {
		return nil, 0, 0, ErrSessionClosed
	}

	// Cumulative reward for the session's lifetime-to-date telemetry
	newCoins, newTokens := reward.MiningReward(hashRate, duration, s.miningRate)
	// Incremental amounts owed, clamped at zero on apparent decrease
	coinsDelta, tokensDelta := reward.AccrualDelta(rec.CoinsEarned, rec.TokensEarned, newCoins, newTokens)

	// Persist the new cumulative state; totals stay monotonic
	rec.HashRate = hashRate
	rec.Duration = duration
	if newCoins > rec.CoinsEarned {
		rec.CoinsEarned = newCoins
	}
	if newTokens > rec.TokensEarned {
		rec.TokensEarned = newTokens
	}
	if err := s.db.Model(&domain.MiningRecord{}).Where("id = ?", rec.ID).Updates(map[string]any{
		"hash_rate":     rec.HashRate,
		"duration":      rec.Duration,
		"coins_earned":  rec.CoinsEarned,
		"tokens_earned": rec.TokensEarned,
	}).Error; err != nil {
		return nil, 0, 0, err
	}

	// Credit the delta (or just refresh liveness when both are zero)
	if err := s.ApplyDelta(userID, coinsDelta, tokensDelta, hashRate); err != nil {
		return nil, 0, 0, err
	}
	if coinsDelta > 0 || tokensDelta > 0 {
		logrus.WithFields(logrus.Fields{
			"user_id":      userID,      // Credited user
			"session_id":   sessionID,   // Session being settled
			"coins_delta":  coinsDelta,  // Coins credited this update
			"tokens_delta": tokensDelta, // Tokens credited this update
		}).Info("Mining reward settled")
	}
	return &rec, coinsDelta, tokensDelta, nil
}
