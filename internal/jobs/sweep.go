package jobs

import (
	"context" // Cache invalidation context
	"time"    // Ticker scheduling

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library

	"mining_rewards/internal/domain"     // Importing domain models
	"mining_rewards/internal/reward"     // Reward math
	"mining_rewards/internal/settlement" // Balance settlement
	"mining_rewards/internal/utils"      // Cache invalidation
)

// Sweeper periodically settles ended mining sessions that never had a
// reward applied. Settling writes a nonzero tokens_earned, which removes
// the session from the selection predicate, so overlapping runs cannot
// settle the same session twice.
type Sweeper struct {
	db         *gorm.DB      // Ledger store handle
	rdb        *redis.Client // Cache to invalidate after settling
	settler    *settlement.Settler
	miningRate float64 // Tokens per mined coin
	batchSize  int     // Max sessions per run
}

// NewSweeper wires the sweep to the store, cache and reward rate
func NewSweeper(db *gorm.DB, rdb *redis.Client, settler *settlement.Settler, miningRate float64, batchSize int) *Sweeper {
	return &Sweeper{db: db, rdb: rdb, settler: settler, miningRate: miningRate, batchSize: batchSize}
}

// Run executes one sweep pass and returns how many sessions were settled.
// Per-session errors are logged and do not abort the remaining batch.
func (s *Sweeper) Run() int {
	var records []domain.MiningRecord
	// Ended sessions whose reward was never settled, bounded batch
	if err := s.db.Where("ended_at IS NOT NULL AND tokens_earned = 0").
		Order("ended_at asc").
		Limit(s.batchSize).
		Find(&records).Error; err != nil {
		logrus.WithField("error", err.Error()).Error("Sweep query failed")
		return 0
	}

	settled := 0
	for _, rec := range records {
		if err := s.settleRecord(&rec); err != nil {
			logrus.WithFields(logrus.Fields{
				"session_id": rec.SessionID, // Session that failed to settle
				"user_id":    rec.UserID,    // Its owner
				"error":      err.Error(),   // What went wrong
			}).Error("Sweep failed to settle session")
			continue // Keep going; the next run picks this session up again
		}
		utils.InvalidateSettlementCaches(context.Background(), s.rdb, rec.UserID)
		settled++
	}
	if settled > 0 {
		logrus.WithField("settled", settled).Info("Distribution sweep completed")
	}
	return settled
}

// settleRecord computes the session's cumulative reward from its final
// telemetry and credits it. The cumulative fields are written first: once
// tokens_earned is nonzero the session can no longer be selected, so a
// crash between the two writes under-credits rather than double-credits.
func (s *Sweeper) settleRecord(rec *domain.MiningRecord) error {
	coins, tokens := reward.MiningReward(rec.HashRate, rec.Duration, s.miningRate)
	res := s.db.Model(&domain.MiningRecord{}).
		Where("id = ? AND tokens_earned = 0", rec.ID).
		Updates(map[string]any{
			"coins_earned":  coins,  // Final cumulative coins
			"tokens_earned": tokens, // Final cumulative tokens, nonzero by the reward floor
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil // An overlapping run settled this session first
	}
	return s.settler.ApplyDelta(rec.UserID, coins, tokens, rec.HashRate)
}

// Start runs the sweep on a fixed interval until the stop channel closes
func (s *Sweeper) Start(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Run()
		case <-stop:
			return
		}
	}
}
