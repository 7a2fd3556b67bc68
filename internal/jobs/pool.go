package jobs

import (
	"context" // Cache invalidation context
	"time"    // Ticker scheduling

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
	"gorm.io/gorm/clause"          // Upsert support

	"mining_rewards/internal/config" // Current reward rates
	"mining_rewards/internal/domain" // Importing domain models
	"mining_rewards/internal/utils"  // Cache invalidation
)

// DefaultTotalSupply is the platform token supply used to derive the reserve
const DefaultTotalSupply = 1000000000.0

// PoolRecomputer maintains the token-pool singleton row: a derived,
// read-only summary that only has to be eventually consistent with the
// underlying ledger.
type PoolRecomputer struct {
	db  *gorm.DB       // Ledger store handle
	rdb *redis.Client  // Cache holding the stats snapshot
	cfg *config.Config // Current reward rates and withdrawal floor
}

// NewPoolRecomputer wires the recompute job to the store and config
func NewPoolRecomputer(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *PoolRecomputer {
	return &PoolRecomputer{db: db, rdb: rdb, cfg: cfg}
}

// Run recomputes circulating supply from the sum of all balances and
// upserts the singleton row. Upsert on the fixed ID avoids a
// find-or-create race between overlapping runs.
func (p *PoolRecomputer) Run() error {
	var circulating float64
	if err := p.db.Model(&domain.User{}).
		Select("COALESCE(SUM(virtual_balance), 0)").
		Scan(&circulating).Error; err != nil {
		logrus.WithField("error", err.Error()).Error("Pool recompute query failed")
		return err
	}

	pool := domain.TokenPool{
		ID:                  domain.TokenPoolID,               // Fixed singleton key
		TotalSupply:         DefaultTotalSupply,               // Platform supply
		CirculatingSupply:   circulating,                      // Sum of user balances
		Reserve:             DefaultTotalSupply - circulating, // What remains mintable
		BenchmarkRewardRate: p.cfg.BenchmarkRewardRate,        // Current benchmark rate
		MiningRewardRate:    p.cfg.MiningRewardRate,           // Current mining rate
		MinimumWithdrawal:   p.cfg.MinimumWithdrawal,          // Current withdrawal floor
	}
	if err := p.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&pool).Error; err != nil {
		logrus.WithField("error", err.Error()).Error("Pool upsert failed")
		return err
	}
	// Drop the cached stats snapshot so readers see the fresh row
	if p.rdb != nil {
		_ = utils.DeleteCache(context.Background(), p.rdb, utils.PoolStatsCacheKey)
	}
	logrus.WithField("circulating", circulating).Info("Token pool recomputed")
	return nil
}

// Start runs the recompute on a fixed interval until the stop channel closes
func (p *PoolRecomputer) Start(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = p.Run()
		case <-stop:
			return
		}
	}
}
