package db

import (
	"mining_rewards/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
	"gorm.io/gorm/clause"  // Upsert support
)

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err = db.AutoMigrate(
		&domain.User{},
		&domain.MiningRecord{},
		&domain.BenchmarkResult{},
		&domain.WalletTransaction{},
		&domain.TokenPool{},
	)
	if err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	// Seed the token-pool singleton; upsert keeps an existing row intact
	pool := domain.TokenPool{ID: domain.TokenPoolID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&pool).Error; err != nil {
		logrus.Fatalf("token pool seed failed: %v", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
}
