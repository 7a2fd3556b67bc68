package settlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mining_rewards/internal/config"
	"mining_rewards/internal/domain"
	"mining_rewards/internal/settlement"
)

// setupTestDB connects to the configured MySQL instance and skips the test
// when the database is unreachable.
func setupTestDB(t *testing.T) *gorm.DB {
	cfg := config.LoadConfig()
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.MiningRecord{}, &domain.WalletTransaction{}); err != nil {
		t.Skipf("Migration failed: %v", err)
	}
	return db
}

// createTestUser inserts a user with a known balance and cleans it up
func createTestUser(t *testing.T, db *gorm.DB, balance float64) *domain.User {
	user := domain.User{
		Username:       "settletest_" + time.Now().Format("150405.000000"),
		Password:       "x",
		WalletAddress:  "0x0123456789abcdef0123456789abcdef01234567",
		VirtualBalance: balance,
		LastActive:     time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	t.Cleanup(func() {
		db.Where("user_id = ?", user.ID).Delete(&domain.WalletTransaction{})
		db.Where("user_id = ?", user.ID).Delete(&domain.MiningRecord{})
		db.Delete(&domain.User{}, user.ID)
	})
	return &user
}

func newTestPipeline(db *gorm.DB) *settlement.WithdrawalPipeline {
	exec := &settlement.SimulatedExecutor{Delay: time.Millisecond}
	return settlement.NewWithdrawalPipeline(db, exec, settlement.HexAddressValidator, 100.0, time.Second)
}

func TestRequestBelowMinimum(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 500)
	p := newTestPipeline(db)

	_, err := p.Request(user.ID, 50, user.WalletAddress)
	if !errors.Is(err, settlement.ErrBelowMinimum) {
		t.Fatalf("Expected ErrBelowMinimum, got %v", err)
	}
	// No row may exist for a rejected request
	var count int64
	db.Model(&domain.WalletTransaction{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("Rejected request should create no row, found %d", count)
	}
}

func TestRequestExceedsBalance(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 120)
	p := newTestPipeline(db)

	_, err := p.Request(user.ID, 500, user.WalletAddress)
	if !errors.Is(err, settlement.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}
	var count int64
	db.Model(&domain.WalletTransaction{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("Rejected request should create no row, found %d", count)
	}
}

func TestRequestInvalidAddress(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 500)
	p := newTestPipeline(db)

	_, err := p.Request(user.ID, 150, "not-an-address")
	if !errors.Is(err, settlement.ErrInvalidAddress) {
		t.Fatalf("Expected ErrInvalidAddress, got %v", err)
	}
}

func TestClaimIsSingle(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 500)
	p := newTestPipeline(db)

	tx, err := p.Request(user.ID, 150, user.WalletAddress)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if err := p.Claim(tx.ID); err != nil {
		t.Fatalf("First claim should succeed: %v", err)
	}
	if err := p.Claim(tx.ID); !errors.Is(err, settlement.ErrAlreadyClaimed) {
		t.Fatalf("Second claim should lose, got %v", err)
	}
}

func TestCompleteDebitsExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 500)
	p := newTestPipeline(db)

	tx, err := p.Request(user.ID, 150, user.WalletAddress)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if err := p.Claim(tx.ID); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	// Invoke the completion handler twice; the debit must not repeat
	if err := p.Complete(tx.ID, "ref-1"); err != nil {
		t.Fatalf("First completion failed: %v", err)
	}
	if err := p.Complete(tx.ID, "ref-2"); err != nil {
		t.Fatalf("Repeated completion should be a no-op, got %v", err)
	}

	var fresh domain.User
	if err := db.First(&fresh, user.ID).Error; err != nil {
		t.Fatalf("Failed to reload user: %v", err)
	}
	if fresh.VirtualBalance != 350 {
		t.Errorf("Expected balance 350 after a single debit, got %f", fresh.VirtualBalance)
	}
	var final domain.WalletTransaction
	db.First(&final, tx.ID)
	if final.Status != domain.TxStatusCompleted {
		t.Errorf("Expected completed status, got %q", final.Status)
	}
	if final.Reference != "ref-1" {
		t.Errorf("Reference should come from the winning completion, got %q", final.Reference)
	}
}

func TestFailLeavesBalanceAlone(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 500)
	p := newTestPipeline(db)

	tx, err := p.Request(user.ID, 150, user.WalletAddress)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if err := p.Claim(tx.ID); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := p.Fail(tx.ID, domain.FailReasonNetworkError); err != nil {
		t.Fatalf("Fail transition failed: %v", err)
	}

	var fresh domain.User
	db.First(&fresh, user.ID)
	if fresh.VirtualBalance != 500 {
		t.Errorf("Failed withdrawal must not debit, balance is %f", fresh.VirtualBalance)
	}
	var final domain.WalletTransaction
	db.First(&final, tx.ID)
	if final.Status != domain.TxStatusFailed {
		t.Errorf("Expected failed status, got %q", final.Status)
	}
	if final.FailReason != domain.FailReasonNetworkError {
		t.Errorf("Expected network_error reason, got %q", final.FailReason)
	}

	// The user can retry with a new request
	if _, err := p.Request(user.ID, 150, user.WalletAddress); err != nil {
		t.Errorf("Retry with a new request should be allowed: %v", err)
	}
}

func TestSettleEndsInTerminalState(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 500)
	p := newTestPipeline(db)

	tx, err := p.Request(user.ID, 150, user.WalletAddress)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if err := p.Settle(context.Background(), tx.ID); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	var final domain.WalletTransaction
	db.First(&final, tx.ID)
	if final.Status != domain.TxStatusCompleted && final.Status != domain.TxStatusFailed {
		t.Errorf("Settle must land in a terminal state, got %q", final.Status)
	}
}
