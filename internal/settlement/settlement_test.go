package settlement_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"mining_rewards/internal/domain"
	"mining_rewards/internal/settlement"
)

func TestSettleMiningUpdateCreditsDelta(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 0)
	settler := settlement.NewSettler(db, 1.0)

	rec := domain.MiningRecord{
		SessionID: uuid.NewString(),
		UserID:    user.ID,
		StartedAt: time.Now(),
		Algorithm: "randomx",
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	// First report: 500000 H/s for 10s -> 5.0 coins
	_, coinsDelta, tokensDelta, err := settler.SettleMiningUpdate(rec.SessionID, user.ID, 500000, 10)
	if err != nil {
		t.Fatalf("First update failed: %v", err)
	}
	if math.Abs(coinsDelta-5.0) > 1e-9 || math.Abs(tokensDelta-5.0) > 1e-9 {
		t.Errorf("First update should credit 5.0/5.0, got %f/%f", coinsDelta, tokensDelta)
	}

	// Second report doubles the cumulative duration: credit the delta only
	_, coinsDelta, tokensDelta, err = settler.SettleMiningUpdate(rec.SessionID, user.ID, 500000, 20)
	if err != nil {
		t.Fatalf("Second update failed: %v", err)
	}
	if math.Abs(coinsDelta-5.0) > 1e-9 || math.Abs(tokensDelta-5.0) > 1e-9 {
		t.Errorf("Second update should credit the 5.0 delta, got %f/%f", coinsDelta, tokensDelta)
	}

	var fresh domain.User
	db.First(&fresh, user.ID)
	if math.Abs(fresh.TotalMined-10.0) > 1e-9 {
		t.Errorf("User should have 10.0 coins total, got %f", fresh.TotalMined)
	}
	if math.Abs(fresh.VirtualBalance-10.0) > 1e-9 {
		t.Errorf("User should have 10.0 tokens, got %f", fresh.VirtualBalance)
	}
}

func TestSettleMiningUpdateStaleReport(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 0)
	settler := settlement.NewSettler(db, 1.0)

	rec := domain.MiningRecord{
		SessionID: uuid.NewString(),
		UserID:    user.ID,
		StartedAt: time.Now(),
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if _, _, _, err := settler.SettleMiningUpdate(rec.SessionID, user.ID, 500000, 20); err != nil {
		t.Fatalf("Initial update failed: %v", err)
	}
	before := time.Now()

	// Replayed stale duration: zero monetary delta, liveness still refreshed
	_, coinsDelta, tokensDelta, err := settler.SettleMiningUpdate(rec.SessionID, user.ID, 400000, 10)
	if err != nil {
		t.Fatalf("Stale update failed: %v", err)
	}
	if coinsDelta != 0 || tokensDelta != 0 {
		t.Errorf("Stale report must credit zero, got %f/%f", coinsDelta, tokensDelta)
	}

	var fresh domain.User
	db.First(&fresh, user.ID)
	if fresh.TotalHashRate != 400000 {
		t.Errorf("Hash rate should be overwritten to the latest report, got %f", fresh.TotalHashRate)
	}
	if fresh.LastActive.Before(before.Add(-time.Second)) {
		t.Error("LastActive should be refreshed even for a zero-delta update")
	}

	// Stored cumulative totals must not have decreased
	var freshRec domain.MiningRecord
	db.First(&freshRec, rec.ID)
	if math.Abs(freshRec.CoinsEarned-10.0) > 1e-9 {
		t.Errorf("Stored cumulative coins must stay at 10.0, got %f", freshRec.CoinsEarned)
	}
}

func TestSettleMiningUpdateClosedSession(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 0)
	settler := settlement.NewSettler(db, 1.0)

	ended := time.Now()
	rec := domain.MiningRecord{
		SessionID: uuid.NewString(),
		UserID:    user.ID,
		StartedAt: ended.Add(-time.Hour),
		EndedAt:   &ended,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	_, _, _, err := settler.SettleMiningUpdate(rec.SessionID, user.ID, 500000, 10)
	if !errors.Is(err, settlement.ErrSessionClosed) {
		t.Fatalf("Expected ErrSessionClosed, got %v", err)
	}
}

func TestSettleMiningUpdateUnknownSession(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 0)
	settler := settlement.NewSettler(db, 1.0)

	_, _, _, err := settler.SettleMiningUpdate(uuid.NewString(), user.ID, 500000, 10)
	if !errors.Is(err, settlement.ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestCreditTokens(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, 100)
	settler := settlement.NewSettler(db, 1.0)

	if err := settler.CreditTokens(user.ID, 0.8); err != nil {
		t.Fatalf("CreditTokens failed: %v", err)
	}
	var fresh domain.User
	db.First(&fresh, user.ID)
	if math.Abs(fresh.VirtualBalance-100.8) > 1e-9 {
		t.Errorf("Expected balance 100.8, got %f", fresh.VirtualBalance)
	}
}
