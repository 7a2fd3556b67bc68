package settlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mining_rewards/internal/domain"
	"mining_rewards/internal/settlement"
)

func TestSimulatedExecutor(t *testing.T) {
	exec := &settlement.SimulatedExecutor{Delay: 10 * time.Millisecond}

	ref, err := exec.Transfer(context.Background(), "0x0123456789abcdef0123456789abcdef01234567", 150)
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if ref == "" {
		t.Error("Transfer should return a reference id")
	}
}

func TestSimulatedExecutorTimeout(t *testing.T) {
	exec := &settlement.SimulatedExecutor{Delay: time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := exec.Transfer(ctx, "0x0123456789abcdef0123456789abcdef01234567", 150)
	if err == nil {
		t.Fatal("Transfer should fail when the deadline expires first")
	}
	if reason := settlement.FailReasonFor(err); reason != domain.FailReasonConfirmationTimeout {
		t.Errorf("Deadline expiry should map to confirmation_timeout, got %q", reason)
	}
}

func TestFailReasonFor(t *testing.T) {
	typed := &settlement.TransferError{Reason: domain.FailReasonInsufficientRelayFunds}
	if got := settlement.FailReasonFor(typed); got != domain.FailReasonInsufficientRelayFunds {
		t.Errorf("Typed error should keep its reason, got %q", got)
	}

	wrapped := &settlement.TransferError{Reason: domain.FailReasonRejected, Err: errors.New("relay said no")}
	if got := settlement.FailReasonFor(wrapped); got != domain.FailReasonRejected {
		t.Errorf("Wrapped typed error should keep its reason, got %q", got)
	}

	if got := settlement.FailReasonFor(errors.New("connection reset")); got != domain.FailReasonNetworkError {
		t.Errorf("Untyped error should map to network_error, got %q", got)
	}
}

func TestHexAddressValidator(t *testing.T) {
	valid := []string{
		"0x0123456789abcdef0123456789abcdef01234567",
		"0xABCDEF0123456789abcdef0123456789ABCDEF01",
	}
	for _, a := range valid {
		if !settlement.HexAddressValidator(a) {
			t.Errorf("Address %q should be valid", a)
		}
	}
	invalid := []string{
		"",
		"0x123",
		"0123456789abcdef0123456789abcdef01234567",
		"0x0123456789abcdef0123456789abcdef0123456g",
	}
	for _, a := range invalid {
		if settlement.HexAddressValidator(a) {
			t.Errorf("Address %q should be rejected", a)
		}
	}
}
