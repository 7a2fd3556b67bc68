package settlement

import (
	"context" // Context for deadline-bounded transfers
	"errors"  // Error inspection
	"time"    // Simulated transfer delay

	"github.com/google/uuid" // Reference id generation

	"mining_rewards/internal/domain" // Failure reason codes
)

// TransferExecutor performs the external token transfer for a withdrawal
// and returns a settlement reference id on success.
type TransferExecutor interface {
	Transfer(ctx context.Context, toAddress string, amount float64) (string, error)
}

// TransferError is a transfer failure with a terminal reason code
type TransferError struct {
	Reason string // One of the domain.FailReason* codes
	Err    error  // Underlying cause, may be nil
}

// Error implements the error interface
func (e *TransferError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

// Unwrap exposes the underlying cause
func (e *TransferError) Unwrap() error {
	return e.Err
}

// FailReasonFor maps a transfer error to the reason code recorded on the
// FAILED transaction. Deadline expiry counts as a confirmation timeout;
// anything untyped is treated as a network error.
func FailReasonFor(err error) string {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.FailReasonConfirmationTimeout
	}
	return domain.FailReasonNetworkError
}

// SimulatedExecutor stands in for the real settlement network: it waits a
// fixed delay and fabricates a reference id. It still honors the context
// deadline so the timeout path is exercised end to end.
type SimulatedExecutor struct {
	Delay time.Duration // Fabricated confirmation delay
}

// Transfer returns a fabricated reference id after the configured delay
func (s *SimulatedExecutor) Transfer(ctx context.Context, toAddress string, amount float64) (string, error) {
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return uuid.NewString(), nil // Fabricated settlement reference
	case <-ctx.Done():
		return "", ctx.Err() // Deadline or cancellation
	}
}
