package settlement

import (
	"context" // Deadline for the external transfer
	"errors"  // Sentinel errors
	"time"    // Transfer timeout

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library

	"mining_rewards/internal/domain" // Importing domain models
)

// Entry-guard violations. All are rejected before any row is created.
var (
	ErrBelowMinimum        = errors.New("withdrawal amount below minimum")
	ErrInsufficientBalance = errors.New("withdrawal amount exceeds balance")
	ErrInvalidAddress      = errors.New("destination address is not valid")
)

// ErrAlreadyClaimed is returned when a settlement attempt loses the claim
// race for a pending transaction.
var ErrAlreadyClaimed = errors.New("transaction already claimed")

// WithdrawalPipeline drives a withdrawal through its state machine:
// PENDING -> PROCESSING -> {COMPLETED | FAILED}. Terminal states are final;
// a failed withdrawal is retried by creating a new request.
type WithdrawalPipeline struct {
	db       *gorm.DB         // Ledger store handle
	executor TransferExecutor // External transfer call
	validate AddressValidator // Destination address check
	minimum  float64          // Smallest allowed withdrawal
	timeout  time.Duration    // Bound on the external transfer
}

// NewWithdrawalPipeline wires the pipeline to its collaborators
func NewWithdrawalPipeline(db *gorm.DB, executor TransferExecutor, validate AddressValidator, minimum float64, timeout time.Duration) *WithdrawalPipeline {
	return &WithdrawalPipeline{db: db, executor: executor, validate: validate, minimum: minimum, timeout: timeout}
}

// Request validates a withdrawal and creates the PENDING row. Violations
// reject before any state change: no row exists for a rejected request.
func (p *WithdrawalPipeline) Request(userID uint, amount float64, toAddress string) (*domain.WalletTransaction, error) {
	if amount < p.minimum {
		return nil, ErrBelowMinimum
	}
	if !p.validate(toAddress) {
		return nil, ErrInvalidAddress
	}
	var user domain.User
	if err := p.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	if amount > user.VirtualBalance {
		return nil, ErrInsufficientBalance
	}
	tx := domain.WalletTransaction{
		UserID:    userID,                 // Requesting user
		Amount:    amount,                 // Withdrawal amount
		ToAddress: toAddress,              // Destination address
		Status:    domain.TxStatusPending, // State machine entry
	}
	if err := p.db.Create(&tx).Error; err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,     // Requesting user
		"tx_id":   tx.ID,      // New transaction
		"amount":  amount,     // Withdrawal amount
		"address": toAddress,  // Destination
	}).Info("Withdrawal requested")
	return &tx, nil
}

// Claim moves a transaction from PENDING to PROCESSING for exactly one
// caller. The conditional update on status is the single-claim guard:
// losing the race affects zero rows.
func (p *WithdrawalPipeline) Claim(txID uint) error {
	res := p.db.Model(&domain.WalletTransaction{}).
		Where("id = ? AND status = ?", txID, domain.TxStatusPending).
		Update("status", domain.TxStatusProcessing)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyClaimed // Another attempt got there first, or already terminal
	}
	return nil
}

// Settle runs one full settlement attempt: claim the transaction, execute
// the external transfer under the configured deadline, and land in a
// terminal state. The transaction never stays PROCESSING past this call.
func (p *WithdrawalPipeline) Settle(ctx context.Context, txID uint) error {
	if err := p.Claim(txID); err != nil {
		return err
	}
	var tx domain.WalletTransaction
	if err := p.db.First(&tx, txID).Error; err != nil {
		return err
	}

	transferCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	reference, err := p.executor.Transfer(transferCtx, tx.ToAddress, tx.Amount)
	if err != nil {
		// Funds are only debited on confirmed success, so a failed transfer
		// just marks the record and leaves the balance alone.
		reason := FailReasonFor(err)
		logrus.WithFields(logrus.Fields{
			"tx_id":  txID,   // Failing transaction
			"reason": reason, // Terminal reason code
			"error":  err.Error(),
		}).Warn("Withdrawal transfer failed")
		return p.Fail(txID, reason)
	}
	return p.Complete(txID, reference)
}

// Complete moves a PROCESSING transaction to COMPLETED and debits the
// user's balance. The conditional status transition guards the debit: a
// repeated completion affects zero rows and decrements nothing.
func (p *WithdrawalPipeline) Complete(txID uint, reference string) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var wt domain.WalletTransaction
		if err := tx.First(&wt, txID).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.WalletTransaction{}).
			Where("id = ? AND status = ?", txID, domain.TxStatusProcessing).
			Updates(map[string]any{
				"status":    domain.TxStatusCompleted, // Terminal state
				"reference": reference,                // Settlement reference
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // Already terminal; the debit must not repeat
		}
		// Debit exactly once, atomically
		if err := tx.Model(&domain.User{}).Where("id = ?", wt.UserID).
			Update("virtual_balance", gorm.Expr("virtual_balance - ?", wt.Amount)).Error; err != nil {
			return err // Rollback the status transition
		}
		logrus.WithFields(logrus.Fields{
			"user_id":   wt.UserID, // Debited user
			"tx_id":     txID,      // Completed transaction
			"amount":    wt.Amount, // Debited amount
			"reference": reference, // Settlement reference
		}).Info("Withdrawal completed")
		return nil
	})
}

// Fail moves a PROCESSING transaction to FAILED with a reason code. The
// balance is untouched; the record stays FAILED permanently and the user
// retries with a new request.
func (p *WithdrawalPipeline) Fail(txID uint, reason string) error {
	return p.db.Model(&domain.WalletTransaction{}).
		Where("id = ? AND status = ?", txID, domain.TxStatusProcessing).
		Updates(map[string]any{
			"status":      domain.TxStatusFailed, // Terminal state
			"fail_reason": reason,                // Why the transfer failed
		}).Error
}
