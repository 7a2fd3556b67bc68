package domain

// Withdrawal lifecycle states. PENDING and PROCESSING are transient;
// COMPLETED and FAILED are terminal and never left.
const (
	TxStatusPending    = "pending"
	TxStatusProcessing = "processing"
	TxStatusCompleted  = "completed"
	TxStatusFailed     = "failed"
)

// Failure reason codes recorded on FAILED withdrawals
const (
	FailReasonNetworkError           = "network_error"
	FailReasonInsufficientRelayFunds = "insufficient_relay_funds"
	FailReasonConfirmationTimeout    = "confirmation_timeout"
	FailReasonRejected               = "rejected"
)

// WalletTransaction Model: a withdrawal request and its settlement outcome
type WalletTransaction struct {
	ID        uint    `gorm:"primaryKey"` // Primary key
	UserID    uint    `gorm:"index"`      // Requesting user
	Amount    float64 `gorm:"not null"`   // Withdrawal amount in tokens
	ToAddress string  `gorm:"size:128"`   // Destination address

	Status     string `gorm:"size:16;index;default:pending"` // State machine position
	Reference  string `gorm:"size:64"`                       // Settlement reference from the transfer executor
	FailReason string `gorm:"size:32"`                       // Reason code, set only on FAILED

	CreatedAt int64 `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
	UpdatedAt int64 `gorm:"autoUpdateTime:milli"` // Timestamp of last update in milliseconds
}
