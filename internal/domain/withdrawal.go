package domain

import "time"

// WithdrawalStatus tracks the lifecycle of a withdrawal request.
type WithdrawalStatus string

const (
	// WithdrawalRequested is the initial status; coins are already debited.
	WithdrawalRequested WithdrawalStatus = "requested"
	// WithdrawalApproved marks a request cleared for payout.
	WithdrawalApproved WithdrawalStatus = "approved"
	// WithdrawalRejected marks a request that will not be paid out.
	WithdrawalRejected WithdrawalStatus = "rejected"
	// WithdrawalSettled marks a request whose payout completed.
	WithdrawalSettled WithdrawalStatus = "settled"
)

// WithdrawalRequest is the audit record created for every withdrawal.
// The ledger debits the account immediately; the request tracks settlement.
type WithdrawalRequest struct {
	ID           string
	Email        string
	Amount       int64
	CoinsDebited int64
	Status       WithdrawalStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanTransition reports whether the status change is allowed.
// requested -> approved | rejected, approved -> settled.
func (s WithdrawalStatus) CanTransition(to WithdrawalStatus) bool {
	switch s {
	case WithdrawalRequested:
		return to == WithdrawalApproved || to == WithdrawalRejected
	case WithdrawalApproved:
		return to == WithdrawalSettled
	default:
		return false
	}
}
