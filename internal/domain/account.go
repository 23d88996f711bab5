package domain

import "time"

// DateLayout is the calendar-date format used for daily-claim bookkeeping.
// Claims are compared by calendar date, not by a rolling 24h window.
const DateLayout = "2006-01-02"

// Account represents a registered rewards user persisted in the record store.
type Account struct {
	Email           string     `json:"email"`
	PasswordHash    string     `json:"password_hash"`
	Coins           int64      `json:"coins"`
	SpinsRemaining  int        `json:"spins_remaining"`
	MiningStartedAt *time.Time `json:"mining_started_at,omitempty"`
	LastDailyClaim  string     `json:"last_daily_claim,omitempty"`
	ReferralCode    string     `json:"referral_code"`
	CreatedAt       time.Time  `json:"created_at"`
}

// MiningActive reports whether an accrual period is currently open.
func (a *Account) MiningActive() bool {
	return a != nil && a.MiningStartedAt != nil
}

// ClaimedOn reports whether the daily reward was already claimed on the given day.
func (a *Account) ClaimedOn(day time.Time) bool {
	if a == nil {
		return false
	}

	return a.LastDailyClaim == day.Format(DateLayout)
}
