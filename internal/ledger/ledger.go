// Package ledger owns every balance-affecting mutation. All operations take
// the account by exclusive in-memory ownership, mutate fields, then persist
// write-through: the caller never observes a balance that has not been
// stored.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/pakreward/rewards-service/internal/apperr"
	"github.com/pakreward/rewards-service/internal/domain"
	"github.com/pakreward/rewards-service/internal/store"
	"github.com/pakreward/rewards-service/pkg/config"
	"github.com/pakreward/rewards-service/pkg/metrics"
)

// Rejections surfaced to the triggering action. None are fatal.
var (
	ErrAlreadyClaimed    = errors.New("daily reward already claimed today")
	ErrInsufficientFunds = errors.New("insufficient coin balance")
	ErrBelowMinimum      = errors.New("amount is below the withdrawal minimum")
	ErrAlreadyMining     = errors.New("an accrual period is already open")
	ErrTooSoon           = errors.New("accrual period too short to claim")
	ErrNoSpinsLeft       = errors.New("no spins remaining")
)

// minClaimableHours is the shortest accrual period that can be claimed.
const minClaimableHours = 0.1

// Service applies reward, game and withdrawal mutations to accounts.
type Service struct {
	store store.Store
	cfg   config.LedgerConfig
	log   *slog.Logger
}

// NewService constructs the ledger over the given store and constants.
func NewService(st store.Store, cfg config.LedgerConfig, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		store: st,
		cfg:   cfg,
		log:   log,
	}
}

// Config exposes the ledger constants to collaborating services.
func (s *Service) Config() config.LedgerConfig {
	return s.cfg
}

// ClaimDailyReward credits the daily reward once per calendar date.
// A second claim on the same date is rejected with ErrAlreadyClaimed.
func (s *Service) ClaimDailyReward(ctx context.Context, account *domain.Account, today time.Time) (int64, error) {
	op := s.trackOp("claim_daily")

	if account.ClaimedOn(today) {
		return 0, op(ErrAlreadyClaimed)
	}

	account.Coins += s.cfg.DailyReward
	account.LastDailyClaim = today.Format(domain.DateLayout)

	if err := s.persist(ctx, account); err != nil {
		return 0, op(err)
	}

	metrics.RecordCoinsAwarded("daily_reward", s.cfg.DailyReward)
	s.log.Info("daily reward claimed", "email", account.Email, "coins", account.Coins)

	return account.Coins, op(nil)
}

// SpendOnGame debits the up-front cost of a game play. The cost is paid
// before the outcome is known and is not refunded.
func (s *Service) SpendOnGame(ctx context.Context, account *domain.Account, cost int64) error {
	op := s.trackOp("spend_on_game")

	if account.Coins < cost {
		return op(ErrInsufficientFunds)
	}

	account.Coins -= cost

	if err := s.persist(ctx, account); err != nil {
		return op(err)
	}

	metrics.RecordCoinsSpent("game_cost", cost)

	return op(nil)
}

// ApplyGameWin credits a game payout unconditionally.
func (s *Service) ApplyGameWin(ctx context.Context, account *domain.Account, amount int64) error {
	op := s.trackOp("apply_game_win")

	account.Coins += amount

	if err := s.persist(ctx, account); err != nil {
		return op(err)
	}

	metrics.RecordCoinsAwarded("game_win", amount)

	return op(nil)
}

// RequestWithdraw validates and debits a withdrawal. The amount is expressed
// in currency units; the debit is amount scaled by the coin-to-currency
// rate. Funds are deducted immediately; settlement is tracked elsewhere.
// Returns the number of coins debited.
func (s *Service) RequestWithdraw(ctx context.Context, account *domain.Account, amount int64) (int64, error) {
	op := s.trackOp("request_withdraw")

	if amount < s.cfg.MinWithdraw {
		return 0, op(ErrBelowMinimum)
	}

	coins := amount * s.cfg.CoinToCurrencyRate
	if account.Coins < coins {
		return 0, op(ErrInsufficientFunds)
	}

	account.Coins -= coins

	if err := s.persist(ctx, account); err != nil {
		return 0, op(err)
	}

	metrics.RecordCoinsSpent("withdrawal", coins)
	s.log.Info("withdrawal debited", "email", account.Email, "amount", amount, "coins_debited", coins)

	return coins, op(nil)
}

// StartMining opens an accrual period. Only one period may be open at a
// time per account.
func (s *Service) StartMining(ctx context.Context, account *domain.Account, now time.Time) error {
	op := s.trackOp("start_mining")

	if account.MiningActive() {
		return op(ErrAlreadyMining)
	}

	started := now
	account.MiningStartedAt = &started

	if err := s.persist(ctx, account); err != nil {
		return op(err)
	}

	return op(nil)
}

// ClaimMining closes the accrual period and credits floor(elapsedHours *
// rate). Claims under the minimum period are rejected without resetting the
// timer.
func (s *Service) ClaimMining(ctx context.Context, account *domain.Account, now time.Time) (int64, error) {
	op := s.trackOp("claim_mining")

	if !account.MiningActive() {
		return 0, op(ErrTooSoon)
	}

	elapsedHours := now.Sub(*account.MiningStartedAt).Hours()
	if elapsedHours < minClaimableHours {
		return 0, op(ErrTooSoon)
	}

	earned := int64(math.Floor(elapsedHours * float64(s.cfg.MiningRatePerHour)))
	account.Coins += earned
	account.MiningStartedAt = nil

	if err := s.persist(ctx, account); err != nil {
		return 0, op(err)
	}

	metrics.RecordCoinsAwarded("mining", earned)
	s.log.Info("mining claimed", "email", account.Email, "earned", earned)

	return earned, op(nil)
}

// DecrementSpin consumes one spin from the allowance.
func (s *Service) DecrementSpin(ctx context.Context, account *domain.Account) error {
	op := s.trackOp("decrement_spin")

	if account.SpinsRemaining <= 0 {
		return op(ErrNoSpinsLeft)
	}

	account.SpinsRemaining--

	if err := s.persist(ctx, account); err != nil {
		return op(err)
	}

	return op(nil)
}

// ResetSpins restores the allowance to limit, the value carried by the
// scheduled reset task. A non-positive limit falls back to the configured
// spin limit.
func (s *Service) ResetSpins(ctx context.Context, account *domain.Account, limit int) error {
	op := s.trackOp("reset_spins")

	if limit <= 0 {
		limit = s.cfg.SpinLimit
	}
	account.SpinsRemaining = limit

	if err := s.persist(ctx, account); err != nil {
		return op(err)
	}

	return op(nil)
}

// ApplyQuizResult credits the quiz reward for a correct answer and debits
// the penalty otherwise. The penalty is clamped so the balance never goes
// negative.
func (s *Service) ApplyQuizResult(ctx context.Context, account *domain.Account, correct bool) error {
	op := s.trackOp("apply_quiz_result")

	if correct {
		account.Coins += s.cfg.QuizReward
		metrics.RecordCoinsAwarded("quiz", s.cfg.QuizReward)
	} else {
		penalty := s.cfg.QuizPenalty
		if penalty > account.Coins {
			penalty = account.Coins
		}
		account.Coins -= penalty
		metrics.RecordCoinsSpent("quiz_penalty", penalty)
	}

	if err := s.persist(ctx, account); err != nil {
		return op(err)
	}

	return op(nil)
}

func (s *Service) persist(ctx context.Context, account *domain.Account) error {
	return apperr.WithRetry(ctx, func() error {
		return s.store.Upsert(ctx, *account)
	})
}

// trackOp starts a timer for the operation and returns a closer that
// records the outcome and passes the error through.
func (s *Service) trackOp(operation string) func(error) error {
	start := time.Now()

	return func(err error) error {
		status := "ok"
		if err != nil {
			status = "rejected"
			if apperr.IsRetryable(err) {
				status = "error"
			}
		}

		metrics.RecordLedgerOp(operation, status, time.Since(start))

		return err
	}
}
