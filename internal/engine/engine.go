// Package engine is the entry point an interactive surface calls: it
// composes the ledger, the outcome generators and the ad gate into the
// product's reward flows.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pakreward/rewards-service/internal/adgate"
	"github.com/pakreward/rewards-service/internal/apperr"
	"github.com/pakreward/rewards-service/internal/domain"
	"github.com/pakreward/rewards-service/internal/games"
	"github.com/pakreward/rewards-service/internal/idempotency"
	"github.com/pakreward/rewards-service/internal/ledger"
	"github.com/pakreward/rewards-service/internal/withdrawals"
	"github.com/pakreward/rewards-service/pkg/metrics"
)

// Engine orchestrates the gated reward flows over one account snapshot at
// a time. Within a single flow the cost deduction is persisted before the
// win is computed and applied; the two persists are sequential, never a
// joint transaction.
type Engine struct {
	ledger      *ledger.Service
	withdrawals *withdrawals.Service
	gate        *adgate.Gate
	ballDrop    games.BallDrop
	wheel       games.Wheel
	quiz        *games.QuizBank
	rng         *rand.Rand
	log         *slog.Logger
}

// New constructs the Engine. A nil rng falls back to a time-seeded source;
// tests pass a fixed seed.
func New(
	ledgerSvc *ledger.Service,
	withdrawalSvc *withdrawals.Service,
	gate *adgate.Gate,
	quiz *games.QuizBank,
	rng *rand.Rand,
	log *slog.Logger,
) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if quiz == nil {
		quiz = games.NewQuizBank(nil)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		ledger:      ledgerSvc,
		withdrawals: withdrawalSvc,
		gate:        gate,
		ballDrop:    games.NewBallDrop(),
		wheel:       games.NewWheel(),
		quiz:        quiz,
		rng:         rng,
		log:         log,
	}
}

// rejectionNotices maps each ledger rejection to the notice shown for it.
var rejectionNotices = map[error]string{
	ledger.ErrAlreadyClaimed:    "Daily reward already claimed today",
	ledger.ErrInsufficientFunds: "Not enough coins",
	ledger.ErrBelowMinimum:      "Amount is below the withdrawal minimum",
	ledger.ErrAlreadyMining:     "Mining is already running",
	ledger.ErrTooSoon:           "Keep mining a little longer",
	ledger.ErrNoSpinsLeft:       "No spins left today",
}

// surface attaches the user notice to known rejections; the sentinel stays
// reachable through errors.Is. Other errors pass through untouched.
func surface(err error) error {
	if err == nil {
		return nil
	}

	for sentinel, notice := range rejectionNotices {
		if errors.Is(err, sentinel) {
			return apperr.NewRejectionError(err, notice)
		}
	}

	return err
}

// ClaimDailyReward runs the ad countdown and then credits the daily reward.
// The continuation is guarded so a replayed gate cannot credit twice on the
// same date.
func (e *Engine) ClaimDailyReward(ctx context.Context, account *domain.Account, now time.Time) (int64, error) {
	// rejected claims skip the ad entirely
	if account.ClaimedOn(now) {
		return 0, surface(ledger.ErrAlreadyClaimed)
	}

	var newBalance int64
	key := idempotency.GenerateKey("daily", account.Email, now.Format(domain.DateLayout))
	_, err := e.gate.RunGuarded(ctx, key, 48*time.Hour, func(ctx context.Context) error {
		balance, err := e.ledger.ClaimDailyReward(ctx, account, now)
		if err != nil {
			return err
		}

		newBalance = balance
		return nil
	})
	if err != nil {
		return 0, surface(err)
	}

	return newBalance, nil
}

// PlayBallDrop debits the play cost, runs the drop simulation and credits
// the payout. The cost stays paid even when the flow is torn down before
// the payout lands.
func (e *Engine) PlayBallDrop(ctx context.Context, account *domain.Account) (games.BallDropOutcome, error) {
	var outcome games.BallDropOutcome

	if err := e.ledger.SpendOnGame(ctx, account, e.ledger.Config().BallDropCost); err != nil {
		return outcome, surface(err)
	}

	outcome = e.ballDrop.Drop(e.rng)
	metrics.RecordGameOutcome("ball_drop")

	if err := e.ledger.ApplyGameWin(ctx, account, outcome.Payout); err != nil {
		return outcome, surface(err)
	}

	e.log.Info("ball drop finished", "email", account.Email, "payout", outcome.Payout)

	return outcome, nil
}

// SpinWheel consumes a spin, waits out the ad and credits the drawn payout.
func (e *Engine) SpinWheel(ctx context.Context, account *domain.Account) (int64, error) {
	if err := e.ledger.DecrementSpin(ctx, account); err != nil {
		return 0, surface(err)
	}

	win := e.wheel.Spin(e.rng)
	metrics.RecordGameOutcome("spin_wheel")

	if err := e.gate.Run(ctx, func(ctx context.Context) error {
		return e.ledger.ApplyGameWin(ctx, account, win)
	}); err != nil {
		return 0, surface(err)
	}

	e.log.Info("spin finished", "email", account.Email, "win", win, "spins_remaining", account.SpinsRemaining)

	return win, nil
}

// CurrentQuestion exposes the question at the quiz cursor.
func (e *Engine) CurrentQuestion() games.Question {
	return e.quiz.Current()
}

// AnswerQuiz scores the answer, applies the reward or clamped penalty and
// advances the question cursor.
func (e *Engine) AnswerQuiz(ctx context.Context, account *domain.Account, index int) (bool, error) {
	correct := e.quiz.Answer(index)
	metrics.RecordGameOutcome("quiz")

	if err := e.ledger.ApplyQuizResult(ctx, account, correct); err != nil {
		return correct, surface(err)
	}

	return correct, nil
}

// StartMining opens the accrual period after the ad countdown.
func (e *Engine) StartMining(ctx context.Context, account *domain.Account) error {
	if account.MiningActive() {
		return surface(ledger.ErrAlreadyMining)
	}

	return surface(e.gate.Run(ctx, func(ctx context.Context) error {
		return e.ledger.StartMining(ctx, account, time.Now().UTC())
	}))
}

// ClaimMining closes the accrual period and credits the accrued coins.
func (e *Engine) ClaimMining(ctx context.Context, account *domain.Account) (int64, error) {
	earned, err := e.ledger.ClaimMining(ctx, account, time.Now().UTC())
	return earned, surface(err)
}

// RequestWithdraw runs the ad countdown, debits the ledger and journals the
// request.
func (e *Engine) RequestWithdraw(ctx context.Context, account *domain.Account, amount int64) (*domain.WithdrawalRequest, error) {
	var req *domain.WithdrawalRequest

	err := e.gate.Run(ctx, func(ctx context.Context) error {
		r, err := e.withdrawals.Request(ctx, account, amount)
		if err != nil {
			return err
		}

		req = r
		return nil
	})
	if err != nil {
		return nil, surface(err)
	}

	return req, nil
}

// Balance formats the account balance in coins and currency units.
func (e *Engine) Balance(account *domain.Account) string {
	rate := e.ledger.Config().CoinToCurrencyRate

	return fmt.Sprintf("%d coins (%.2f PKR)", account.Coins, float64(account.Coins)/float64(rate))
}
