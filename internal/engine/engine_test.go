package engine

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pakreward/rewards-service/internal/adgate"
	"github.com/pakreward/rewards-service/internal/apperr"
	"github.com/pakreward/rewards-service/internal/domain"
	"github.com/pakreward/rewards-service/internal/idempotency"
	"github.com/pakreward/rewards-service/internal/ledger"
	"github.com/pakreward/rewards-service/internal/store"
	"github.com/pakreward/rewards-service/internal/withdrawals"
	"github.com/pakreward/rewards-service/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupEngine(t *testing.T) (*Engine, store.Store) {
	return setupEngineWithCountdown(t, time.Millisecond)
}

func setupEngineWithCountdown(t *testing.T, countdown time.Duration) (*Engine, store.Store) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	st := store.NewRedisStore(client, testLogger())
	ledgerSvc := ledger.NewService(st, config.LedgerConfig{
		CoinToCurrencyRate: 50000,
		MinWithdraw:        500,
		MiningRatePerHour:  50,
		SpinLimit:          4,
		DailyReward:        150,
		QuizReward:         50,
		QuizPenalty:        10,
		SignupBonus:        100,
		BallDropCost:       100,
	}, testLogger())

	once := idempotency.NewManager(idempotency.NewRedisStore(client, testLogger()), testLogger())
	gate := adgate.New(countdown, once, testLogger())
	withdrawalSvc := withdrawals.NewService(ledgerSvc, nil, testLogger())

	eng := New(ledgerSvc, withdrawalSvc, gate, nil, rand.New(rand.NewSource(11)), testLogger())

	return eng, st
}

func TestClaimDailyReward_GatedOncePerDate(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	acct := &domain.Account{Email: "a@example.com"}
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	balance, err := eng.ClaimDailyReward(ctx, acct, now)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	_, err = eng.ClaimDailyReward(ctx, acct, now)
	assert.ErrorIs(t, err, ledger.ErrAlreadyClaimed)
	assert.Equal(t, int64(150), acct.Coins)
}

func TestRejectionsCarryUserNotice(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()

	// every rejection surfaced by a flow wraps its sentinel in an
	// AppError holding the notice to show, recoverable by the handler
	tests := []struct {
		name       string
		run        func() error
		sentinel   error
		wantNotice string
	}{
		{
			name: "no spins left",
			run: func() error {
				_, err := eng.SpinWheel(ctx, &domain.Account{Email: "a@example.com"})
				return err
			},
			sentinel:   ledger.ErrNoSpinsLeft,
			wantNotice: "No spins left today",
		},
		{
			name: "insufficient funds",
			run: func() error {
				_, err := eng.PlayBallDrop(ctx, &domain.Account{Email: "a@example.com", Coins: 1})
				return err
			},
			sentinel:   ledger.ErrInsufficientFunds,
			wantNotice: "Not enough coins",
		},
		{
			name: "below withdrawal minimum",
			run: func() error {
				_, err := eng.RequestWithdraw(ctx, &domain.Account{Email: "a@example.com", Coins: 25_000_000}, 1)
				return err
			},
			sentinel:   ledger.ErrBelowMinimum,
			wantNotice: "Amount is below the withdrawal minimum",
		},
		{
			name: "mining claim too soon",
			run: func() error {
				_, err := eng.ClaimMining(ctx, &domain.Account{Email: "a@example.com"})
				return err
			},
			sentinel:   ledger.ErrTooSoon,
			wantNotice: "Keep mining a little longer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.ErrorIs(t, err, tt.sentinel)

			var appErr *apperr.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantNotice, appErr.UserMessage)
		})
	}
}

func TestClaimDailyReward_CancelledAdLeavesStateUntouched(t *testing.T) {
	eng, st := setupEngineWithCountdown(t, time.Hour)
	acct := &domain.Account{Email: "a@example.com"}
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.ClaimDailyReward(ctx, acct, now)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), acct.Coins)
	assert.Empty(t, acct.LastDailyClaim)

	// nothing was persisted either
	_, err = st.FindByEmail(context.Background(), acct.Email)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPlayBallDrop(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	acct := &domain.Account{Email: "a@example.com", Coins: 100}

	outcome, err := eng.PlayBallDrop(ctx, acct)
	require.NoError(t, err)

	// balance is start minus the 100 cost plus the bucketed payout
	assert.Contains(t, []int64{50, 300}, outcome.Payout)
	assert.Equal(t, outcome.Payout, acct.Coins)
}

func TestPlayBallDrop_InsufficientFunds(t *testing.T) {
	eng, _ := setupEngine(t)
	acct := &domain.Account{Email: "a@example.com", Coins: 99}

	_, err := eng.PlayBallDrop(context.Background(), acct)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Equal(t, int64(99), acct.Coins)
}

func TestSpinWheel(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	acct := &domain.Account{Email: "a@example.com", SpinsRemaining: 4}

	win, err := eng.SpinWheel(ctx, acct)
	require.NoError(t, err)
	assert.Contains(t, []int64{50, 100, 200, 500}, win)
	assert.Equal(t, win, acct.Coins)
	assert.Equal(t, 3, acct.SpinsRemaining)
}

func TestSpinWheel_AllowanceExhausted(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	acct := &domain.Account{Email: "a@example.com", SpinsRemaining: 4}

	for i := 0; i < 4; i++ {
		_, err := eng.SpinWheel(ctx, acct)
		require.NoError(t, err)
	}

	_, err := eng.SpinWheel(ctx, acct)
	assert.ErrorIs(t, err, ledger.ErrNoSpinsLeft)
}

func TestSpinWheel_CancelledAdForfeitsSpinAndWin(t *testing.T) {
	eng, _ := setupEngineWithCountdown(t, time.Hour)
	acct := &domain.Account{Email: "a@example.com", SpinsRemaining: 4}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.SpinWheel(ctx, acct)
	assert.ErrorIs(t, err, context.Canceled)

	// the spin was consumed before the ad; the win never lands
	assert.Equal(t, 3, acct.SpinsRemaining)
	assert.Equal(t, int64(0), acct.Coins)
}

func TestAnswerQuiz(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	acct := &domain.Account{Email: "a@example.com", Coins: 5}

	question := eng.CurrentQuestion()

	correct, err := eng.AnswerQuiz(ctx, acct, question.CorrectIndex)
	require.NoError(t, err)
	assert.True(t, correct)
	assert.Equal(t, int64(55), acct.Coins)

	// cursor advanced to a different question
	next := eng.CurrentQuestion()
	assert.NotEqual(t, question.Prompt, next.Prompt)

	wrong := next.CorrectIndex + 1
	if wrong >= len(next.Options) {
		wrong = 0
	}
	correct, err = eng.AnswerQuiz(ctx, acct, wrong)
	require.NoError(t, err)
	assert.False(t, correct)
	assert.Equal(t, int64(45), acct.Coins)
}

func TestMiningFlow(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	acct := &domain.Account{Email: "a@example.com"}

	require.NoError(t, eng.StartMining(ctx, acct))
	assert.True(t, acct.MiningActive())

	err := eng.StartMining(ctx, acct)
	assert.ErrorIs(t, err, ledger.ErrAlreadyMining)

	// immediately claiming is below the minimum accrual period
	_, err = eng.ClaimMining(ctx, acct)
	assert.ErrorIs(t, err, ledger.ErrTooSoon)
	assert.True(t, acct.MiningActive())
}

func TestRequestWithdraw(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	acct := &domain.Account{Email: "a@example.com", Coins: 25_000_000}

	req, err := eng.RequestWithdraw(ctx, acct, 500)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalRequested, req.Status)
	assert.Equal(t, int64(25_000_000), req.CoinsDebited)
	assert.Equal(t, int64(0), acct.Coins)
}

func TestRequestWithdraw_CancelledAdKeepsFunds(t *testing.T) {
	eng, _ := setupEngineWithCountdown(t, time.Hour)
	acct := &domain.Account{Email: "a@example.com", Coins: 25_000_000}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.RequestWithdraw(ctx, acct, 500)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(25_000_000), acct.Coins)
}

func TestBalance(t *testing.T) {
	eng, _ := setupEngine(t)

	assert.Equal(t, "25000000 coins (500.00 PKR)",
		eng.Balance(&domain.Account{Coins: 25_000_000}))
	assert.Equal(t, "0 coins (0.00 PKR)",
		eng.Balance(&domain.Account{}))
}
