package ledger

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pakreward/rewards-service/internal/domain"
	"github.com/pakreward/rewards-service/internal/store"
	"github.com/pakreward/rewards-service/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLedgerConfig() config.LedgerConfig {
	return config.LedgerConfig{
		CoinToCurrencyRate: 50000,
		MinWithdraw:        500,
		MiningRatePerHour:  50,
		SpinLimit:          4,
		DailyReward:        150,
		QuizReward:         50,
		QuizPenalty:        10,
		SignupBonus:        100,
		BallDropCost:       100,
	}
}

func setupService(t *testing.T) (*Service, store.Store) {
	t.Helper()

	st := store.NewFileStore(filepath.Join(t.TempDir(), "users.json"), testLogger())

	return NewService(st, testLedgerConfig(), testLogger()), st
}

func account(coins int64) *domain.Account {
	return &domain.Account{
		Email:          "a@example.com",
		Coins:          coins,
		SpinsRemaining: 4,
	}
}

func TestClaimDailyReward(t *testing.T) {
	svc, st := setupService(t)
	ctx := context.Background()
	acct := account(0)
	today := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	balance, err := svc.ClaimDailyReward(ctx, acct, today)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	// mutation is persisted, not just in memory
	stored, err := st.FindByEmail(ctx, acct.Email)
	require.NoError(t, err)
	assert.Equal(t, int64(150), stored.Coins)
	assert.Equal(t, "2024-05-01", stored.LastDailyClaim)
}

func TestClaimDailyReward_SameDayRejected(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	acct := account(0)
	today := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	_, err := svc.ClaimDailyReward(ctx, acct, today)
	require.NoError(t, err)

	// later the same day, rejected with no balance change
	_, err = svc.ClaimDailyReward(ctx, acct, today.Add(6*time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, int64(150), acct.Coins)

	// next day succeeds again
	balance, err := svc.ClaimDailyReward(ctx, acct, today.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(300), balance)
}

func TestSpendOnGame(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	acct := account(100)
	require.NoError(t, svc.SpendOnGame(ctx, acct, 100))
	assert.Equal(t, int64(0), acct.Coins)

	err := svc.SpendOnGame(ctx, acct, 100)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(0), acct.Coins)
}

func TestApplyGameWin(t *testing.T) {
	svc, st := setupService(t)
	ctx := context.Background()

	acct := account(0)
	require.NoError(t, svc.ApplyGameWin(ctx, acct, 300))
	assert.Equal(t, int64(300), acct.Coins)

	stored, err := st.FindByEmail(ctx, acct.Email)
	require.NoError(t, err)
	assert.Equal(t, int64(300), stored.Coins)
}

func TestRequestWithdraw(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		coins       int64
		amount      int64
		wantCoins   int64
		wantDebited int64
		wantErr     error
	}{
		{
			name:        "exact cover",
			coins:       25_000_000,
			amount:      500,
			wantCoins:   0,
			wantDebited: 25_000_000,
		},
		{
			name:    "below minimum",
			coins:   25_000_000,
			amount:  499,
			wantErr: ErrBelowMinimum,
		},
		{
			name:    "insufficient funds",
			coins:   100,
			amount:  500,
			wantErr: ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupService(t)
			acct := account(tt.coins)

			debited, err := svc.RequestWithdraw(ctx, acct, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.coins, acct.Coins)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDebited, debited)
			assert.Equal(t, tt.wantCoins, acct.Coins)
		})
	}
}

func TestMiningLifecycle(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	acct := account(0)
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, svc.StartMining(ctx, acct, start))

	// a second start while a period is open is rejected
	err := svc.StartMining(ctx, acct, start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyMining)

	// 2h at 50/h earns exactly 100 and closes the period
	earned, err := svc.ClaimMining(ctx, acct, start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(100), earned)
	assert.Equal(t, int64(100), acct.Coins)
	assert.Nil(t, acct.MiningStartedAt)
}

func TestClaimMining_TooSoonKeepsTimer(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	acct := account(0)
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, svc.StartMining(ctx, acct, start))

	_, err := svc.ClaimMining(ctx, acct, start.Add(3*time.Minute))
	assert.ErrorIs(t, err, ErrTooSoon)

	// the period stays open and keeps its original start
	require.NotNil(t, acct.MiningStartedAt)
	assert.Equal(t, start, *acct.MiningStartedAt)
	assert.Equal(t, int64(0), acct.Coins)
}

func TestClaimMining_WithoutOpenPeriod(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.ClaimMining(context.Background(), account(0), time.Now())
	assert.ErrorIs(t, err, ErrTooSoon)
}

func TestClaimMining_FloorsFractionalEarnings(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	acct := account(0)
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, svc.StartMining(ctx, acct, start))

	// 90 minutes at 50/h is 75; 99 minutes is 82.5, floored to 82
	earned, err := svc.ClaimMining(ctx, acct, start.Add(99*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(82), earned)
}

func TestSpinAllowance(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	acct := account(0)

	for i := 0; i < 4; i++ {
		require.NoError(t, svc.DecrementSpin(ctx, acct))
	}
	assert.Equal(t, 0, acct.SpinsRemaining)

	err := svc.DecrementSpin(ctx, acct)
	assert.ErrorIs(t, err, ErrNoSpinsLeft)

	require.NoError(t, svc.ResetSpins(ctx, acct, 4))
	assert.Equal(t, 4, acct.SpinsRemaining)
}

func TestResetSpins_Limit(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	acct := account(0)
	acct.SpinsRemaining = 0

	// the task payload value wins over the configured limit
	require.NoError(t, svc.ResetSpins(ctx, acct, 6))
	assert.Equal(t, 6, acct.SpinsRemaining)

	// a non-positive limit falls back to the configured limit
	require.NoError(t, svc.ResetSpins(ctx, acct, 0))
	assert.Equal(t, 4, acct.SpinsRemaining)
}

func TestApplyQuizResult(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		coins   int64
		correct bool
		want    int64
	}{
		{name: "correct answer credits", coins: 0, correct: true, want: 50},
		{name: "wrong answer debits", coins: 100, correct: false, want: 90},
		{name: "penalty clamps at zero", coins: 3, correct: false, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupService(t)
			acct := account(tt.coins)

			require.NoError(t, svc.ApplyQuizResult(ctx, acct, tt.correct))
			assert.Equal(t, tt.want, acct.Coins)
		})
	}
}
