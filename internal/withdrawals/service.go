package withdrawals

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pakreward/rewards-service/internal/domain"
	"github.com/pakreward/rewards-service/internal/ledger"
	"github.com/pakreward/rewards-service/pkg/metrics"
)

// Service combines the ledger debit with the journal record. When no
// journal is configured the debit still happens; only the audit trail is
// skipped.
type Service struct {
	ledger  *ledger.Service
	journal Journal
	log     *slog.Logger
}

func NewService(ledgerSvc *ledger.Service, journal Journal, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		ledger:  ledgerSvc,
		journal: journal,
		log:     log,
	}
}

// Request debits the withdrawal through the ledger and journals it. The
// ledger rejections (below minimum, insufficient funds) pass through
// unchanged; no funds move when the request is rejected.
func (s *Service) Request(ctx context.Context, account *domain.Account, amount int64) (*domain.WithdrawalRequest, error) {
	coinsDebited, err := s.ledger.RequestWithdraw(ctx, account, amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req := &domain.WithdrawalRequest{
		ID:           uuid.NewString(),
		Email:        account.Email,
		Amount:       amount,
		CoinsDebited: coinsDebited,
		Status:       domain.WithdrawalRequested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	metrics.RecordWithdrawal(string(domain.WithdrawalRequested))

	if s.journal == nil {
		s.log.Debug("withdrawal journal disabled, skipping audit record", "email", account.Email)
		return req, nil
	}

	if err := s.journal.Record(ctx, req); err != nil {
		// the debit has already been persisted; surface the journal
		// failure without attempting compensation
		return req, err
	}

	return req, nil
}

// Advance moves a journaled request through its lifecycle.
func (s *Service) Advance(ctx context.Context, id string, status domain.WithdrawalStatus) error {
	if s.journal == nil {
		return ErrRequestNotFound
	}

	if err := s.journal.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	metrics.RecordWithdrawal(string(status))

	return nil
}

// History lists journaled requests for an account.
func (s *Service) History(ctx context.Context, email string) ([]domain.WithdrawalRequest, error) {
	if s.journal == nil {
		return nil, nil
	}

	return s.journal.ListByEmail(ctx, email)
}
