// Package withdrawals tracks withdrawal requests through their settlement
// lifecycle. The ledger debits coins immediately; the journal is the audit
// record that follows requested -> approved/rejected -> settled.
package withdrawals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pakreward/rewards-service/internal/domain"
)

var (
	// ErrRequestNotFound indicates an unknown withdrawal request id.
	ErrRequestNotFound = errors.New("withdrawal request not found")
	// ErrInvalidTransition indicates a status change outside the lifecycle.
	ErrInvalidTransition = errors.New("invalid withdrawal status transition")
)

// Journal defines persistence operations for withdrawal requests.
type Journal interface {
	Record(ctx context.Context, req *domain.WithdrawalRequest) error
	UpdateStatus(ctx context.Context, id string, status domain.WithdrawalStatus) error
	ListByEmail(ctx context.Context, email string) ([]domain.WithdrawalRequest, error)
}

type sqlJournal struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLJournal creates a PostgreSQL-backed journal.
func NewSQLJournal(db *sql.DB, log *slog.Logger) Journal {
	if log == nil {
		log = slog.Default()
	}

	return &sqlJournal{
		db:  db,
		log: log,
	}
}

// Record persists a new withdrawal request.
func (j *sqlJournal) Record(ctx context.Context, req *domain.WithdrawalRequest) error {
	const query = `
		INSERT INTO withdrawal_requests (id, email, amount, coins_debited, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := j.db.ExecContext(
		ctx,
		query,
		req.ID,
		req.Email,
		req.Amount,
		req.CoinsDebited,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	); err != nil {
		j.log.Error("failed to record withdrawal request", slog.String("id", req.ID), slog.Any("error", err))
		return fmt.Errorf("insert withdrawal request: %w", err)
	}

	return nil
}

// UpdateStatus advances a request through its lifecycle, rejecting
// transitions the lifecycle does not allow.
func (j *sqlJournal) UpdateStatus(ctx context.Context, id string, status domain.WithdrawalStatus) error {
	const selectQuery = `
		SELECT status FROM withdrawal_requests WHERE id = $1
	`

	var current domain.WithdrawalStatus
	if err := j.db.QueryRowContext(ctx, selectQuery, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRequestNotFound
		}

		j.log.Error("failed to fetch withdrawal request", slog.String("id", id), slog.Any("error", err))
		return fmt.Errorf("select withdrawal request: %w", err)
	}

	if !current.CanTransition(status) {
		return ErrInvalidTransition
	}

	const updateQuery = `
		UPDATE withdrawal_requests SET status = $2, updated_at = $3 WHERE id = $1
	`

	if _, err := j.db.ExecContext(ctx, updateQuery, id, status, time.Now().UTC()); err != nil {
		j.log.Error("failed to update withdrawal status", slog.String("id", id), slog.Any("error", err))
		return fmt.Errorf("update withdrawal request: %w", err)
	}

	return nil
}

// ListByEmail returns all requests for an account, newest first.
func (j *sqlJournal) ListByEmail(ctx context.Context, email string) ([]domain.WithdrawalRequest, error) {
	const query = `
		SELECT id, email, amount, coins_debited, status, created_at, updated_at
		FROM withdrawal_requests
		WHERE email = $1
		ORDER BY created_at DESC
	`

	rows, err := j.db.QueryContext(ctx, query, email)
	if err != nil {
		j.log.Error("failed to list withdrawal requests", slog.Any("error", err))
		return nil, fmt.Errorf("select withdrawal requests: %w", err)
	}
	defer rows.Close()

	var requests []domain.WithdrawalRequest
	for rows.Next() {
		var req domain.WithdrawalRequest
		if err := rows.Scan(
			&req.ID,
			&req.Email,
			&req.Amount,
			&req.CoinsDebited,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan withdrawal request: %w", err)
		}

		requests = append(requests, req)
	}

	return requests, rows.Err()
}
