// Package handlers implements the background task processors.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/pakreward/rewards-service/internal/jobs"
	"github.com/pakreward/rewards-service/internal/ledger"
	"github.com/pakreward/rewards-service/internal/store"
)

// SpinResetHandler restores every account's spin allowance. One failed
// account aborts the task so asynq retries the whole batch; ResetSpins is
// idempotent, accounts already reset are unaffected.
type SpinResetHandler struct {
	store  store.Store
	ledger *ledger.Service
	log    *slog.Logger
}

func NewSpinResetHandler(st store.Store, ledgerSvc *ledger.Service, log *slog.Logger) *SpinResetHandler {
	return &SpinResetHandler{
		store:  st,
		ledger: ledgerSvc,
		log:    log,
	}
}

func (h *SpinResetHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.SpinResetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "spin reset: failed to decode payload", slog.String("task_type", t.Type()), slog.String("error", err.Error()))
		}
		return err
	}

	accounts, err := h.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	for i := range accounts {
		account := accounts[i]
		if err := h.ledger.ResetSpins(ctx, &account, payload.SpinLimit); err != nil {
			if h.log != nil {
				h.log.ErrorContext(ctx, "spin reset: failed to reset account", slog.String("email", account.Email), slog.Any("error", err))
			}
			return err
		}
	}

	if h.log != nil {
		h.log.InfoContext(ctx, "spin allowances reset", slog.Int("accounts", len(accounts)))
	}

	return nil
}
