// Package store persists the account collection as a single keyed blob,
// mirroring the product's original storage shape: the whole collection is
// loaded on every read and rewritten on every mutation.
package store

import (
	"context"
	"errors"

	"github.com/pakreward/rewards-service/internal/domain"
)

// ErrNotFound indicates that no account exists for the requested email.
var ErrNotFound = errors.New("account not found")

// Store defines persistence operations for accounts. Implementations
// fail-soft on corrupt or missing blobs: LoadAll degrades to an empty
// collection instead of erroring.
//
// Upsert is not atomic across concurrent writers; the service assumes a
// single acting writer per deployment.
type Store interface {
	// LoadAll reads and decodes every persisted account in insertion order.
	LoadAll(ctx context.Context) ([]domain.Account, error)
	// Upsert replaces the account matching Email when present, appends
	// otherwise, and persists the full collection.
	Upsert(ctx context.Context, account domain.Account) error
	// FindByEmail returns the account for email or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
}

func findByEmail(accounts []domain.Account, email string) (*domain.Account, error) {
	for i := range accounts {
		if accounts[i].Email == email {
			found := accounts[i]
			return &found, nil
		}
	}

	return nil, ErrNotFound
}

func upsert(accounts []domain.Account, account domain.Account) []domain.Account {
	for i := range accounts {
		if accounts[i].Email == account.Email {
			accounts[i] = account
			return accounts
		}
	}

	return append(accounts, account)
}
