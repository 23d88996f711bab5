// Package session tracks which account is currently "logged in" across
// restarts, independently of the account collection.
package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/pakreward/rewards-service/internal/apperr"
	"github.com/pakreward/rewards-service/internal/domain"
	"github.com/pakreward/rewards-service/internal/store"
)

const sessionKey = "rewards:session"

// ErrNoSession indicates that no account is currently active.
var ErrNoSession = errors.New("no active session")

// Manager persists the active-session email under its own key.
type Manager struct {
	client *redis.Client
	store  store.Store
	log    *slog.Logger
}

// NewManager constructs a session Manager over the given Redis client and
// account store.
func NewManager(client *redis.Client, st store.Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		client: client,
		store:  st,
		log:    log,
	}
}

// SetActive records email as the logged-in account.
func (m *Manager) SetActive(ctx context.Context, email string) error {
	if err := m.client.Set(ctx, sessionKey, email, 0).Err(); err != nil {
		m.log.Error("failed to persist session", "error", err)
		return apperr.NewStorageError(err)
	}

	return nil
}

// Active returns the logged-in email or ErrNoSession.
func (m *Manager) Active(ctx context.Context) (string, error) {
	email, err := m.client.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoSession
		}

		m.log.Error("failed to read session", "error", err)
		return "", apperr.NewStorageError(err)
	}

	if email == "" {
		return "", ErrNoSession
	}

	return email, nil
}

// Clear removes the active session.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.client.Del(ctx, sessionKey).Err(); err != nil {
		m.log.Error("failed to clear session", "error", err)
		return apperr.NewStorageError(err)
	}

	return nil
}

// Resolve runs the startup flow: active email -> account lookup. A session
// pointing at a missing account fails-soft to the unauthenticated state (the
// stale session is cleared); so does an absent session. The returned account
// is nil when unauthenticated.
func (m *Manager) Resolve(ctx context.Context) (*domain.Account, error) {
	email, err := m.Active(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}

		return nil, err
	}

	account, err := m.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			m.log.Warn("session points at a missing account, clearing", "email", email)
			_ = m.Clear(ctx)
			return nil, nil
		}

		return nil, err
	}

	return account, nil
}
