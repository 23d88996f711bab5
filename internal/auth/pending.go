package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pakreward/rewards-service/internal/apperr"
)

// PendingRegistration is the transient, unverified registration record. It
// lives only until verification completes or the TTL expires.
type PendingRegistration struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Code         int       `json:"code"`
	Coins        int64     `json:"coins"`
	Spins        int       `json:"spins"`
	ReferralCode string    `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingStore keeps pending registrations in Redis under a per-email key
// with a TTL standing in for session scope.
type PendingStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewPendingStore(client *redis.Client, ttl time.Duration, log *slog.Logger) *PendingStore {
	if log == nil {
		log = slog.Default()
	}

	return &PendingStore{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Set stores the pending record, replacing any previous attempt for the
// same email.
func (s *PendingStore) Set(ctx context.Context, pending PendingRegistration) error {
	data, err := json.Marshal(pending)
	if err != nil {
		s.log.Error("failed to encode pending registration", "error", err)
		return apperr.NewStorageError(err)
	}

	if err := s.client.Set(ctx, pendingKey(pending.Email), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to store pending registration", "error", err)
		return apperr.NewStorageError(err)
	}

	return nil
}

// Get returns the pending record for email, or nil when absent or expired.
func (s *PendingStore) Get(ctx context.Context, email string) (*PendingRegistration, error) {
	data, err := s.client.Get(ctx, pendingKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		s.log.Error("failed to read pending registration", "error", err)
		return nil, apperr.NewStorageError(err)
	}

	var pending PendingRegistration
	if err := json.Unmarshal(data, &pending); err != nil {
		s.log.Warn("pending registration blob is corrupt, discarding", "error", err)
		_ = s.Delete(ctx, email)
		return nil, nil
	}

	return &pending, nil
}

// Delete removes the pending record.
func (s *PendingStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, pendingKey(email)).Err(); err != nil {
		s.log.Error("failed to delete pending registration", "error", err)
		return apperr.NewStorageError(err)
	}

	return nil
}

func pendingKey(email string) string {
	return fmt.Sprintf("rewards:pending:%s", email)
}
