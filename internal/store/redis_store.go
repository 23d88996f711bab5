package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/pakreward/rewards-service/internal/apperr"
	"github.com/pakreward/rewards-service/internal/domain"
)

const usersKey = "rewards:users"

// RedisStore keeps the serialized account collection under a single key.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStore initializes a Redis-backed Store implementation.
func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

// LoadAll returns every persisted account. A missing key and an undecodable
// payload both degrade to an empty collection; the latter is logged.
func (s *RedisStore) LoadAll(ctx context.Context) ([]domain.Account, error) {
	data, err := s.client.Get(ctx, usersKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		s.log.Error("failed to read users blob", "error", err)
		return nil, apperr.NewStorageError(err)
	}

	var accounts []domain.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		corrupt := apperr.NewStoreCorruptError(err)
		s.log.Warn("users blob is corrupt, treating store as empty", "code", corrupt.Code, "error", err)
		return nil, nil
	}

	return accounts, nil
}

// Upsert replaces or appends the account and rewrites the whole collection.
func (s *RedisStore) Upsert(ctx context.Context, account domain.Account) error {
	accounts, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}

	accounts = upsert(accounts, account)

	data, err := json.Marshal(accounts)
	if err != nil {
		s.log.Error("failed to encode users blob", "error", err)
		return apperr.NewStorageError(err)
	}

	if err := s.client.Set(ctx, usersKey, data, 0).Err(); err != nil {
		s.log.Error("failed to persist users blob", "email", account.Email, "error", err)
		return apperr.NewStorageError(err)
	}

	return nil
}

// FindByEmail returns the account for email or ErrNotFound.
func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	accounts, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	return findByEmail(accounts, email)
}
