// Package auth implements registration with code verification, login and
// logout. Credentials are hashed with bcrypt; the plaintext storage of the
// original product is deliberately not reproduced.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	validator "github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/pakreward/rewards-service/internal/apperr"
	"github.com/pakreward/rewards-service/internal/domain"
	"github.com/pakreward/rewards-service/internal/ratelimit"
	"github.com/pakreward/rewards-service/internal/session"
	"github.com/pakreward/rewards-service/internal/store"
	"github.com/pakreward/rewards-service/pkg/config"
)

var (
	ErrDuplicateEmail          = errors.New("email is already registered")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidVerificationCode = errors.New("verification code does not match")
	ErrNoPendingRegistration   = errors.New("no pending registration for this email")
	ErrTooManyAttempts         = errors.New("too many login attempts")
)

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Service wires the store, session manager, pending-registration store and
// the login rate limiter.
type Service struct {
	users    store.Store
	pending  *PendingStore
	sessions *session.Manager
	limiter  ratelimit.Limiter
	cfg      config.AuthConfig
	grants   config.LedgerConfig
	validate *validator.Validate
	rng      *rand.Rand
	log      *slog.Logger
}

// NewService constructs the auth service. The rng seeds verification and
// referral codes; pass a seeded source in tests for determinism.
func NewService(
	users store.Store,
	pending *PendingStore,
	sessions *session.Manager,
	limiter ratelimit.Limiter,
	cfg config.AuthConfig,
	grants config.LedgerConfig,
	rng *rand.Rand,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Service{
		users:    users,
		pending:  pending,
		sessions: sessions,
		limiter:  limiter,
		cfg:      cfg,
		grants:   grants,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		rng:      rng,
		log:      log,
	}
}

// StartRegistration validates the input, rejects duplicate emails and
// stores a pending record with a fresh 4-digit verification code and the
// signup grants. The code is returned to the delivery collaborator, never
// logged in clear.
func (s *Service) StartRegistration(ctx context.Context, email, password string) (int, error) {
	if err := s.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return 0, apperr.NewValidationError("email must be valid and the password at least 6 characters")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return 0, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	code := 1000 + s.rng.Intn(9000)
	pending := PendingRegistration{
		Email:        email,
		PasswordHash: string(hash),
		Code:         code,
		Coins:        s.grants.SignupBonus,
		Spins:        s.grants.SpinLimit,
		ReferralCode: fmt.Sprintf("PK%04d", s.rng.Intn(10000)),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.pending.Set(ctx, pending); err != nil {
		return 0, err
	}

	s.log.Info("registration started", "email", email)

	return code, nil
}

// Verify promotes the pending registration to a persisted account when the
// code matches, deletes the transient record and activates the session.
func (s *Service) Verify(ctx context.Context, email string, code int) (*domain.Account, error) {
	pending, err := s.pending.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, ErrNoPendingRegistration
	}

	if code != pending.Code {
		return nil, apperr.NewAuthError(ErrInvalidVerificationCode, "Verification code does not match")
	}

	account := domain.Account{
		Email:          pending.Email,
		PasswordHash:   pending.PasswordHash,
		Coins:          pending.Coins,
		SpinsRemaining: pending.Spins,
		ReferralCode:   pending.ReferralCode,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.users.Upsert(ctx, account); err != nil {
		return nil, err
	}

	if err := s.pending.Delete(ctx, email); err != nil {
		return nil, err
	}

	if err := s.sessions.SetActive(ctx, email); err != nil {
		return nil, err
	}

	s.log.Info("registration verified", "email", email)

	return &account, nil
}

// Login checks the credentials under a per-email attempt limit and
// activates the session on success.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Account, error) {
	if s.limiter != nil {
		result, err := s.limiter.Check(ctx, "login:"+email, s.cfg.LoginAttemptLimit, s.cfg.LoginWindow)
		if errors.Is(err, ratelimit.ErrLimitExceeded) || (result != nil && !result.Allowed) {
			s.log.Warn("login attempts throttled", "email", email)
			return nil, apperr.NewRateLimitError(ErrTooManyAttempts, int(s.cfg.LoginWindow.Seconds()))
		}
		if err != nil {
			// limiter trouble must not lock users out
			s.log.Error("login limiter check failed", "email", email, "error", err)
		}
	}

	account, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NewAuthError(ErrInvalidCredentials, "Invalid email or password")
		}

		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.NewAuthError(ErrInvalidCredentials, "Invalid email or password")
	}

	if err := s.sessions.SetActive(ctx, email); err != nil {
		return nil, err
	}

	s.log.Info("login succeeded", "email", email)

	return account, nil
}

// Logout clears the active session.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}
