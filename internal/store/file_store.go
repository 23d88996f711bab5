package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pakreward/rewards-service/internal/apperr"
	"github.com/pakreward/rewards-service/internal/domain"
)

// FileStore keeps the account collection in a local JSON file for
// single-device deployments.
type FileStore struct {
	path string
	mu   sync.Mutex
	log  *slog.Logger
}

// NewFileStore initializes a file-backed Store rooted at path. The parent
// directory is created on first write.
func NewFileStore(path string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}

	return &FileStore{
		path: path,
		log:  log,
	}
}

// LoadAll reads the users file. Missing and corrupt files both degrade to
// an empty collection.
func (s *FileStore) LoadAll(ctx context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked()
}

// Upsert replaces or appends the account and rewrites the file atomically
// via a temp-file rename.
func (s *FileStore) Upsert(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadLocked()
	if err != nil {
		return err
	}

	accounts = upsert(accounts, account)

	data, err := json.Marshal(accounts)
	if err != nil {
		s.log.Error("failed to encode users file", "error", err)
		return apperr.NewStorageError(err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return apperr.NewStorageError(err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.log.Error("failed to write users file", "path", tmp, "error", err)
		return apperr.NewStorageError(err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		s.log.Error("failed to replace users file", "path", s.path, "error", err)
		return apperr.NewStorageError(err)
	}

	return nil
}

// FindByEmail returns the account for email or ErrNotFound.
func (s *FileStore) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	accounts, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	return findByEmail(accounts, email)
}

func (s *FileStore) loadLocked() ([]domain.Account, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		s.log.Error("failed to read users file", "path", s.path, "error", err)
		return nil, apperr.NewStorageError(err)
	}

	var accounts []domain.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		corrupt := apperr.NewStoreCorruptError(err)
		s.log.Warn("users file is corrupt, treating store as empty", "path", s.path, "code", corrupt.Code, "error", err)
		return nil, nil
	}

	return accounts, nil
}
