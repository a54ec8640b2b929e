// Package storage provides the local-disk receipt blob store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/expenseflow/expense_flow_app/internal/apperrors"
	portsrepo "github.com/expenseflow/expense_flow_app/internal/core/ports/repositories"
)

// LocalReceiptStore keeps receipt blobs under a base directory, one file per
// key. Keys are slash-separated relative paths chosen by the caller; anything
// that would escape the base directory is rejected.
type LocalReceiptStore struct {
	baseDir string
	logger  *slog.Logger
}

// NewLocalReceiptStore creates the store and its base directory.
func NewLocalReceiptStore(baseDir string, logger *slog.Logger) (*LocalReceiptStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create receipt storage dir: %w", err)
	}
	return &LocalReceiptStore{baseDir: baseDir, logger: logger}, nil
}

// Ensure LocalReceiptStore implements the ReceiptStore port
var _ portsrepo.ReceiptStore = (*LocalReceiptStore)(nil)

// resolve maps a key to an absolute path inside baseDir, rejecting traversal.
func (s *LocalReceiptStore) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: invalid receipt key", apperrors.ErrValidation)
	}
	full := filepath.Join(s.baseDir, filepath.FromSlash(key))
	base, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: receipt key escapes storage dir", apperrors.ErrValidation)
	}
	return full, nil
}

func (s *LocalReceiptStore) Save(ctx context.Context, key string, r io.Reader) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create receipt dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create receipt file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write receipt file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close receipt file: %w", err)
	}

	s.logger.Debug("Receipt stored", slog.String("key", key))
	return nil
}

func (s *LocalReceiptStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: receipt %s", apperrors.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open receipt file: %w", err)
	}
	return f, nil
}

func (s *LocalReceiptStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete receipt file: %w", err)
	}
	return nil
}
