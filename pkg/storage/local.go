// Package storage persists rendered documents on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidName is returned for names that are empty or escape the base directory.
var ErrInvalidName = errors.New("invalid storage name")

// LocalStore writes files under a single base directory.
type LocalStore struct {
	base   string
	logger zerolog.Logger
}

// NewLocalStore creates the base directory when missing.
func NewLocalStore(base string, logger zerolog.Logger) (*LocalStore, error) {
	if strings.TrimSpace(base) == "" {
		base = "public/certificates"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStore{
		base:   base,
		logger: logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Upload replaces the file called name with the reader's content and returns
// its path. Readers see either the previous file or the complete new one.
func (s *LocalStore) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	dst, err := s.path(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.base, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("flush %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}

	s.logger.Debug().Str("path", dst).Msg("file stored")
	return dst, nil
}

// Open returns the stored file called name.
func (s *LocalStore) Open(name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *LocalStore) path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	return filepath.Join(s.base, name), nil
}
