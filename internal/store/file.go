package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const filePerm = 0o600

// FileStore keeps the document in a JSON file. Writes go to a temporary file that is
// renamed over the target, so readers never see a partial document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document path.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, raw []byte, expectedETag string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, current, err := s.read()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if current != expectedETag {
		return "", ErrConflict
	}

	if err = s.write(raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	return etag(raw), nil
}

func (s *FileStore) read() ([]byte, string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", nil
	}

	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	return raw, etag(raw), nil
}

func (s *FileStore) write(raw []byte) error {
	dir := filepath.Dir(s.path)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err = os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}

	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	return nil
}

// etag returns the hex sha256 of raw, "" for a missing document.
func etag(raw []byte) string {
	if raw == nil {
		return ""
	}

	sum := sha256.Sum256(raw)

	return hex.EncodeToString(sum[:])
}
