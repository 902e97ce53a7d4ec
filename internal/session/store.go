package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Store persists the session record between invocations.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, record Record) error
	Delete(ctx context.Context) error
}

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps the record in a JSON file guarded by an advisory lock so
// concurrent invocations never read a half-written session.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore builds a FileStore at path. The lock lives next to it.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the record location.
func (s *FileStore) Path() string { return s.path }

// Load reads the record. A missing file resolves to ErrNoRecord.
func (s *FileStore) Load(ctx context.Context) (Record, error) {
	if err := s.ensureDir(); err != nil {
		return Record{}, err
	}
	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return Record{}, fmt.Errorf("lock session cache: %w", err)
	}
	if locked {
		defer func() { _ = s.lock.Unlock() }()
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, ErrNoRecord
		}
		return Record{}, fmt.Errorf("read session cache: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("decode session cache: %w", err)
	}
	return record, nil
}

// Save writes the record atomically with owner-only permissions.
func (s *FileStore) Save(ctx context.Context, record Record) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock session cache: %w", err)
	}
	if locked {
		defer func() { _ = s.lock.Unlock() }()
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session cache: %w", err)
	}
	return writeFileAtomic(s.path, data, 0o600)
}

// Delete removes the record. Deleting an absent record is not an error.
func (s *FileStore) Delete(ctx context.Context) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock session cache: %w", err)
	}
	if locked {
		defer func() { _ = s.lock.Unlock() }()
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session cache: %w", err)
	}
	return nil
}

func (s *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure session cache directory: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp session cache: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp session cache: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp session cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp session cache: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace session cache: %w", err)
	}
	return nil
}
