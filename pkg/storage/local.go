package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/beam-cloud/pngme/pkg/common"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultFileMode = 0644
	lockRetryDelay  = 50 * time.Millisecond
)

type LocalContainerStorage struct {
	path string
}

type LocalContainerStorageOpts struct {
	Path string
}

func NewLocalContainerStorage(opts LocalContainerStorageOpts) (*LocalContainerStorage, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	return &LocalContainerStorage{path: opts.Path}, nil
}

func (s *LocalContainerStorage) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("unable to read container <%s>: %w", s.path, err)
	}
	return data, nil
}

// Persist replaces the file with data. The bytes are written to a sibling
// temp file and renamed over the target while holding <path>.lock, so a
// reader never observes a partially written container.
//
// The lock file is left in place: unlinking it while another process waits
// on it would let two writers lock different inodes. The lock only covers
// the write, not a caller's load-modify-persist sequence.
func (s *LocalContainerStorage) Persist(ctx context.Context, data []byte) error {
	lockFilePath := s.lockPath()
	fileLock := flock.New(lockFilePath)

	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("error while trying to acquire file lock <%s>: %w", lockFilePath, err)
	}
	if !locked {
		return fmt.Errorf("unable to acquire file lock <%s>", lockFilePath)
	}
	defer fileLock.Unlock()

	mode := os.FileMode(defaultFileMode)
	if fi, err := os.Stat(s.path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmpFilePath := fmt.Sprintf("%s.%s", s.path, uuid.New().String()[:6])
	f, err := os.OpenFile(tmpFilePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return fmt.Errorf("failed to create temp file <%s>: %w", tmpFilePath, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpFilePath)
		return fmt.Errorf("failed to write temp file <%s>: %w", tmpFilePath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpFilePath)
		return fmt.Errorf("failed to sync temp file <%s>: %w", tmpFilePath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpFilePath)
		return err
	}

	// OpenFile applies the umask, restore the original permissions
	if err := os.Chmod(tmpFilePath, mode); err != nil {
		os.Remove(tmpFilePath)
		return err
	}

	if err := os.Rename(tmpFilePath, s.path); err != nil {
		os.Remove(tmpFilePath)
		return fmt.Errorf("failed to move temp file to <%s>: %w", s.path, err)
	}

	log.Debug().Str("path", s.path).Int("bytes", len(data)).Msg("container persisted")
	return nil
}

func (s *LocalContainerStorage) lockPath() string {
	return fmt.Sprintf("%s.lock", s.path)
}

func (s *LocalContainerStorage) Location() string {
	return s.path
}

func (s *LocalContainerStorage) Mode() common.StorageMode {
	return common.StorageModeLocal
}

func (s *LocalContainerStorage) Cleanup() error {
	return nil
}
