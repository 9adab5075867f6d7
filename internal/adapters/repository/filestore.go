package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/riskpoll/internal/domain/model"
)

const (
	defaultFilePermission = 0o644
	dirPermission         = 0o750
)

var _ Store = (*FileStore)(nil)

// FileStore keeps every group in one pretty-printed JSON document. Each
// Append rewrites the whole file; the mutex serializes read-modify-write
// cycles and the rename keeps readers from seeing a half-written file.
type FileStore struct {
	path string
	perm fs.FileMode
	mu   sync.RWMutex
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFilePermission sets the mode used when writing the data file.
func WithFilePermission(perm fs.FileMode) FileOption {
	return func(s *FileStore) {
		if perm != 0 {
			s.perm = perm
		}
	}
}

// NewFileStore returns a store backed by path. The parent directory is
// created if needed; the file itself appears on first Append.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path must not be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermission); err != nil {
			return nil, unavailable("create data directory", err)
		}
	}
	s := &FileStore{path: path, perm: defaultFilePermission}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the data file location.
func (s *FileStore) Path() string { return s.path }

// Backend implements Store.
func (s *FileStore) Backend() string { return BackendFile }

// Append implements Store.
func (s *FileStore) Append(ctx context.Context, risk string, rec model.Record) (err error) {
	defer func(start time.Time) { observe(BackendFile, "append", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return unavailable("append", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	groups, err := s.read()
	if err != nil {
		return unavailable("append", err)
	}
	b := model.NewGroupsBuilder()
	for _, g := range groups {
		b.Add(g.RiskPercentage, g.Records...)
	}
	b.Add(risk, rec)

	data, err := encodeGroups(b.Groups())
	if err != nil {
		return unavailable("append", err)
	}
	if err := writeFileAtomic(s.path, data, s.perm); err != nil {
		return unavailable("append", err)
	}
	return nil
}

// LoadAll implements Store.
func (s *FileStore) LoadAll(ctx context.Context) (groups model.Groups, err error) {
	defer func(start time.Time) { observe(BackendFile, "load_all", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, unavailable("load all", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	groups, err = s.read()
	if err != nil {
		return nil, unavailable("load all", err)
	}
	return groups, nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// read loads the document. A missing or empty file is an empty store.
func (s *FileStore) read() (model.Groups, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Groups{}, nil
	}
	if err != nil {
		return nil, err
	}
	groups, err := decodeGroups(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return groups, nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name()) // no-op on success

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(f.Name(), perm); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
