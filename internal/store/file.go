package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alfagnish/users-api/internal/models"
	"github.com/sirupsen/logrus"
)

// FileStore keeps the collection in a single file as a pretty-printed JSON
// array.
type FileStore struct {
	path string
	log  logrus.FieldLogger
}

// NewFileStore creates a FileStore backed by the file at path. The file is
// not touched until the first call.
func NewFileStore(path string, log logrus.FieldLogger) *FileStore {
	return &FileStore{
		path: path,
		log:  log.WithField("store", "file"),
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// ReadAll loads the collection. A missing, unreadable or malformed file is
// treated as an empty collection: the file is reset to [] and an empty slice
// is returned. Only a failing reset is reported as an error.
func (s *FileStore) ReadAll(ctx context.Context) ([]models.User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.WithField("path", s.path).Debug("data file missing, creating empty collection")
		} else {
			s.log.WithError(err).WithField("path", s.path).Warn("data file unreadable, resetting")
		}
		return s.resetEmpty(ctx)
	}

	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		s.log.WithError(err).WithField("path", s.path).Warn("data file corrupt, resetting")
		return s.resetEmpty(ctx)
	}
	if users == nil {
		// a literal null
		users = []models.User{}
	}
	for i := range users {
		users[i] = users[i].Normalize()
	}
	return users, nil
}

func (s *FileStore) resetEmpty(ctx context.Context) ([]models.User, error) {
	if err := s.Reset(ctx); err != nil {
		return nil, err
	}
	return []models.User{}, nil
}

// WriteAll replaces the file contents with users. The data is written to a
// temporary file in the same directory and renamed into place.
func (s *FileStore) WriteAll(_ context.Context, users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	out := make([]models.User, len(users))
	for i, u := range users {
		out[i] = u.Normalize()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}
	return s.replace(data)
}

// Reset truncates the collection to an empty array, creating the file if it
// does not exist.
func (s *FileStore) Reset(_ context.Context) error {
	return s.replace([]byte("[]"))
}

func (s *FileStore) replace(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close data file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod data file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
