// Package storage persists drained recordings as .ogg files under the
// configured audio directory.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Store writes and reads recordings in a single directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// WriteTimestamped saves a lookback dump under the local-time name
// YYYY-MM-DD_HH-MM-SS.ogg and returns the full path.
func (s *Store) WriteTimestamped(ogg []byte) (string, error) {
	name := time.Now().Format("2006-01-02_15-04-05") + ".ogg"
	return s.write(name, ogg)
}

// WriteUser saves a speaker drain as <user_id>.ogg and returns the path.
func (s *Store) WriteUser(user uint64, ogg []byte) (string, error) {
	return s.write(UserFileName(user), ogg)
}

// ReadUser loads the reference recording previously saved for user.
func (s *Store) ReadUser(user uint64) ([]byte, error) {
	path := filepath.Join(s.dir, UserFileName(user))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference for user %d: %w", user, err)
	}
	return data, nil
}

func (s *Store) write(name string, ogg []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	s.logger.Info("writing recording", zap.String("path", path), zap.Int("bytes", len(ogg)))
	if err := os.WriteFile(path, ogg, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// UserFileName is the canonical per-user recording name.
func UserFileName(user uint64) string {
	return fmt.Sprintf("%d.ogg", user)
}
