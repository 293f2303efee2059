// Package checkpoint persists the timestamp of the last processed email in a plaintext file.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoCheckpoint means the file is missing, empty or unreadable as a timestamp
var ErrNoCheckpoint = errors.New("no checkpoint recorded")

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load returns the recorded timestamp in UTC
func (s *Store) Load() (time.Time, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, ErrNoCheckpoint
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return time.Time{}, ErrNoCheckpoint
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrNoCheckpoint, raw, err)
	}
	return t.UTC(), nil
}

// LoadOr returns the recorded timestamp, or fallback when none is usable
func (s *Store) LoadOr(fallback time.Time) (time.Time, error) {
	t, err := s.Load()
	if errors.Is(err, ErrNoCheckpoint) {
		return fallback.UTC(), nil
	}
	return t, err
}

// Save atomically replaces the file content with t
func (s *Store) Save(t time.Time) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create checkpoint temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(t.UTC().Format(time.RFC3339Nano)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace checkpoint %s: %w", s.path, err)
	}
	return nil
}
