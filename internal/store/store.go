// Package store provides the persistent key-value store backing all
// local state. It mirrors a browser localStorage profile: one JSON
// file, string keys, JSON-serializable values, fully synchronous.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store is a string-keyed store of JSON documents persisted to a
// single file. All operations are synchronous and guarded by one
// mutex; the whole file is rewritten on every mutation. That is a
// deliberate correctness-over-efficiency tradeoff for a dataset of
// this size and is unsafe under concurrent writer processes
// (last write wins, no locking across processes).
type Store struct {
	mu     sync.Mutex
	path   string
	data   map[string]json.RawMessage
	logger *slog.Logger
}

// Open loads the store file at path, creating an empty store when the
// file does not exist. A corrupt file is logged and treated as empty
// rather than failing: persisted data must never take the process down.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		path:   path,
		data:   make(map[string]json.RawMessage),
		logger: logger,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		logger.Warn("store file is malformed, starting empty",
			"path", path,
			"error", err,
		)
		s.data = make(map[string]json.RawMessage)
	}

	return s, nil
}

// Get returns the raw JSON value for key, or false when absent.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), v...), true
}

// GetJSON decodes the value for key into dst. A missing key returns
// false. A malformed value is logged and reported as absent so callers
// behave as if the key was never written.
func (s *Store) GetJSON(key string, dst any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("stored value is malformed, treating as absent",
			"key", key,
			"error", err,
		)
		return false
	}
	return true
}

// SetJSON encodes value and stores it under key, persisting the whole
// store to disk before returning.
func (s *Store) SetJSON(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = raw
	return s.flushLocked()
}

// Remove deletes key from the store. Removing an absent key is a no-op
// but still persists, matching localStorage semantics.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return s.flushLocked()
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// flushLocked writes the store file atomically via a temp file rename.
// Callers must hold s.mu.
func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close store file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
