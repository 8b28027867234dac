package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"ledgersync/internal/logging"
)

// Store provides thread-safe access to the uploaded-key set. Keys are loaded
// once at construction; Append rewrites the backing file in full.
type Store struct {
	path   string
	logger *slog.Logger

	mu   sync.RWMutex
	keys map[string]struct{}
}

// Open loads the key set at path. A missing file yields an empty store; a
// corrupt file is an error so a half-written store is never silently treated
// as empty (that would re-upload everything).
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "recordstore")

	s := &Store{
		path:   path,
		logger: logger,
		keys:   make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var keys []string
		if err := json.Unmarshal(data, &keys); err != nil {
			return nil, fmt.Errorf("parse record store %s: %w", path, err)
		}
		for _, key := range keys {
			if trimmed := strings.TrimSpace(key); trimmed != "" {
				s.keys[trimmed] = struct{}{}
			}
		}
	case errors.Is(err, fs.ErrNotExist):
		// First run; file appears on the first successful upload.
	default:
		return nil, fmt.Errorf("read record store %s: %w", path, err)
	}

	logger.Info("record store loaded", logging.Int("keys", len(s.keys)))
	return s, nil
}

// Contains reports whether key has been uploaded before.
func (s *Store) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

// Keys returns a snapshot of the uploaded-key set.
func (s *Store) Keys() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]struct{}, len(s.keys))
	for key := range s.keys {
		snapshot[key] = struct{}{}
	}
	return snapshot
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Append adds newKeys to the set and rewrites the backing file. Keys already
// present are kept; nothing is ever removed.
func (s *Store) Append(newKeys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, key := range newKeys {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		if _, ok := s.keys[trimmed]; !ok {
			s.keys[trimmed] = struct{}{}
			added++
		}
	}

	if err := s.saveLocked(); err != nil {
		return err
	}
	s.logger.Info("record store saved",
		logging.Int("added", added),
		logging.Int("total", len(s.keys)),
	)
	return nil
}

func (s *Store) saveLocked() error {
	keys := make([]string, 0, len(s.keys))
	for key := range s.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure record store directory: %w", err)
	}

	// Write-then-rename so a crash mid-save leaves the previous file intact.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write record store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace record store: %w", err)
	}
	return nil
}
