// Package store persists the per-user Readeck token table as a single
// JSON document, rewritten whole on every change.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// TokenStore implements domain.CredentialStore backed by a JSON snapshot
// file. Writes are serialized and flushed before Set returns, so a token
// visible to Set is visible to every later Get, including after restart.
type TokenStore struct {
	path   string
	mu     sync.RWMutex
	tokens map[string]string
	logger *slog.Logger
}

// NewTokenStore loads the snapshot at path. A missing or unparseable file
// degrades to an empty table rather than failing startup.
func NewTokenStore(path string, logger *slog.Logger) (*TokenStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create token store directory: %w", err)
	}

	s := &TokenStore{
		path:   path,
		tokens: make(map[string]string),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("cannot read token store %s: %w", path, err)
		}
		return s, nil
	}

	if err := json.Unmarshal(data, &s.tokens); err != nil {
		logger.Warn("token store corrupt, starting with empty table", "path", path, "err", err)
		s.tokens = make(map[string]string)
	}
	return s, nil
}

// Get returns the stored token for userID. Absence is a normal outcome.
func (s *TokenStore) Get(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[userID]
	return token, ok
}

// Set stores the token and rewrites the full snapshot before returning.
// On write failure the in-memory table is rolled back so a later Get
// never reports a token that was not persisted.
func (s *TokenStore) Set(userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.tokens[userID]
	s.tokens[userID] = token

	if err := s.persistLocked(); err != nil {
		if had {
			s.tokens[userID] = prev
		} else {
			delete(s.tokens, userID)
		}
		return fmt.Errorf("persist token store: %w", err)
	}
	return nil
}

// Len returns the number of stored tokens.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// persistLocked writes the whole table to a temp file and renames it into
// place. Caller must hold the write lock.
func (s *TokenStore) persistLocked() error {
	data, err := json.MarshalIndent(s.tokens, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tokens-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
