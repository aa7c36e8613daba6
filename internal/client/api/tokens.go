package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
)

// TokenPair is the client-side copy of the two session tokens.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenStore persists the session's token pair between runs. Load returns
// nil without error when no pair is stored.
type TokenStore interface {
	Load() (*TokenPair, error)
	Save(pair *TokenPair) error
	Clear() error
}

// FileTokenStore keeps the pair in a JSON file, owner-readable only.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Load() (*TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" && pair.RefreshToken == "" {
		return nil, nil
	}
	return &pair, nil
}

func (s *FileTokenStore) Save(pair *TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryTokenStore keeps the pair in memory only.
type MemoryTokenStore struct {
	mu   sync.Mutex
	pair *TokenPair
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load() (*TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pair == nil {
		return nil, nil
	}
	c := *s.pair
	return &c, nil
}

func (s *MemoryTokenStore) Save(pair *TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *pair
	s.pair = &c
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = nil
	return nil
}
