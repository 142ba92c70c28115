// Package memory is a process-local remote store for development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"viaggi/internal/core"
	"viaggi/internal/remote"
)

var _ remote.Store = (*Store)(nil)

// Store keeps encoded snapshots so callers never share memory with it.
type Store struct {
	mu    sync.Mutex
	data  map[string][]byte
	saves int
	// FailSaves makes every Save return this error when set.
	FailSaves error
}

func New() *Store {
	return &Store{data: map[string][]byte{}}
}

// NewFromFile seeds the store from a JSON object mapping account keys to
// snapshots. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed map[string]json.RawMessage
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for k, v := range seed {
		s.data[k] = []byte(v)
	}
	return s, nil
}

func (s *Store) Fetch(_ context.Context, key string) (*core.Account, error) {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return remote.DecodeAccount(raw)
}

func (s *Store) Save(_ context.Context, key string, a *core.Account) error {
	b, err := remote.EncodeAccount(a)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves != nil {
		return s.FailSaves
	}
	s.data[key] = b
	s.saves++
	return nil
}

// Saves reports how many snapshots were written.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
