// Package store provides the durable key-value persistence contract the
// engine saves its ledger and watchlist through, plus the available
// backends. The engine treats every backend as best-effort: read or write
// failures are logged and swallowed, never surfaced to callers.
package store

import (
	"context"
	"sync"
)

// Store is the persistence contract: two string keys with JSON-encoded
// values.
type Store interface {
	// GetItem returns the value for key. The second return is false when
	// the key has never been written.
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem writes the value for key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error
}

// Memory is an in-process Store, used in tests and as the fallback when no
// durable backend is configured.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (s *Memory) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *Memory) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}
