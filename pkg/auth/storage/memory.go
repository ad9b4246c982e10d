package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/drupalkit/drupalkit/pkg/auth/types"
)

// MemoryStorage keeps tokens for the life of the process.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryStorage creates a new in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]entry)}
}

// SaveToken stores a copy of token for owner.
func (m *MemoryStorage) SaveToken(_ context.Context, owner types.TokenOwner, token *types.AccessToken) error {
	e, err := newEntry(owner, token)
	if err != nil {
		return err
	}
	e.Owner.Scopes = append([]string(nil), owner.Scopes...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[owner.Key()] = *e
	return nil
}

// LoadToken returns a copy of the token stored for owner.
func (m *MemoryStorage) LoadToken(_ context.Context, owner types.TokenOwner) (*types.AccessToken, error) {
	m.mu.RLock()
	e, ok := m.entries[owner.Key()]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w in memory", ErrTokenNotFound)
	}
	return e.tokenFor(owner)
}

// DeleteToken forgets the token stored for owner.
func (m *MemoryStorage) DeleteToken(_ context.Context, owner types.TokenOwner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, owner.Key())
	return nil
}
