// Package storage persists access tokens between process runs.
//
// Every token is stored together with the types.TokenOwner it was issued to
// and is only handed back to a caller presenting the same owner. Backends
// never share one slot between owners.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/drupalkit/drupalkit/pkg/auth/types"
)

var (
	// ErrTokenNotFound is returned by LoadToken when nothing is stored for
	// the owner.
	ErrTokenNotFound = errors.New("token not found")
	// ErrOwnerMismatch is returned by LoadToken when the stored entry was
	// issued to a different owner.
	ErrOwnerMismatch = errors.New("stored token belongs to another owner")
)

// TokenStorage stores at most one token per owner.
type TokenStorage interface {
	// SaveToken stores token for owner, replacing any previous one.
	SaveToken(ctx context.Context, owner types.TokenOwner, token *types.AccessToken) error
	// LoadToken returns the token stored for owner.
	LoadToken(ctx context.Context, owner types.TokenOwner) (*types.AccessToken, error)
	// DeleteToken removes the token stored for owner. Deleting a missing
	// token is not an error.
	DeleteToken(ctx context.Context, owner types.TokenOwner) error
}

// entry is the persisted form of a token.
type entry struct {
	Owner types.TokenOwner  `json:"owner"`
	Token types.AccessToken `json:"token"`
}

func newEntry(owner types.TokenOwner, token *types.AccessToken) (*entry, error) {
	if token == nil {
		return nil, fmt.Errorf("token is nil")
	}
	return &entry{Owner: owner, Token: *token}, nil
}

// tokenFor returns a copy of the token if owner may use it.
func (e *entry) tokenFor(owner types.TokenOwner) (*types.AccessToken, error) {
	if !e.Owner.Matches(owner) {
		return nil, fmt.Errorf("%w (client %q, site %q)", ErrOwnerMismatch, e.Owner.ClientID, e.Owner.Site)
	}
	token := e.Token
	return &token, nil
}

// Factory creates token storage instances based on configuration.
type Factory struct{}

// NewFactory creates a new storage factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a token storage instance based on the configuration.
// appName selects the default XDG directory for file storage.
func (f *Factory) Create(config *types.StorageConfig, appName string) (TokenStorage, error) {
	if config == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	switch config.Type {
	case types.StorageTypeFile:
		return NewFileStorage(config, appName)
	case types.StorageTypeKeyring:
		return NewKeyringStorage(config)
	case types.StorageTypeMemory:
		return NewMemoryStorage(), nil
	case types.StorageTypeAuto:
		keyringStorage, err := NewKeyringStorage(config)
		if err != nil {
			return nil, err
		}
		fileStorage, err := NewFileStorage(config, appName)
		if err != nil {
			return nil, err
		}
		return NewMultiStorage(keyringStorage, fileStorage), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}

// MultiStorage layers several storages, most preferred first. Saves go to
// every tier and loads are served by the first tier holding a token.
type MultiStorage struct {
	storages []TokenStorage
}

// NewMultiStorage creates a new multi-tier storage.
func NewMultiStorage(storages ...TokenStorage) *MultiStorage {
	return &MultiStorage{
		storages: storages,
	}
}

// SaveToken saves the token to all tiers. It fails only if no tier accepted it.
func (m *MultiStorage) SaveToken(ctx context.Context, owner types.TokenOwner, token *types.AccessToken) error {
	var errs []error
	saved := false

	for _, storage := range m.storages {
		if err := storage.SaveToken(ctx, owner, token); err != nil {
			errs = append(errs, err)
		} else {
			saved = true
		}
	}

	if saved {
		return nil
	}
	return errors.Join(errs...)
}

// LoadToken loads the token from the first tier that has one for owner.
// Tier failures are reported only when no tier could serve the token.
func (m *MultiStorage) LoadToken(ctx context.Context, owner types.TokenOwner) (*types.AccessToken, error) {
	var failures []error
	for _, storage := range m.storages {
		token, err := storage.LoadToken(ctx, owner)
		if err == nil && token != nil {
			return token, nil
		}
		if err != nil && !errors.Is(err, ErrTokenNotFound) {
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		return nil, errors.Join(failures...)
	}
	return nil, fmt.Errorf("%w in any storage", ErrTokenNotFound)
}

// DeleteToken deletes the token from all tiers.
func (m *MultiStorage) DeleteToken(ctx context.Context, owner types.TokenOwner) error {
	var errs []error
	for _, storage := range m.storages {
		if err := storage.DeleteToken(ctx, owner); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
