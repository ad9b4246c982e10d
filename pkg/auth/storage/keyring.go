package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/drupalkit/drupalkit/pkg/auth/types"
)

// DefaultKeyringPrefix prefixes keyring accounts when no keyring user is configured.
const DefaultKeyringPrefix = "token"

// KeyringStorage keeps tokens in the OS keyring, one account per owner.
type KeyringStorage struct {
	service string
	prefix  string
}

// NewKeyringStorage creates a keyring storage. config.KeyringService is
// required; config.KeyringUser, if set, replaces DefaultKeyringPrefix.
func NewKeyringStorage(config *types.StorageConfig) (*KeyringStorage, error) {
	if config.KeyringService == "" {
		return nil, fmt.Errorf("keyring_service is required for keyring storage")
	}

	prefix := config.KeyringUser
	if prefix == "" {
		prefix = DefaultKeyringPrefix
	}

	return &KeyringStorage{
		service: config.KeyringService,
		prefix:  prefix,
	}, nil
}

// Service returns the keyring service name.
func (k *KeyringStorage) Service() string {
	return k.service
}

// Account returns the keyring account that holds the token of owner.
func (k *KeyringStorage) Account(owner types.TokenOwner) string {
	return k.prefix + ":" + owner.Key()
}

// SaveToken stores the token of owner in the keyring.
func (k *KeyringStorage) SaveToken(_ context.Context, owner types.TokenOwner, token *types.AccessToken) error {
	e, err := newEntry(owner, token)
	if err != nil {
		return err
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := keyring.Set(k.service, k.Account(owner), string(data)); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// LoadToken reads the token of owner from the keyring.
func (k *KeyringStorage) LoadToken(_ context.Context, owner types.TokenOwner) (*types.AccessToken, error) {
	data, err := keyring.Get(k.service, k.Account(owner))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("%w in keyring", ErrTokenNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve token from keyring: %w", err)
	}

	var e entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return nil, fmt.Errorf("failed to parse keyring entry: %w", err)
	}
	return e.tokenFor(owner)
}

// DeleteToken removes the token of owner from the keyring.
func (k *KeyringStorage) DeleteToken(_ context.Context, owner types.TokenOwner) error {
	err := keyring.Delete(k.service, k.Account(owner))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}
