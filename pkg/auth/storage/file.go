package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/drupalkit/drupalkit/pkg/auth/types"
)

// FileStorage keeps one JSON file per owner in a private directory.
type FileStorage struct {
	dir string
}

// DefaultTokenDir returns $XDG_STATE_HOME/<appName>/tokens.
func DefaultTokenDir(appName string) string {
	return filepath.Join(xdg.StateHome, appName, "tokens")
}

// NewFileStorage creates a file storage in config.Path, or in
// DefaultTokenDir when no path is set. The directory is created with mode 0700.
func NewFileStorage(config *types.StorageConfig, appName string) (*FileStorage, error) {
	dir := config.Path
	if dir == "" {
		dir = DefaultTokenDir(appName)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	return &FileStorage{dir: dir}, nil
}

// Dir returns the directory holding the token files.
func (f *FileStorage) Dir() string {
	return f.dir
}

// PathFor returns the file that holds the token of owner.
func (f *FileStorage) PathFor(owner types.TokenOwner) string {
	return filepath.Join(f.dir, owner.Key()+".json")
}

// SaveToken writes the token of owner. The file is replaced atomically and
// created with mode 0600.
func (f *FileStorage) SaveToken(_ context.Context, owner types.TokenOwner, token *types.AccessToken) error {
	e, err := newEntry(owner, token)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".token-*")
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.PathFor(owner)); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// LoadToken reads the token of owner.
func (f *FileStorage) LoadToken(_ context.Context, owner types.TokenOwner) (*types.AccessToken, error) {
	path := f.PathFor(owner)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, path)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	return e.tokenFor(owner)
}

// DeleteToken removes the token file of owner.
func (f *FileStorage) DeleteToken(_ context.Context, owner types.TokenOwner) error {
	if err := os.Remove(f.PathFor(owner)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
