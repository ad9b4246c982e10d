package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drupalkit/drupalkit/pkg/auth/types"
)

func newTestFileStorage(t *testing.T) *FileStorage {
	t.Helper()
	storage, err := NewFileStorage(&types.StorageConfig{Type: types.StorageTypeFile, Path: t.TempDir()}, "drupalkit-test")
	if err != nil {
		t.Fatalf("NewFileStorage() error = %v", err)
	}
	return storage
}

func TestNewFileStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "tokens")

	storage, err := NewFileStorage(&types.StorageConfig{Type: types.StorageTypeFile, Path: dir}, "drupalkit-test")
	if err != nil {
		t.Fatalf("NewFileStorage() error = %v", err)
	}
	if storage.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", storage.Dir(), dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("token directory was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("token directory mode = %o, want 700", perm)
	}
}

func TestDefaultTokenDir(t *testing.T) {
	want := filepath.Join("drupalkit-test", "tokens")
	if dir := DefaultTokenDir("drupalkit-test"); !strings.HasSuffix(dir, want) {
		t.Errorf("DefaultTokenDir() = %q, want suffix %q", dir, want)
	}
}

func TestFileStorage_PathFor(t *testing.T) {
	storage := newTestFileStorage(t)

	if storage.PathFor(ownerA) == storage.PathFor(ownerB) {
		t.Error("PathFor() is the same for different owners")
	}
	if want := filepath.Join(storage.Dir(), ownerA.Key()+".json"); storage.PathFor(ownerA) != want {
		t.Errorf("PathFor() = %q, want %q", storage.PathFor(ownerA), want)
	}
}

func TestFileStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := newTestFileStorage(t)
	path := storage.PathFor(ownerA)

	if _, err := storage.LoadToken(ctx, ownerA); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("LoadToken() before save error = %v, want ErrTokenNotFound", err)
	}

	token := testToken("file-token")
	if err := storage.SaveToken(ctx, ownerA, token); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}

	loaded, err := storage.LoadToken(ctx, ownerA)
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if loaded.Value != token.Value || !loaded.ExpiresAt.Equal(token.ExpiresAt) {
		t.Errorf("LoadToken() = %+v, want %+v", loaded, token)
	}

	if err := storage.DeleteToken(ctx, ownerA); err != nil {
		t.Fatalf("DeleteToken() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("token file still exists after delete")
	}
	if err := storage.DeleteToken(ctx, ownerA); err != nil {
		t.Errorf("DeleteToken() on missing file error = %v", err)
	}
}

func TestFileStorage_RecordsOwner(t *testing.T) {
	storage := newTestFileStorage(t)
	if err := storage.SaveToken(context.Background(), ownerA, testToken("file-token")); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	data, err := os.ReadFile(storage.PathFor(ownerA))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if e.Owner.ClientID != "client-a" || e.Owner.Site != "https://a.example.com" {
		t.Errorf("stored owner = %+v", e.Owner)
	}
}

func TestFileStorage_OwnerIsolation(t *testing.T) {
	checkOwnerIsolation(t, newTestFileStorage(t))
}

func TestFileStorage_MovedFileIsRejected(t *testing.T) {
	ctx := context.Background()
	storage := newTestFileStorage(t)

	if err := storage.SaveToken(ctx, ownerA, testToken("token-a")); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}
	if err := os.Rename(storage.PathFor(ownerA), storage.PathFor(ownerB)); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	if _, err := storage.LoadToken(ctx, ownerB); !errors.Is(err, ErrOwnerMismatch) {
		t.Errorf("LoadToken() error = %v, want ErrOwnerMismatch", err)
	}
}

func TestFileStorage_CorruptFile(t *testing.T) {
	storage := newTestFileStorage(t)
	if err := os.WriteFile(storage.PathFor(ownerA), []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := storage.LoadToken(context.Background(), ownerA)
	if err == nil {
		t.Fatal("LoadToken() expected error for corrupt file")
	}
	if errors.Is(err, ErrTokenNotFound) {
		t.Errorf("corrupt file reported as not found: %v", err)
	}
}

func TestFileStorage_SaveNil(t *testing.T) {
	storage := newTestFileStorage(t)
	if err := storage.SaveToken(context.Background(), ownerA, nil); err == nil {
		t.Error("SaveToken(nil) expected error")
	}

	entries, err := os.ReadDir(storage.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("SaveToken(nil) left %d files behind", len(entries))
	}
}
