package auth_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hollis-dev/notemirror/auth"
)

func TestTokenCache_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cred := auth.Login("abc123", now)
	if cred.Token != "Bearer abc123" {
		t.Fatalf("expected Bearer prefix added, got %q", cred.Token)
	}

	if err := auth.Save(path, cred); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := auth.LoadCached(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a credential")
	}
	if loaded.Token != "Bearer abc123" {
		t.Errorf("token mismatch: %q", loaded.Token)
	}
	if !loaded.AcquiredAt.Equal(now) {
		t.Errorf("acquired_at mismatch: %v", loaded.AcquiredAt)
	}
}

func TestTokenCache_PreservesExistingBearerPrefix(t *testing.T) {
	cred := auth.Login("Bearer xyz", time.Now())
	if cred.Token != "Bearer xyz" {
		t.Errorf("prefix should not be doubled, got %q", cred.Token)
	}
}

func TestTokenCache_MissingFileIsNotLoggedIn(t *testing.T) {
	loaded, err := auth.LoadCached(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing cache should not error: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil credential, got %+v", loaded)
	}
}

func TestTokenCache_CorruptFileIsNotLoggedIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	loaded, err := auth.LoadCached(path)
	if err != nil {
		t.Fatalf("corrupt cache should not error: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil credential, got %+v", loaded)
	}
}

func TestTokenCache_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")

	removed, err := auth.Clear(path)
	if err != nil || removed {
		t.Fatalf("clearing absent cache: removed=%v err=%v", removed, err)
	}

	if err := auth.Save(path, auth.Login("abc", time.Now())); err != nil {
		t.Fatal(err)
	}
	removed, err = auth.Clear(path)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if !removed {
		t.Error("expected removed=true")
	}
}
