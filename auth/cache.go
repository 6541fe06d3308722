package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hollis-dev/notemirror/types"
)

const (
	configDirName = ".notemirror"
	tokenFileName = "auth.json"
)

// DefaultTokenPath returns the token cache location under the user's home
// directory.
func DefaultTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return filepath.Join(home, configDirName, tokenFileName), nil
}

// LoadCached reads a cached credential from path. A missing or unreadable
// file yields (nil, nil): the caller treats that as "not logged in" rather
// than an error, mirroring the tolerant manifest load.
func LoadCached(path string) (*types.Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read token cache %q: %w", path, err)
	}

	var cred types.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		// Corrupt cache is equivalent to no cache.
		return nil, nil
	}
	if cred.Token == "" {
		return nil, nil
	}
	return &cred, nil
}

// Save writes the credential to path, creating the parent directory.
func Save(path string, cred *types.Credential) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create token cache dir: %w", err)
	}
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode credential: %w", err)
	}
	// 0600: the token grants account access.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write token cache %q: %w", path, err)
	}
	return nil
}

// Clear removes the cached credential. Returns true if a cache existed.
func Clear(path string) (bool, error) {
	err := os.Remove(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("cannot remove token cache %q: %w", path, err)
	}
	return true, nil
}

// Login builds a credential from a manually supplied bearer value,
// normalizing the "Bearer " prefix. The caller is expected to Save it.
func Login(bearer string, now time.Time) *types.Credential {
	bearer = strings.TrimSpace(bearer)
	if !strings.HasPrefix(bearer, "Bearer ") {
		bearer = "Bearer " + bearer
	}
	return &types.Credential{
		Token:      bearer,
		AcquiredAt: now,
	}
}
