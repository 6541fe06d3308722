// Package auth implements the credential guard and the on-disk token cache.
//
// The guard wraps a bearer credential with a locally estimated lifetime and
// is consulted before every remote request. The estimate exists to avoid
// wasted calls; the server's own rejection (401/403) is authoritative and is
// translated to the same expiry signal via TranslateStatus.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hollis-dev/notemirror/types"
)

// ErrCredentialExpired signals that the bearer credential is no longer
// usable. The run aborts and the caller must re-acquire a credential before
// retrying. Use errors.Is to test for it.
var ErrCredentialExpired = errors.New("credential expired")

// IsCredentialExpired reports whether err signals credential expiry.
func IsCredentialExpired(err error) bool {
	return errors.Is(err, ErrCredentialExpired)
}

// Source acquires a fresh credential. The browser-driven acquisition flow
// implements this outside the sync core; it is called only after
// ErrCredentialExpired, never proactively.
type Source interface {
	Acquire(ctx context.Context) (*types.Credential, error)
}

// Guard gates remote calls on credential validity.
type Guard struct {
	cred *types.Credential
	now  func() time.Time
}

// NewGuard creates a guard over the given credential.
func NewGuard(cred *types.Credential) *Guard {
	return &Guard{cred: cred, now: time.Now}
}

// NewGuardWithClock creates a guard with an injected clock for testing.
func NewGuardWithClock(cred *types.Credential, now func() time.Time) *Guard {
	return &Guard{cred: cred, now: now}
}

// EnsureValid returns the credential if the local estimate says it is still
// valid, and ErrCredentialExpired otherwise. Callers must not refresh on
// their own; refresh is the credential source's job, triggered by this
// failure.
func (g *Guard) EnsureValid() (*types.Credential, error) {
	if g.cred == nil || g.cred.Token == "" {
		return nil, fmt.Errorf("no credential loaded: %w", ErrCredentialExpired)
	}
	if !g.cred.ValidAt(g.now()) {
		age := g.now().Sub(g.cred.AcquiredAt).Round(time.Second)
		return nil, fmt.Errorf("credential acquired %s ago exceeds estimated lifetime: %w", age, ErrCredentialExpired)
	}
	return g.cred, nil
}

// IsValid reports validity without returning the credential.
func (g *Guard) IsValid() bool {
	_, err := g.EnsureValid()
	return err == nil
}

// TranslateStatus maps an authentication-rejection HTTP status to
// ErrCredentialExpired. The server's notion of expiry overrides the local
// estimate, so a 401/403 mid-walk aborts the run the same way a local
// expiry does. Returns nil for every other status.
func TranslateStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("server rejected credential (HTTP %d): %w", status, ErrCredentialExpired)
	default:
		return nil
	}
}
