package types

import "time"

// DefaultCredentialLifetime is the conservative validity estimate for a
// freshly acquired bearer credential. The server-side TTL is roughly 30
// minutes; the estimate is deliberately shorter so we fail locally before
// wasting a remote call on a token the server is about to reject.
const DefaultCredentialLifetime = 25 * time.Minute

// Credential is a bearer credential with a locally estimated lifetime.
// The estimate is a heuristic only; the server's rejection (401/403) is
// authoritative and is translated to the same expiry signal by auth.Guard.
//
// Credentials are injected per run and never persisted by the sync core.
// Persistence (the token cache file) lives in the auth package.
type Credential struct {
	// Token is the Authorization header value, including the "Bearer " prefix.
	Token string `json:"authorization"`
	// CSRFToken is the anti-forgery token issued alongside the bearer token.
	CSRFToken string `json:"csrf_token,omitempty"`
	// ExtraHeaders are additional session headers captured at acquisition.
	ExtraHeaders map[string]string `json:"extra_headers,omitempty"`
	// AcquiredAt is when the credential was obtained.
	AcquiredAt time.Time `json:"acquired_at"`
	// Lifetime is the estimated validity window. Zero means
	// DefaultCredentialLifetime.
	Lifetime time.Duration `json:"-"`
}

// ExpiresAt returns the estimated expiry instant.
func (c *Credential) ExpiresAt() time.Time {
	lifetime := c.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultCredentialLifetime
	}
	return c.AcquiredAt.Add(lifetime)
}

// ValidAt reports whether the credential is still valid at the given instant
// according to the local estimate.
func (c *Credential) ValidAt(now time.Time) bool {
	return now.Before(c.ExpiresAt())
}
