// Package apikey validates the shared API key presented by clients. The
// configured secret is hashed once at startup and presented keys are
// compared by hash in constant time. An empty secret disables
// authentication entirely.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Guard checks presented keys against a single configured secret.
type Guard struct {
	hash    [sha256.Size]byte
	enabled bool
	logger  *slog.Logger
}

// NewGuard creates a guard for secret. An empty secret yields a guard that
// accepts every request.
func NewGuard(secret string) *Guard {
	g := &Guard{
		enabled: secret != "",
		logger:  slog.Default().With("component", "apikey-guard"),
	}
	if g.enabled {
		g.hash = sha256.Sum256([]byte(secret))
	} else {
		g.logger.Warn("api key not configured, authentication disabled")
	}
	return g
}

// Enabled reports whether a secret is configured.
func (g *Guard) Enabled() bool {
	return g.enabled
}

// Validate reports whether presented matches the configured secret.
func (g *Guard) Validate(presented string) bool {
	if !g.enabled {
		return true
	}
	if presented == "" {
		return false
	}
	h := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(h[:], g.hash[:]) == 1
}

// HashKey returns the SHA-256 hex digest of a raw API key.
func HashKey(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// GenerateKey returns a random 32-byte hex-encoded key suitable for use as
// the shared secret.
func GenerateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
