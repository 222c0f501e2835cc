// Package auth provides the credential primitives for the quotes API:
// API-key generation, Argon2id secret hashing, and the pure validators for
// the two credential header shapes the API accepts.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Key prefixes distinguish the public identifier from the private secret.
// A full key is the prefix plus 64 lowercase hex chars (32 random bytes).
const (
	IdentityKeyPrefix = "identity-"
	SecretKeyPrefix   = "secret-"

	keyRandomBytes = 32
)

// GenerateIdentityKey produces a fresh public API identifier:
// "identity-" + 64 lowercase hex chars.
//
// Uniqueness is NOT guaranteed here — 256 bits of entropy makes a collision
// astronomically unlikely, but registration still checks the store and
// re-rolls until the key is unused.
func GenerateIdentityKey() (string, error) {
	return generateKey(IdentityKeyPrefix)
}

// GenerateSecretKey produces a fresh private credential:
// "secret-" + 64 lowercase hex chars.
//
// The caller hashes it immediately and persists only the hash. The plaintext
// is handed to the registering user exactly once and never stored.
func GenerateSecretKey() (string, error) {
	return generateKey(SecretKeyPrefix)
}

// generateKey reads from crypto/rand — never a general-purpose PRNG.
// hex.EncodeToString emits lowercase, which the validators rely on.
func generateKey(prefix string) (string, error) {
	buf := make([]byte, keyRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: reading random bytes: %w", err)
	}
	return prefix + hex.EncodeToString(buf), nil
}
