// Argon2id hashing for secrets at rest.
//
// WHY ARGON2ID?
// Argon2id is a memory-hard password hashing function: cracking it needs not
// just CPU time but a large amount of RAM per guess, which neuters GPU and
// ASIC attacks in a way bcrypt's cost factor cannot. It won the Password
// Hashing Competition and is the current OWASP first choice.
//
// golang.org/x/crypto/argon2 only exposes the raw KDF (argon2.IDKey), so we
// store hashes in the standard PHC string format, which keeps the salt and
// parameters alongside the derived key:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<base64 salt>$<base64 key>
//
// Verification re-derives the key with the parameters recorded in the stored
// string, so old hashes keep verifying after the defaults change.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMismatch is returned by Verify when the secret does not match the hash.
// Any other error from Verify means the stored hash itself is unusable —
// callers must report those as internal failures, not as a wrong secret.
var ErrMismatch = errors.New("auth: secret does not match hash")

// PasswordService hashes and verifies secrets with Argon2id.
//
// It's a struct (not free functions) so the work parameters can be dialed
// down in tests — deriving a 64 MiB hash per test case adds up fast.
type PasswordService struct {
	time    uint32
	memory  uint32 // KiB
	threads uint8
	saltLen uint32
	keyLen  uint32
}

// NewPasswordService creates a PasswordService with production parameters:
// 1 pass over 64 MiB with 4 lanes, 16-byte salt, 32-byte key.
func NewPasswordService() *PasswordService {
	return &PasswordService{
		time:    1,
		memory:  64 * 1024,
		threads: 4,
		saltLen: 16,
		keyLen:  32,
	}
}

// NewPasswordServiceForTest creates a PasswordService with deliberately weak
// parameters (8 MiB, single lane) so test suites stay fast.
//
// Do NOT use in production.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{
		time:    1,
		memory:  8 * 1024,
		threads: 1,
		saltLen: 16,
		keyLen:  32,
	}
}

// Hash derives an Argon2id hash of plaintext under a fresh random salt and
// returns it as a self-contained PHC string. Store the result directly; the
// salt and parameters travel inside it.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, p.time, p.memory, p.threads, p.keyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify checks plaintext against a stored PHC-encoded hash.
//
// Returns nil on a match and ErrMismatch on a wrong secret. Any other error
// means the stored hash is corrupt or uses an unsupported format; the HTTP
// layer maps that to 500, never 401.
//
// The final comparison uses crypto/subtle so equal-length comparisons take
// constant time regardless of where the derived keys differ.
func (p *PasswordService) Verify(hash, plaintext string) error {
	memory, time, threads, salt, key, err := decodeHash(hash)
	if err != nil {
		return err
	}

	derived := argon2.IDKey([]byte(plaintext), salt, time, memory, threads, uint32(len(key)))
	if subtle.ConstantTimeCompare(derived, key) != 1 {
		return ErrMismatch
	}
	return nil
}

// decodeHash parses a PHC Argon2id string into its parameters, salt, and key.
func decodeHash(hash string) (memory, time uint32, threads uint8, salt, key []byte, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: malformed hash: wrong number of sections")
	}
	if parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: unsupported hash function %q", parts[1])
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: malformed hash version: %w", err)
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: incompatible argon2 version %d", version)
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: malformed hash parameters: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: decoding salt: %w", err)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: decoding key: %w", err)
	}
	if len(key) == 0 {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: malformed hash: empty key")
	}
	return memory, time, threads, salt, key, nil
}
