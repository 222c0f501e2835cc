// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The API has two kinds of accounts, and both live in this one struct:
//
//   - API-key accounts: Identifier is an opaque "identity-<64 hex>" key and
//     SecretHash is the Argon2id hash of the paired "secret-<64 hex>" key.
//   - Portal accounts: Identifier is a human-chosen username (alphanumerics
//     and underscores, 1-20 chars) and SecretHash is the password hash.
//
// The two identifier formats can never collide — an identity key is 73 chars
// and contains a dash, a username is at most 20 chars of [a-zA-Z0-9_] — so a
// single UNIQUE column serves both without the flows ever mixing.
//
// WHY AN INTERNAL ID PLUS AN IDENTIFIER?
// We generate our own internal string ID (xid) as the primary key so our row
// identity is stable even if we ever allow identifier changes. The identifier
// is the lookup key the outside world presents.
type User struct {
	ID         string    `json:"id"         db:"id"`
	Identifier string    `json:"identifier" db:"identifier"` // identity key or username (UNIQUE)
	Name       string    `json:"name"       db:"name"`       // display name (API-key flow; empty for portal accounts)
	Email      string    `json:"email"      db:"email"`
	SecretHash string    `json:"-"          db:"secret_hash"` // Argon2id PHC string — never serialized
	LastCall   int64     `json:"-"          db:"last_call"`   // ms since epoch of last authenticated call, 0 at creation
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}
