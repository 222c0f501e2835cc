// Package repository defines the storage interfaces the service layer
// programs against. The concrete SQLite implementation lives in the sqlite
// subpackage; tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/quotes-api/internal/model"
)

// QuoteFilter narrows a random pick. Zero-value fields mean "no filter";
// the fields hold canonical names (e.g. "Moira Burton"), never URL codes —
// code-to-name mapping is the service layer's job.
type QuoteFilter struct {
	Author string
	Source string
}

// UserRepository is the credential store: one row per registered account,
// keyed by the public identifier (identity key or username).
type UserRepository interface {
	// Create inserts a new user. Returns apperror.ErrConflict if the
	// identifier or email is already taken.
	Create(ctx context.Context, user *model.User) error

	// GetByIdentifier returns apperror.ErrNotFound for unknown identifiers.
	// Callers in the auth path translate that to 401, never 404.
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)

	IdentifierExists(ctx context.Context, identifier string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	UpdateEmail(ctx context.Context, identifier, email string) error
	UpdateSecretHash(ctx context.Context, identifier, hash string) error
	Delete(ctx context.Context, identifier string) error

	// TouchLastCall advances last_call to now (ms since epoch) if and only if
	// at least minGap ms have passed since the previous call, as one atomic
	// check-then-set. Returns true if the call was admitted; on false the
	// stored timestamp is left untouched.
	TouchLastCall(ctx context.Context, identifier string, now, minGap int64) (bool, error)
}

// QuoteRepository serves the static dataset.
type QuoteRepository interface {
	// Random returns one uniformly random quote matching the filter, or
	// (nil, nil) when nothing matches — an empty result is not an error.
	Random(ctx context.Context, filter QuoteFilter) (*model.Quote, error)

	// ReplaceAll rebuilds the quotes table from the given rows. Called once
	// at startup with the embedded dataset.
	ReplaceAll(ctx context.Context, quotes []model.Quote) error
}
