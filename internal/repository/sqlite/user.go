package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/quotes-api/internal/apperror"
	"github.com/sakif/quotes-api/internal/model"
	"github.com/sakif/quotes-api/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user row, generating the internal ID and timestamps.
//
// The service layer pre-checks for duplicates so it can produce precise 409
// messages, but the UNIQUE constraints are the real guarantee — two
// concurrent registrations of the same identifier race past the pre-check,
// and exactly one of them lands here with a constraint error.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, identifier, name, email, secret_hash, last_call, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Identifier,
		user.Name,
		user.Email,
		user.SecretHash,
		user.LastCall,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("identifier or email already registered")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Identifier, err)
	}
	return nil
}

// GetByIdentifier retrieves a user by identity key or username.
// Returns apperror.ErrNotFound if no such user exists.
func (db *DB) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, identifier, name, email, secret_hash, last_call, created_at, updated_at
		 FROM users WHERE identifier = ?`,
		identifier,
	).Scan(
		&u.ID,
		&u.Identifier,
		&u.Name,
		&u.Email,
		&u.SecretHash,
		&u.LastCall,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", identifier)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", identifier, err)
	}

	return &u, nil
}

func (db *DB) IdentifierExists(ctx context.Context, identifier string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE identifier = ? LIMIT 1`, identifier,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking identifier: %w", err)
	}
	return count > 0, nil
}

func (db *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE email = ? LIMIT 1`, email,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking email: %w", err)
	}
	return count > 0, nil
}

// UpdateEmail replaces the stored contact email for the given identifier.
func (db *DB) UpdateEmail(ctx context.Context, identifier, email string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, updated_at = ? WHERE identifier = ?`,
		email, time.Now(), identifier,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email already registered")
		}
		return fmt.Errorf("sqlite: updating email for %s: %w", identifier, err)
	}
	return requireRow(res, identifier)
}

// UpdateSecretHash replaces the stored credential hash for the given identifier.
func (db *DB) UpdateSecretHash(ctx context.Context, identifier, hash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET secret_hash = ?, updated_at = ? WHERE identifier = ?`,
		hash, time.Now(), identifier,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating secret hash for %s: %w", identifier, err)
	}
	return requireRow(res, identifier)
}

// Delete removes the user row unconditionally.
func (db *DB) Delete(ctx context.Context, identifier string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM users WHERE identifier = ?`, identifier,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", identifier, err)
	}
	return requireRow(res, identifier)
}

// TouchLastCall is the rate limiter's check-then-set, collapsed into one
// conditional UPDATE so concurrent requests for the same identifier cannot
// both pass the window check: SQLite applies the statement atomically, and
// at most one of two racing requests finds last_call old enough.
//
// Callers run this after authentication, so zero rows affected means the
// window has not elapsed — not a missing user.
func (db *DB) TouchLastCall(ctx context.Context, identifier string, now, minGap int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET last_call = ? WHERE identifier = ? AND ? - last_call >= ?`,
		now, identifier, now, minGap,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: touching last_call for %s: %w", identifier, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	return affected == 1, nil
}

// requireRow turns "UPDATE/DELETE matched nothing" into ErrNotFound.
func requireRow(res sql.Result, identifier string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", identifier)
	}
	return nil
}

// isUniqueViolation detects UNIQUE constraint failures from the driver.
// modernc.org/sqlite reports them as plain errors, so we match the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
