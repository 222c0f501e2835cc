package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/quotes-api/internal/model"
	"github.com/sakif/quotes-api/internal/repository"
)

// compile-time check that *DB implements repository.QuoteRepository
var _ repository.QuoteRepository = (*DB)(nil)

// Random picks one uniformly random quote matching the filter.
//
// ORDER BY RANDOM() LIMIT 1 re-shuffles per query, which is fine at this
// table size (a few dozen rows). An empty result returns (nil, nil): asking
// for a combination the dataset doesn't have is a valid query, not an error.
func (db *DB) Random(ctx context.Context, filter repository.QuoteFilter) (*model.Quote, error) {
	query := `SELECT id, quote, author, context, source FROM quotes`
	var args []any

	switch {
	case filter.Author != "" && filter.Source != "":
		query += ` WHERE author = ? AND source = ?`
		args = append(args, filter.Author, filter.Source)
	case filter.Author != "":
		query += ` WHERE author = ?`
		args = append(args, filter.Author)
	case filter.Source != "":
		query += ` WHERE source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY RANDOM() LIMIT 1`

	var q model.Quote
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&q.ID, &q.Quote, &q.Author, &q.Context, &q.Source,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: selecting random quote: %w", err)
	}
	return &q, nil
}

// ReplaceAll rebuilds the quotes table inside one transaction, mirroring the
// original deployment where the static database was recreated on every boot.
func (db *DB) ReplaceAll(ctx context.Context, quotes []model.Quote) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning quote reload: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quotes`); err != nil {
		return fmt.Errorf("sqlite: clearing quotes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO quotes (quote, author, context, source) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: preparing quote insert: %w", err)
	}
	defer stmt.Close()

	for _, q := range quotes {
		if _, err := stmt.ExecContext(ctx, q.Quote, q.Author, q.Context, q.Source); err != nil {
			return fmt.Errorf("sqlite: inserting quote by %s: %w", q.Author, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing quote reload: %w", err)
	}
	return nil
}
