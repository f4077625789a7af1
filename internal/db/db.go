// Package db provides PostgreSQL and Redis connectivity for dedup state storage.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the notified_listings table if it does not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, createNotifiedListingsTable)
	if err != nil {
		return fmt.Errorf("failed to create notified_listings table: %w", err)
	}
	return nil
}

// ListNotifiedListings returns every persisted listing id with the time it
// was first recorded, oldest first.
func (db *DB) ListNotifiedListings(ctx context.Context) ([]NotifiedListing, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT ad_id, notified_at FROM notified_listings ORDER BY notified_at, ad_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notified listings: %w", err)
	}
	defer rows.Close()

	var out []NotifiedListing
	for rows.Next() {
		var l NotifiedListing
		if err := rows.Scan(&l.AdID, &l.NotifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notified listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ReplaceNotifiedListings makes the table hold exactly ids. Rows that are
// kept retain their original notified_at.
func (db *DB) ReplaceNotifiedListings(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}

	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM notified_listings WHERE NOT (ad_id = ANY($1::text[]))`,
			ids,
		); err != nil {
			return fmt.Errorf("failed to prune notified listings: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO notified_listings (ad_id, notified_at)
			 SELECT id, $2 FROM unnest($1::text[]) AS id
			 ON CONFLICT (ad_id) DO NOTHING`,
			ids, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert notified listings: %w", err)
		}
		return nil
	})
}
