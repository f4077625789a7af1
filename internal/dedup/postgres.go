package dedup

import (
	"context"
	"fmt"

	"github.com/jonathan/listing-notifier/internal/db"
)

// PostgresStore keeps the set in the notified_listings table.
type PostgresStore struct {
	db *db.DB
}

// OpenPostgresStore connects to databaseURL and makes sure the table exists.
func OpenPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("postgres dedup store requires a database URL")
	}
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return &PostgresStore{db: database}, nil
}

// Load returns every stored id.
func (s *PostgresStore) Load(ctx context.Context) (Set, error) {
	rows, err := s.db.ListNotifiedListings(ctx)
	if err != nil {
		return nil, err
	}
	set := make(Set, len(rows))
	for _, r := range rows {
		set.Add(r.AdID)
	}
	return set, nil
}

// Save makes the table hold exactly ids.
func (s *PostgresStore) Save(ctx context.Context, ids Set) error {
	return s.db.ReplaceNotifiedListings(ctx, ids.Sorted())
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
