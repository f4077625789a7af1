package dedup

import (
	"context"
	"fmt"
)

// Store persists a Set between runs. Save overwrites whatever was stored
// before; callers pass the full union they want kept.
type Store interface {
	// Load returns the stored set, or an empty set when nothing was stored yet.
	Load(ctx context.Context) (Set, error)
	Save(ctx context.Context, ids Set) error
	Close() error
}

// Store kinds accepted by Open.
const (
	KindFile     = "file"
	KindRedis    = "redis"
	KindPostgres = "postgres"
)

// Options selects and configures a Store backend.
type Options struct {
	Kind        string
	Path        string // file
	RedisURL    string // redis
	RedisKey    string // redis
	DatabaseURL string // postgres
}

// Open builds the Store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Kind {
	case "", KindFile:
		return NewFileStore(opts.Path), nil
	case KindRedis:
		s, err := OpenRedisStore(ctx, opts.RedisURL, opts.RedisKey)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindPostgres:
		s, err := OpenPostgresStore(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown dedup store kind %q", opts.Kind)
	}
}
