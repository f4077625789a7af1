package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/listing-notifier/internal/filter"
	"github.com/jonathan/listing-notifier/internal/listing"
	"github.com/jonathan/listing-notifier/internal/marketplace"
	"github.com/jonathan/listing-notifier/internal/types"
)

// DefaultConcurrency bounds concurrent profile lookups.
const DefaultConcurrency = 5

// BuildOptions configures BuildRecords.
type BuildOptions struct {
	Profiles    marketplace.ProfileFetcher
	Transformer *listing.Transformer
	Concurrency int
	Logger      *log.Logger
}

// BuildResult holds the records built from one batch of listings.
type BuildResult struct {
	Records    []types.NotificationRecord
	Suppressed int
	Failed     int
}

// BuildRecords resolves each listing's seller, drops suppressed listings and
// transforms the rest. Listings are processed concurrently; Records keeps the
// input order. A listing that fails to transform (or panics doing so) is
// logged with its id and skipped.
func BuildRecords(ctx context.Context, listings []types.RawListing, opts BuildOptions) BuildResult {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	slots := make([]*types.NotificationRecord, len(listings))
	var suppressed, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i, raw := range listings {
		g.Go(func() error {
			rec, kept, err := buildOne(ctx, raw, opts)
			switch {
			case err != nil:
				opts.Logger.Printf("[pipeline] Error processing ad %q: %v", raw.ID(), err)
				failed.Add(1)
			case !kept:
				suppressed.Add(1)
			default:
				slots[i] = &rec
			}
			return nil
		})
	}
	_ = g.Wait()

	result := BuildResult{
		Suppressed: int(suppressed.Load()),
		Failed:     int(failed.Load()),
	}
	for _, rec := range slots {
		if rec != nil {
			result.Records = append(result.Records, *rec)
		}
	}
	return result
}

func buildOne(ctx context.Context, raw types.RawListing, opts BuildOptions) (rec types.NotificationRecord, kept bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, kept, err = types.NotificationRecord{}, false, fmt.Errorf("panic: %v", r)
		}
	}()

	profile := opts.Profiles.FetchProfile(ctx, raw.UserID())
	if filter.ShouldSuppress(profile) {
		return types.NotificationRecord{}, false, nil
	}

	rec, err = opts.Transformer.Transform(raw, profile)
	if err != nil {
		return types.NotificationRecord{}, false, err
	}
	return rec, true, nil
}
