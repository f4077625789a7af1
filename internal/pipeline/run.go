// Package pipeline orchestrates one notifier run: load dedup state, fetch
// listings, build records, notify the new ones, persist dedup state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/listing-notifier/internal/dedup"
	"github.com/jonathan/listing-notifier/internal/listing"
	"github.com/jonathan/listing-notifier/internal/marketplace"
	"github.com/jonathan/listing-notifier/internal/pipeline/steps"
	"github.com/jonathan/listing-notifier/internal/types"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Count   int    `json:"count"`
	// Records holds the new listings on the select_new event.
	Records []types.NotificationRecord `json:"-"`
}

// ProgressCallback is called when run progress occurs
type ProgressCallback func(event ProgressEvent)

// ListingSource returns the raw listings of up to maxPages pages.
type ListingSource interface {
	FetchListings(ctx context.Context, maxPages int) []types.RawListing
}

// Notifier delivers records and returns how many were sent.
type Notifier interface {
	Notify(ctx context.Context, records []types.NotificationRecord) (int, error)
}

// RunOptions holds the collaborators and settings of a Runner.
type RunOptions struct {
	Listings    ListingSource
	Profiles    marketplace.ProfileFetcher
	Transformer *listing.Transformer
	Store       dedup.Store
	Notifier    Notifier

	MaxPages    int
	Concurrency int
	// DryRun skips persisting dedup state.
	DryRun     bool
	Logger     *log.Logger
	OnProgress ProgressCallback
}

// Runner executes runs. A Runner is not safe for overlapping Run calls
// against the same store.
type Runner struct {
	opts RunOptions
}

// NewRunner validates opts and builds a Runner.
func NewRunner(opts RunOptions) (*Runner, error) {
	if err := steps.ValidateSequence(steps.Sequence); err != nil {
		return nil, fmt.Errorf("invalid step order: %w", err)
	}
	switch {
	case opts.Listings == nil:
		return nil, errors.New("listing source is required")
	case opts.Profiles == nil:
		return nil, errors.New("profile source is required")
	case opts.Transformer == nil:
		return nil, errors.New("transformer is required")
	case opts.Store == nil:
		return nil, errors.New("dedup store is required")
	case opts.Notifier == nil:
		return nil, errors.New("notifier is required")
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = marketplace.DefaultMaxPages
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Runner{opts: opts}, nil
}

// run carries the state of one Run.
type run struct {
	*Runner
	report *types.RunReport
}

func (r *run) finish(step string, count int, format string, args ...any) {
	r.emit(ProgressEvent{Step: step, Count: count, Message: fmt.Sprintf(format, args...)})
}

func (r *run) emit(event ProgressEvent) {
	if r.opts.OnProgress == nil {
		return
	}
	event.RunID = r.report.RunID.String()
	r.opts.OnProgress(event)
}

// Run performs one job invocation. Notification failures are returned before
// dedup state is saved, so undelivered listings are retried next run. Dedup
// load failures are logged and the run starts from an empty set.
func (r *Runner) Run(ctx context.Context) (*types.RunReport, error) {
	cur := &run{
		Runner: r,
		report: &types.RunReport{
			RunID:     uuid.New(),
			StartedAt: time.Now(),
			DryRun:    r.opts.DryRun,
		},
	}
	report := cur.report
	logger := r.opts.Logger

	// Step 1: dedup state
	seen, err := r.opts.Store.Load(ctx)
	if err != nil {
		logger.Printf("[runner] Failed to load dedup state, starting with an empty set: %v", err)
		seen = dedup.NewSet()
	}
	if seen == nil {
		seen = dedup.NewSet()
	}
	report.DedupBefore = seen.Len()
	cur.finish(steps.LoadDedup, seen.Len(), "Loaded %d notified listing ids", seen.Len())

	// Step 2: listings
	listings := r.opts.Listings.FetchListings(ctx, r.opts.MaxPages)
	report.Fetched = len(listings)
	cur.finish(steps.FetchListings, len(listings), "Fetched %d listings", len(listings))

	// Step 3: records
	built := BuildRecords(ctx, listings, BuildOptions{
		Profiles:    marketplace.NewProfileCache(r.opts.Profiles),
		Transformer: r.opts.Transformer,
		Concurrency: r.opts.Concurrency,
		Logger:      logger,
	})
	report.Qualified = len(built.Records)
	report.Suppressed = built.Suppressed
	report.Failed = built.Failed
	cur.finish(steps.BuildRecords, len(built.Records), "Built %d records (%d suppressed, %d failed)",
		len(built.Records), built.Suppressed, built.Failed)

	// Step 4: diff against dedup state
	fresh := SelectNew(built.Records, seen)
	report.New = len(fresh)
	cur.emit(ProgressEvent{
		Step:    steps.SelectNew,
		Message: fmt.Sprintf("%d new listings", len(fresh)),
		Count:   len(fresh),
		Records: fresh,
	})

	// Step 5: notify
	sent, err := r.opts.Notifier.Notify(ctx, fresh)
	report.Notified = sent
	if err != nil {
		logger.Printf("[runner] Notification failed after %d of %d listings; dedup state not persisted", sent, len(fresh))
		return report, fmt.Errorf("notification failed: %w", err)
	}
	cur.finish(steps.Notify, sent, "Sent %d notifications", sent)

	// Step 6: persist
	added := dedup.NewSet()
	for _, rec := range fresh {
		added.Add(rec.AdID)
	}
	next := seen.Union(added)
	report.DedupAfter = next.Len()

	if r.opts.DryRun {
		cur.finish(steps.PersistDedup, next.Len(), "Dry run: dedup state left unchanged")
	} else {
		if err := r.opts.Store.Save(ctx, next); err != nil {
			return report, fmt.Errorf("failed to persist dedup state: %w", err)
		}
		report.Persisted = true
		cur.finish(steps.PersistDedup, next.Len(), "Persisted %d notified listing ids", next.Len())
	}

	report.CompletedAt = time.Now()
	logger.Printf("[runner] Job executed at %s", report.CompletedAt.Format(time.RFC3339))
	return report, nil
}

// SelectNew returns the records whose id is not in seen, in order. A listing
// repeated across pages is kept once.
func SelectNew(records []types.NotificationRecord, seen dedup.Set) []types.NotificationRecord {
	batch := dedup.NewSet()
	var fresh []types.NotificationRecord
	for _, rec := range records {
		if seen.Has(rec.AdID) || batch.Has(rec.AdID) {
			continue
		}
		batch.Add(rec.AdID)
		fresh = append(fresh, rec)
	}
	return fresh
}
