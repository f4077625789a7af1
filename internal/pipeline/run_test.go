package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/listing-notifier/internal/dedup"
	"github.com/jonathan/listing-notifier/internal/notify"
	"github.com/jonathan/listing-notifier/internal/pipeline/steps"
	"github.com/jonathan/listing-notifier/internal/types"
)

func newTestRunner(t *testing.T, opts RunOptions) *Runner {
	t.Helper()
	if opts.Transformer == nil {
		opts.Transformer = newTransformer(t)
	}
	if opts.Logger == nil {
		opts.Logger, _ = bufferLogger()
	}
	r, err := NewRunner(opts)
	require.NoError(t, err)
	return r
}

func defaultSources() (*stubListings, *stubProfiles) {
	return &stubListings{listings: []types.RawListing{
			rawListing("A1", "U1"),
			rawListing("A2", "U2"),
			rawListing("A3", "U1"),
		}}, &stubProfiles{profiles: map[string]types.UserProfile{
			"U1": privateSeller("John Doe"),
			"U2": {"name": "City Cars", "is_business": false},
		}}
}

func TestNewRunner_RequiresCollaborators(t *testing.T) {
	_, err := NewRunner(RunOptions{})
	assert.ErrorContains(t, err, "listing source is required")
}

func TestRun_NotifiesNewAndPersists(t *testing.T) {
	listings, profiles := defaultSources()
	store := &memStore{ids: dedup.NewSet("A3")}
	notifier := &stubNotifier{}
	logger, logs := bufferLogger()

	r := newTestRunner(t, RunOptions{
		Listings: listings, Profiles: profiles, Store: store, Notifier: notifier, Logger: logger,
	})

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.batches, 1)
	require.Len(t, notifier.batches[0], 1)
	assert.Equal(t, "A1", notifier.batches[0][0].AdID)

	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 2, report.Qualified)
	assert.Equal(t, 1, report.Suppressed)
	assert.Equal(t, 1, report.New)
	assert.Equal(t, 1, report.Notified)
	assert.Equal(t, 1, report.DedupBefore)
	assert.Equal(t, 2, report.DedupAfter)
	assert.True(t, report.Persisted)
	assert.False(t, report.CompletedAt.IsZero())

	assert.Equal(t, []string{"A1", "A3"}, store.ids.Sorted())
	assert.Contains(t, logs.String(), "[runner] Job executed at ")
	// U1 owns two listings but is fetched once.
	assert.Equal(t, int32(2), profiles.calls.Load())
}

func TestRun_IdempotentAcrossRuns(t *testing.T) {
	listings, profiles := defaultSources()
	store := dedup.NewFileStore(filepath.Join(t.TempDir(), "notified_ads.json"))

	var out bytes.Buffer
	sender := notify.NewWriterSender(&out)
	n, err := notify.New(sender, notify.Options{ChatID: "42", Logger: log.New(&bytes.Buffer{}, "", 0)})
	require.NoError(t, err)

	r := newTestRunner(t, RunOptions{Listings: listings, Profiles: profiles, Store: store, Notifier: n})

	first, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Notified)
	assert.Contains(t, out.String(), "Total new ads sent: 2")

	out.Reset()
	second, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Notified)
	assert.Zero(t, second.New)
	assert.NotContains(t, out.String(), "Title:")
	assert.Contains(t, out.String(), "No new ads found!")
}

func TestRun_DedupSetOnlyGrows(t *testing.T) {
	listings, profiles := defaultSources()
	before := dedup.NewSet("OLD1", "OLD2", "A1")
	store := &memStore{ids: before.Clone()}

	r := newTestRunner(t, RunOptions{Listings: listings, Profiles: profiles, Store: store, Notifier: &stubNotifier{}})
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, store.ids.IsSuperset(before))
	assert.Equal(t, 4, store.ids.Len())
}

func TestRun_NotifyFailureLeavesStoreUnchanged(t *testing.T) {
	listings, profiles := defaultSources()
	store := &memStore{ids: dedup.NewSet("OLD")}
	notifier := &stubNotifier{err: errSendFailed}
	logger, logs := bufferLogger()

	r := newTestRunner(t, RunOptions{Listings: listings, Profiles: profiles, Store: store, Notifier: notifier, Logger: logger})

	report, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errSendFailed)
	assert.False(t, report.Persisted)
	assert.Zero(t, store.saves)
	assert.Equal(t, []string{"OLD"}, store.ids.Sorted())
	assert.Contains(t, logs.String(), "dedup state not persisted")
	assert.NotContains(t, logs.String(), "Job executed at")
}

func TestRun_CorruptStoreStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notified_ads.json")
	require.NoError(t, os.WriteFile(path, []byte("\x80\x04garbage"), 0o644))
	store := dedup.NewFileStore(path)

	listings, profiles := defaultSources()
	notifier := &stubNotifier{}
	logger, logs := bufferLogger()

	r := newTestRunner(t, RunOptions{Listings: listings, Profiles: profiles, Store: store, Notifier: notifier, Logger: logger})
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "Failed to load dedup state")
	assert.Equal(t, 0, report.DedupBefore)
	assert.Equal(t, 2, report.Notified)

	ids, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A3"}, ids.Sorted())
}

func TestRun_SaveFailureIsReturned(t *testing.T) {
	listings, profiles := defaultSources()
	store := &memStore{ids: dedup.NewSet(), saveErr: errors.New("disk full")}

	r := newTestRunner(t, RunOptions{Listings: listings, Profiles: profiles, Store: store, Notifier: &stubNotifier{}})
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist dedup state")
}

func TestRun_DryRunDoesNotPersist(t *testing.T) {
	listings, profiles := defaultSources()
	store := &memStore{ids: dedup.NewSet()}

	r := newTestRunner(t, RunOptions{Listings: listings, Profiles: profiles, Store: store, Notifier: &stubNotifier{}, DryRun: true})
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.False(t, report.Persisted)
	assert.Zero(t, store.saves)
	assert.Equal(t, 2, report.DedupAfter)
}

func TestRun_NoListingsStillNotifies(t *testing.T) {
	notifier := &stubNotifier{}
	store := &memStore{ids: dedup.NewSet()}

	r := newTestRunner(t, RunOptions{
		Listings: &stubListings{}, Profiles: &stubProfiles{}, Store: store, Notifier: notifier,
	})
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.batches, 1)
	assert.Empty(t, notifier.batches[0])
	assert.True(t, report.Persisted)
}

func TestRun_ProgressFollowsStepOrder(t *testing.T) {
	listings, profiles := defaultSources()
	var mu sync.Mutex
	var seen []string

	r := newTestRunner(t, RunOptions{
		Listings: listings, Profiles: profiles, Store: &memStore{ids: dedup.NewSet()}, Notifier: &stubNotifier{},
		OnProgress: func(e ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, e.Step)
			assert.NotEmpty(t, e.RunID)
		},
	})
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, steps.Sequence, seen)
}

func TestRun_SelectNewEventCarriesRecords(t *testing.T) {
	listings, profiles := defaultSources()
	var selected []types.NotificationRecord

	r := newTestRunner(t, RunOptions{
		Listings: listings, Profiles: profiles, Store: &memStore{ids: dedup.NewSet("A3")}, Notifier: &stubNotifier{},
		OnProgress: func(e ProgressEvent) {
			if e.Step == steps.SelectNew {
				selected = e.Records
			} else {
				assert.Empty(t, e.Records)
			}
		},
	})
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, selected, 1)
	assert.Equal(t, "A1", selected[0].AdID)
}

func TestSelectNew(t *testing.T) {
	recs := []types.NotificationRecord{{AdID: "A1"}, {AdID: "A2"}, {AdID: "A1"}, {AdID: "A3"}}
	fresh := SelectNew(recs, dedup.NewSet("A2"))

	var ids []string
	for _, r := range fresh {
		ids = append(ids, r.AdID)
	}
	assert.Equal(t, "A1,A3", strings.Join(ids, ","))
}
