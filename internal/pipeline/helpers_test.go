package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/listing-notifier/internal/dedup"
	"github.com/jonathan/listing-notifier/internal/listing"
	"github.com/jonathan/listing-notifier/internal/types"
)

type stubListings struct {
	listings []types.RawListing
	calls    atomic.Int32
}

func (s *stubListings) FetchListings(_ context.Context, _ int) []types.RawListing {
	s.calls.Add(1)
	return s.listings
}

type stubProfiles struct {
	profiles map[string]types.UserProfile
	calls    atomic.Int32
}

func (s *stubProfiles) FetchProfile(_ context.Context, userID string) types.UserProfile {
	s.calls.Add(1)
	return s.profiles[userID]
}

type memStore struct {
	mu      sync.Mutex
	ids     dedup.Set
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load(context.Context) (dedup.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.ids.Clone(), nil
}

func (m *memStore) Save(_ context.Context, ids dedup.Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.ids = ids.Clone()
	return nil
}

func (m *memStore) Close() error { return nil }

type stubNotifier struct {
	mu      sync.Mutex
	batches [][]types.NotificationRecord
	err     error
}

func (n *stubNotifier) Notify(_ context.Context, records []types.NotificationRecord) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, records)
	if n.err != nil {
		return 0, n.err
	}
	return len(records), nil
}

var errSendFailed = errors.New("send failed")

func newTransformer(t *testing.T) *listing.Transformer {
	t.Helper()
	tr, err := listing.NewTransformer(listing.DefaultAdURLTemplate)
	require.NoError(t, err)
	return tr
}

func bufferLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", 0), &buf
}

func rawListing(id, userID string) types.RawListing {
	return types.RawListing{
		"ad_id":        id,
		"user_id":      userID,
		"title":        "Listing " + id,
		"display_date": "2024-05-01T10:00:00Z",
		"price":        map[string]any{"value": map[string]any{"display": "₹500"}},
	}
}

func privateSeller(name string) types.UserProfile {
	return types.UserProfile{
		"name":        name,
		"is_business": false,
		"kyc":         map[string]any{"status": "pending"},
	}
}
