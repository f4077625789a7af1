package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/listing-notifier/internal/types"
)

func TestBuildRecords_EndToEndScenario(t *testing.T) {
	logger, _ := bufferLogger()
	listings := []types.RawListing{rawListing("A1", "U1")}
	profiles := &stubProfiles{profiles: map[string]types.UserProfile{"U1": privateSeller("John Doe")}}

	result := BuildRecords(context.Background(), listings, BuildOptions{
		Profiles:    profiles,
		Transformer: newTransformer(t),
		Logger:      logger,
	})

	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	assert.Equal(t, "2024-05-01", rec.DisplayDate)
	assert.Equal(t, "₹500", rec.Price)
	assert.Contains(t, rec.AdURL, "A1")
	assert.Equal(t, "John Doe", rec.UserName)
}

func TestBuildRecords_KeywordSellerSuppressed(t *testing.T) {
	logger, _ := bufferLogger()
	profiles := &stubProfiles{profiles: map[string]types.UserProfile{
		"U1": {"name": "XYZ Motors Enterprise", "is_business": false},
	}}

	result := BuildRecords(context.Background(), []types.RawListing{rawListing("A1", "U1")}, BuildOptions{
		Profiles:    profiles,
		Transformer: newTransformer(t),
		Logger:      logger,
	})

	assert.Empty(t, result.Records)
	assert.Equal(t, 1, result.Suppressed)
	assert.Zero(t, result.Failed)
}

func TestBuildRecords_AbsentProfileNeverInOutput(t *testing.T) {
	logger, _ := bufferLogger()
	profiles := &stubProfiles{profiles: map[string]types.UserProfile{
		"U1": privateSeller("Jane"),
		"U3": {},
	}}
	listings := []types.RawListing{
		rawListing("A1", "U1"),
		rawListing("A2", "U2"), // absent
		rawListing("A3", "U3"), // empty but present
		rawListing("A4", ""),   // no owner
	}

	result := BuildRecords(context.Background(), listings, BuildOptions{
		Profiles:    profiles,
		Transformer: newTransformer(t),
		Logger:      logger,
	})

	require.Len(t, result.Records, 1)
	assert.Equal(t, "A1", result.Records[0].AdID)
	assert.Equal(t, 3, result.Suppressed)
}

func TestBuildRecords_MalformedListingSkipped(t *testing.T) {
	logger, logs := bufferLogger()
	profiles := &stubProfiles{profiles: map[string]types.UserProfile{"U1": privateSeller("Jane")}}

	bad := rawListing("A2", "U1")
	bad["price"] = map[string]any{"value": "oops"}
	noID := rawListing("", "U1")

	result := BuildRecords(context.Background(), []types.RawListing{rawListing("A1", "U1"), bad, noID, rawListing("A3", "U1")}, BuildOptions{
		Profiles:    profiles,
		Transformer: newTransformer(t),
		Logger:      logger,
	})

	require.Len(t, result.Records, 2)
	assert.Equal(t, "A1", result.Records[0].AdID)
	assert.Equal(t, "A3", result.Records[1].AdID)
	assert.Equal(t, 2, result.Failed)
	assert.Contains(t, logs.String(), `[pipeline] Error processing ad "A2"`)
}

type panickingProfiles struct{}

func (panickingProfiles) FetchProfile(context.Context, string) types.UserProfile {
	panic("boom")
}

func TestBuildRecords_PanicIsolated(t *testing.T) {
	logger, logs := bufferLogger()

	result := BuildRecords(context.Background(), []types.RawListing{rawListing("A1", "U1")}, BuildOptions{
		Profiles:    panickingProfiles{},
		Transformer: newTransformer(t),
		Logger:      logger,
	})

	assert.Empty(t, result.Records)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, logs.String(), "panic: boom")
}

func TestBuildRecords_PreservesInputOrder(t *testing.T) {
	logger, _ := bufferLogger()
	profiles := &stubProfiles{profiles: map[string]types.UserProfile{}}
	var listings []types.RawListing
	for i := 0; i < 50; i++ {
		uid := fmt.Sprintf("U%d", i)
		profiles.profiles[uid] = privateSeller("Seller " + uid)
		listings = append(listings, rawListing(fmt.Sprintf("A%02d", i), uid))
	}

	result := BuildRecords(context.Background(), listings, BuildOptions{
		Profiles:    profiles,
		Transformer: newTransformer(t),
		Concurrency: 8,
		Logger:      logger,
	})

	require.Len(t, result.Records, 50)
	for i, rec := range result.Records {
		assert.Equal(t, fmt.Sprintf("A%02d", i), rec.AdID)
	}
}

func TestBuildRecords_Empty(t *testing.T) {
	result := BuildRecords(context.Background(), nil, BuildOptions{
		Profiles:    &stubProfiles{},
		Transformer: newTransformer(t),
	})
	assert.Empty(t, result.Records)
}
