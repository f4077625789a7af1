// Package marketplace talks to the classifieds marketplace: paginated listing
// pages and per-seller user profiles.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/listing-notifier/internal/fetch"
	"github.com/jonathan/listing-notifier/internal/schemas"
	"github.com/jonathan/listing-notifier/internal/types"
	rootschemas "github.com/jonathan/listing-notifier/schemas"
)

// DefaultMaxPages is how many listing pages one run requests.
const DefaultMaxPages = 10

// UserIDPlaceholder is replaced by the seller id in the profile URL template.
const UserIDPlaceholder = "{user_id}"

var (
	pageSchema    = schemas.MustCompile("listings_page", rootschemas.ListingsPage)
	profileSchema = schemas.MustCompile("user_profile", rootschemas.UserProfile)
)

// Client fetches listings and profiles. Every request is bounded by the
// configured timeout and failures are logged, never returned.
type Client struct {
	listingsURL     string
	profileTemplate string
	opts            *fetch.Options
	logger          *log.Logger
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// ListingsURL is the listings endpoint; its page query parameter is
	// overwritten for every request.
	ListingsURL string
	// ProfileURLTemplate contains UserIDPlaceholder.
	ProfileURLTemplate string
	UserAgent          string
	Timeout            time.Duration
	HTTPClient         *http.Client
	Logger             *log.Logger
}

// NewClient validates the endpoints and builds a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	base := strings.TrimSpace(opts.ListingsURL)
	if base == "" {
		return nil, errors.New("listings URL is required")
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid listings URL %q", base)
	}
	if !strings.Contains(opts.ProfileURLTemplate, UserIDPlaceholder) {
		return nil, fmt.Errorf("profile URL template must contain %s", UserIDPlaceholder)
	}

	fo := fetch.DefaultOptions()
	if opts.Timeout > 0 {
		fo.Timeout = opts.Timeout
	}
	if ua := strings.TrimSpace(opts.UserAgent); ua != "" {
		fo.UserAgent = ua
	}
	fo.Client = opts.HTTPClient

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		listingsURL:     base,
		profileTemplate: opts.ProfileURLTemplate,
		opts:            fo,
		logger:          logger,
	}, nil
}

// FetchListings requests pages 1..maxPages in order and concatenates their
// items. The first failing page stops pagination; listings from earlier pages
// are still returned.
func (c *Client) FetchListings(ctx context.Context, maxPages int) []types.RawListing {
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}

	var all []types.RawListing
	for page := 1; page <= maxPages; page++ {
		items, err := c.fetchPage(ctx, page)
		if err != nil {
			c.logger.Printf("[fetcher] Error fetching listings page %d: %v", page, err)
			break
		}
		all = append(all, items...)
	}
	return all
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]types.RawListing, error) {
	pageURL, err := c.pageURL(page)
	if err != nil {
		return nil, err
	}

	result, err := fetch.URL(ctx, pageURL, c.opts)
	if err != nil {
		return nil, err
	}
	if err := pageSchema.Validate(result.Body); err != nil {
		return nil, fmt.Errorf("malformed listings page: %w", err)
	}

	var payload struct {
		Data []types.RawListing `json:"data"`
	}
	if err := fetch.Decode(result.Body, &payload); err != nil {
		return nil, fmt.Errorf("malformed listings page: %w", err)
	}
	return payload.Data, nil
}

func (c *Client) pageURL(page int) (string, error) {
	u, err := url.Parse(c.listingsURL)
	if err != nil {
		return "", fmt.Errorf("invalid listings URL: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchProfile returns the profile's data object. It returns nil when the
// profile could not be fetched or decoded, and an empty profile when the
// endpoint answered without data.
func (c *Client) FetchProfile(ctx context.Context, userID string) types.UserProfile {
	profileURL := strings.ReplaceAll(c.profileTemplate, UserIDPlaceholder, url.PathEscape(userID))

	result, err := fetch.URL(ctx, profileURL, c.opts)
	if err != nil {
		c.logger.Printf("[profile] Error fetching user data for user_id %q: %v", userID, err)
		return nil
	}
	if err := profileSchema.Validate(result.Body); err != nil {
		c.logger.Printf("[profile] Malformed user data for user_id %q: %v", userID, err)
		return nil
	}

	var payload struct {
		Data types.UserProfile `json:"data"`
	}
	if err := fetch.Decode(result.Body, &payload); err != nil {
		c.logger.Printf("[profile] Malformed user data for user_id %q: %v", userID, err)
		return nil
	}
	if payload.Data == nil {
		return types.UserProfile{}
	}
	return payload.Data
}
