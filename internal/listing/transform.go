// Package listing projects raw marketplace listings into notification records.
package listing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/listing-notifier/internal/fetch"
	"github.com/jonathan/listing-notifier/internal/types"
)

// AdIDPlaceholder is replaced by the listing id in the ad URL template.
const AdIDPlaceholder = "{ad_id}"

// DefaultAdURLTemplate is the public permalink of a listing.
const DefaultAdURLTemplate = "https://www.olx.in/item/" + AdIDPlaceholder

// dateTimeSeparator splits an ISO-8601 timestamp into date and time.
const dateTimeSeparator = "T"

var (
	// ErrMissingID is returned for listings without an ad_id.
	ErrMissingID = errors.New("listing has no ad_id")
	// ErrMalformedField is returned when a nested field has the wrong shape.
	ErrMalformedField = errors.New("malformed listing field")
)

// Transformer builds NotificationRecords.
type Transformer struct {
	adURLTemplate string
}

// NewTransformer returns a Transformer using adURLTemplate, which must contain
// AdIDPlaceholder. An empty template selects DefaultAdURLTemplate.
func NewTransformer(adURLTemplate string) (*Transformer, error) {
	if adURLTemplate == "" {
		adURLTemplate = DefaultAdURLTemplate
	}
	if !strings.Contains(adURLTemplate, AdIDPlaceholder) {
		return nil, fmt.Errorf("ad URL template must contain %s", AdIDPlaceholder)
	}
	return &Transformer{adURLTemplate: adURLTemplate}, nil
}

// AdURL returns the public URL of the listing adID.
func (t *Transformer) AdURL(adID string) string {
	return strings.ReplaceAll(t.adURLTemplate, AdIDPlaceholder, url.PathEscape(adID))
}

// Transform flattens raw into a record. profile must already have passed the
// seller filter. Absent fields become types.NotAvailable, except certified_car
// (false) and user_id ("").
func (t *Transformer) Transform(raw types.RawListing, profile types.UserProfile) (types.NotificationRecord, error) {
	adID := raw.ID()
	if adID == "" {
		return types.NotificationRecord{}, ErrMissingID
	}

	price, err := priceDisplay(raw)
	if err != nil {
		return types.NotificationRecord{}, fmt.Errorf("%w: %v", ErrMalformedField, err)
	}

	userName := profile.Name()
	if userName == "" {
		userName = types.NotAvailable
	}

	rec := types.NotificationRecord{
		AdID:         adID,
		Description:  description(raw),
		CreatedAt:    raw.String("created_at", types.NotAvailable),
		Title:        raw.String("title", types.NotAvailable),
		CarBodyType:  raw.String("car_body_type", types.NotAvailable),
		UserType:     raw.String("user_type", types.NotAvailable),
		UserName:     userName,
		Price:        price,
		PartnerCode:  raw.String("partner_code", types.NotAvailable),
		CertifiedCar: raw.Bool("certified_car"),
		MainInfo:     raw.String("main_info", types.NotAvailable),
		UserID:       raw.UserID(),
		DisplayDate:  DateOnly(raw.String("display_date", types.NotAvailable)),
		AdURL:        t.AdURL(adID),
	}
	if err := rec.Validate(); err != nil {
		return types.NotificationRecord{}, fmt.Errorf("invalid record for ad %s: %w", adID, err)
	}
	return rec, nil
}

// DateOnly returns the part of a timestamp before the first "T". A value
// without a separator is returned whole.
func DateOnly(ts string) string {
	date, _, _ := strings.Cut(ts, dateTimeSeparator)
	return date
}

func priceDisplay(raw types.RawListing) (string, error) {
	v, ok, err := types.Lookup(raw, "price", "value", "display")
	if err != nil {
		return "", err
	}
	if !ok {
		return types.NotAvailable, nil
	}
	return types.Stringify(v), nil
}

// description cleans HTML out of a present description. A fragment that is
// all markup keeps its raw value; only an absent field is NotAvailable.
func description(raw types.RawListing) string {
	v, ok := raw["description"]
	if !ok || v == nil {
		return types.NotAvailable
	}
	d := types.Stringify(v)
	if text := fetch.PlainText(d); text != "" {
		return text
	}
	return d
}
