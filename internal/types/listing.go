// Package types provides the data structures shared across the listing notifier.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// NotAvailable is substituted for listing fields the marketplace omitted.
const NotAvailable = "N/A"

// RawListing is one item of a listings page, kept in its wire shape.
// Only the marketplace adapter and the transformer look inside it.
type RawListing map[string]any

// UserProfile is the "data" object returned by the user profile endpoint.
// A nil UserProfile means the profile could not be fetched; an empty non-nil
// map means the endpoint answered without any data. Both suppress a listing.
type UserProfile map[string]any

// Lookup walks nested objects along path. It reports whether the final key
// was present. A non-object value in the middle of the path is an error.
func Lookup(m map[string]any, path ...string) (any, bool, error) {
	var cur any = m
	for i, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			if cur == nil {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("%s: expected object, got %T", joinPath(path[:i]), cur)
		}
		v, present := obj[key]
		if !present || v == nil {
			return nil, false, nil
		}
		cur = v
	}
	return cur, true, nil
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "(root)"
	}
	return strings.Join(path, ".")
}

// Stringify renders a scalar JSON value as text.
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// String returns the top-level field key as text, or fallback when absent.
func (l RawListing) String(key, fallback string) string {
	v, ok := l[key]
	if !ok || v == nil {
		return fallback
	}
	return Stringify(v)
}

// Bool returns the top-level field key as a boolean. Anything that is not a
// JSON true is false.
func (l RawListing) Bool(key string) bool {
	b, _ := l[key].(bool)
	return b
}

// ID returns the listing identifier, or "" when absent.
func (l RawListing) ID() string {
	return l.String("ad_id", "")
}

// UserID returns the owning user's identifier, or "" when absent.
func (l RawListing) UserID() string {
	return l.String("user_id", "")
}

// Name returns the seller display name, or "" when absent.
func (p UserProfile) Name() string {
	v, ok := p["name"]
	if !ok || v == nil {
		return ""
	}
	return Stringify(v)
}

// IsBusiness reports whether the profile is flagged as a business account.
func (p UserProfile) IsBusiness() bool {
	b, _ := p["is_business"].(bool)
	return b
}

// KYCStatus returns kyc.status, or "" when missing or not an object.
func (p UserProfile) KYCStatus() string {
	v, ok, err := Lookup(p, "kyc", "status")
	if err != nil || !ok {
		return ""
	}
	return Stringify(v)
}

// NotificationRecord is the flattened, display-ready projection of a listing
// whose seller passed the filter.
type NotificationRecord struct {
	AdID         string `json:"ad_id" validate:"required"`
	Description  string `json:"description"`
	CreatedAt    string `json:"created_at"`
	Title        string `json:"title"`
	CarBodyType  string `json:"car_body_type"`
	UserType     string `json:"user_type"`
	UserName     string `json:"user_name"`
	Price        string `json:"price"`
	PartnerCode  string `json:"partner_code"`
	CertifiedCar bool   `json:"certified_car"`
	MainInfo     string `json:"main_info"`
	UserID       string `json:"user_id"`
	DisplayDate  string `json:"display_date"`
	AdURL        string `json:"ad_url" validate:"required,url"`
}

// Validate checks the record's required fields.
func (r *NotificationRecord) Validate() error {
	return validate.Struct(r)
}
