// Package filter decides which sellers' listings are never notified.
package filter

import (
	"strings"

	"github.com/jonathan/listing-notifier/internal/types"
)

// VerifiedKYCStatus is the kyc.status value of identity-verified sellers.
const VerifiedKYCStatus = "verified"

// TradeKeywords mark sellers whose name reads like a dealership. Matching is
// a case-insensitive substring test, so an unrelated name such as
// "Motor City Realty" is suppressed as well.
var TradeKeywords = []string{"motors", "automobile", "cars", "vehicles", "motor", "enterprise"}

// ShouldSuppress returns true when the listing owned by profile must not be
// notified: the profile is missing or empty, the seller is a business, the
// seller is KYC-verified, or the seller name contains a trade keyword.
func ShouldSuppress(profile types.UserProfile) bool {
	if len(profile) == 0 {
		return true
	}
	if profile.IsBusiness() {
		return true
	}
	if profile.KYCStatus() == VerifiedKYCStatus {
		return true
	}
	return ContainsTradeKeyword(profile.Name())
}

// ContainsTradeKeyword reports whether name contains any TradeKeywords entry.
func ContainsTradeKeyword(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, keyword := range TradeKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
