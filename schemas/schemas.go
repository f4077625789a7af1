// Package schemas embeds the JSON Schemas that marketplace payloads are
// checked against before any field is read.
package schemas

import _ "embed"

// ListingsPage validates one page of the listings endpoint.
//
//go:embed listings_page.schema.json
var ListingsPage string

// UserProfile validates a user profile response.
//
//go:embed user_profile.schema.json
var UserProfile string
