package db

import "time"

// NotifiedListing is one row of notified_listings.
type NotifiedListing struct {
	AdID       string    `json:"ad_id"`
	NotifiedAt time.Time `json:"notified_at"`
}

const createNotifiedListingsTable = `
CREATE TABLE IF NOT EXISTS notified_listings (
	ad_id       TEXT PRIMARY KEY,
	notified_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
