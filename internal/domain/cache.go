package domain

import (
	"time"
)

// CacheEntry is the derived, expiring balance mirror. It is never
// authoritative; whenever present, Balance equals the ledger's value as of
// UpdatedAt or later.
type CacheEntry struct {
	Balance         int64     `json:"balance"`
	PreviousBalance int64     `json:"previous_balance"`
	UpdatedAt       time.Time `json:"updated_at"`
}
