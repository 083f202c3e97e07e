// Package syncqueue buffers inventory edits made while offline and replays
// them against the API once a connection is available.
//
// Edits are keyed by inventory item: a newer edit of the same item replaces
// the pending one, so only the latest quantity per item is sent. Entries are
// replayed in the order their latest edit was made.
package syncqueue

import (
	"time"

	"github.com/shopspring/decimal"
)

// Result statuses reported by the server per item
const (
	StatusApplied  = "applied"
	StatusStale    = "stale"
	StatusNotFound = "not_found"
)

// Change sets the stock level of one inventory item
type Change struct {
	ItemID          uint            `json:"item_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	ClientUpdatedAt time.Time       `json:"client_updated_at"`
}

// Batch is the request body of POST /api/v1/inventory/sync
type Batch struct {
	Changes []Change `json:"changes" binding:"required,dive"`
}

// ItemResult is the server's verdict on one change
type ItemResult struct {
	ItemID   uint             `json:"item_id"`
	Status   string           `json:"status"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"` // stored quantity after the sync
}

// BatchResult is the response data of POST /api/v1/inventory/sync
type BatchResult struct {
	Results []ItemResult `json:"results"`
}

// Collapse keeps the last change per item, ordered by the position of that
// last change in changes.
func Collapse(changes []Change) []Change {
	last := make(map[uint]int, len(changes))
	for i, ch := range changes {
		last[ch.ItemID] = i
	}

	out := make([]Change, 0, len(last))
	for i, ch := range changes {
		if last[ch.ItemID] == i {
			out = append(out, ch)
		}
	}
	return out
}
