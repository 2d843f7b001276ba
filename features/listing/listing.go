package listing

import (
	"encoding/json"
	"time"
)

// Listing is one persisted extraction result as served by the search API.
// Cossim is only set for semantic search results.
type Listing struct {
	ID        string          `json:"id"`
	Cossim    *float64        `json:"cossim,omitempty"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// SearchQuery is the filter set for attribute search. Zero values mean
// "no filter".
type SearchQuery struct {
	Address   string
	MLSNumber string
	Limit     int
	Offset    int
}
