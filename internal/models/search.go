// internal/models/search.go
package models

// SearchFilters is derived from one free-text query, handed to the
// candidate store, and discarded. It is never persisted.
type SearchFilters struct {
	Location      string   `json:"location,omitempty"`
	Category      string   `json:"category,omitempty"`
	MaxPrice      *float64 `json:"maxPrice,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	AvailableOnly bool     `json:"availableOnly"`
}

// IsEmpty reports whether the query text produced no usable constraints
// beyond the availability default.
func (f SearchFilters) IsEmpty() bool {
	return f.Location == "" && f.Category == "" && f.MaxPrice == nil && len(f.Tags) == 0
}
