// internal/models/listing.go
package models

// ListingStatus tracks a listing through partner moderation.
type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusApproved ListingStatus = "approved"
	ListingStatusRejected ListingStatus = "rejected"
	ListingStatusInactive ListingStatus = "inactive"
)

// Listing is a candidate catalog item. Price and Available always come
// from a live store read; neither survives a request in any cache.
type Listing struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Location    string        `json:"location"`
	Category    string        `json:"category"`
	Tags        []string      `json:"tags"`
	Price       float64       `json:"price"`
	Currency    string        `json:"currency"`
	Available   bool          `json:"available"`
	Status      ListingStatus `json:"status,omitempty"`
	PartnerID   string        `json:"partnerId,omitempty"`
	Rating      float64       `json:"rating,omitempty"`
	ReviewCount int           `json:"reviewCount,omitempty"`
	Capacity    int           `json:"capacity,omitempty"`
}
