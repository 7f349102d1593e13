// internal/catalog/store.go
package catalog

import (
	"context"
	"errors"

	"skyconnect-match/internal/models"
)

var (
	ErrStoreUnavailable = errors.New("STORE_UNAVAILABLE")
	ErrListingNotFound  = errors.New("LISTING_NOT_FOUND")
)

// Store serves listing candidates for matching and the read-only listing
// endpoints. Implementations answer from the live backing store on every
// call: price and availability are never cached across requests.
type Store interface {
	// GetCandidates returns listings matching the filters. A failing or
	// unreachable store yields ErrStoreUnavailable; callers degrade to an
	// empty candidate list.
	GetCandidates(ctx context.Context, filters models.SearchFilters) ([]models.Listing, error)

	// GetByID returns one listing or ErrListingNotFound.
	GetByID(ctx context.Context, id string) (*models.Listing, error)
}

func hasAnyTag(itemTags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range itemTags {
			if t == w {
				return true
			}
		}
	}
	return false
}
