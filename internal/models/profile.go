// internal/models/profile.go
package models

// UserProfile holds the stored preferences the scorer matches against.
// It is read-only input to a match request.
type UserProfile struct {
	UserID             string   `json:"userId"`
	InterestTags       []string `json:"interestTags"`
	PreferredLocations []string `json:"preferredLocations"`
	LikedCategories    []string `json:"likedCategories"`
}

// EmptyProfile is what unknown users and failed lookups resolve to: a
// valid profile that matches nothing.
func EmptyProfile(userID string) UserProfile {
	return UserProfile{
		UserID:             userID,
		InterestTags:       []string{},
		PreferredLocations: []string{},
		LikedCategories:    []string{},
	}
}
