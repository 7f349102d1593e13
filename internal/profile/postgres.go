// internal/profile/postgres.go
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/models"
)

// PostgresSource is the source of truth for stored preferences.
type PostgresSource struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresSource(db *sql.DB, log logger.Logger) *PostgresSource {
	return &PostgresSource{
		db:     db,
		logger: log,
	}
}

// Load fetches one profile. An unknown user is a normal outcome and
// comes back as an empty profile with a nil error; only infrastructure
// failures return an error.
func (s *PostgresSource) Load(ctx context.Context, userID string) (models.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT interest_tags, preferred_locations, liked_categories
		FROM user_profiles WHERE user_id = $1`, userID)

	profile := models.UserProfile{UserID: userID}
	err := row.Scan(
		pq.Array(&profile.InterestTags),
		pq.Array(&profile.PreferredLocations),
		pq.Array(&profile.LikedCategories),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EmptyProfile(userID), nil
		}
		return models.EmptyProfile(userID), fmt.Errorf("load profile: %w", err)
	}

	if profile.InterestTags == nil {
		profile.InterestTags = []string{}
	}
	if profile.PreferredLocations == nil {
		profile.PreferredLocations = []string{}
	}
	if profile.LikedCategories == nil {
		profile.LikedCategories = []string{}
	}

	return profile, nil
}
