// internal/matching/score-candidates/models.go
package scorecandidates

import "skyconnect-match/internal/models"

type Input struct {
	Items   []models.Listing   `json:"items"`
	Profile models.UserProfile `json:"profile"`
}

type Output struct {
	Matches []models.MatchResult `json:"matches"`
}
