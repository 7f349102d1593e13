// internal/respond/fallback-format/models.go
package fallbackformat

import "skyconnect-match/internal/models"

type Input struct {
	Recommendations []models.MatchResult `json:"recommendations"`
}

type Output struct {
	Text string `json:"text"`
}
