// internal/orchestrator/prompt.go
package orchestrator

import (
	"fmt"
	"strings"

	"skyconnect-match/internal/models"
)

const (
	defaultInterests   = "exploring Sri Lanka"
	defaultExperiences = "Various exciting experiences across Sri Lanka"
)

// BuildPrompt renders the concierge prompt handed to the backend chain.
// Deterministic for fixed inputs.
func BuildPrompt(interests []string, query string, recommendations []models.MatchResult, wordLimit int) string {
	if wordLimit <= 0 {
		wordLimit = DefaultPromptWordLimit
	}

	interestsStr := defaultInterests
	if len(interests) > 0 {
		interestsStr = strings.Join(interests, ", ")
	}

	experiencesStr := defaultExperiences
	if len(recommendations) > 0 {
		lines := make([]string, 0, len(recommendations))
		for i, rec := range recommendations {
			title := rec.Item.Title
			if title == "" {
				title = "Experience"
			}
			location := rec.Item.Location
			if location == "" {
				location = "Sri Lanka"
			}
			lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, title, location))
		}
		experiencesStr = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`You are a friendly AI travel concierge for Sri Lanka.

User interests: %s
User query: %s

Top matched experiences:
%s

Write a natural, friendly, inspiring response in under %d words.
Encourage discovery and highlight why these experiences are special.
Do NOT mention booking or pricing.
Use light emojis sparingly (max 2-3).
Sound conversational and warm, like talking to a friend.`, interestsStr, query, experiencesStr, wordLimit)
}
