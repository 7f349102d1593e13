// internal/matching/score-candidates/handler.go
package scorecandidates

import (
	"context"
	"sort"

	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/models"
)

const (
	StageName   = "score-candidates"
	DefaultTopN = 3
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Score rates a single listing against a user's preferences:
// +3 for any overlap between listing tags and interest tags (counted once
// regardless of how many tags overlap), +2 when the listing location is
// among the preferred locations, +1 when the listing category is among
// the liked categories. Maximum score is 6; an empty profile scores 0.
func Score(item models.Listing, profile models.UserProfile) int {
	score := 0

	for _, tag := range item.Tags {
		if contains(profile.InterestTags, tag) {
			score += 3
			break
		}
	}

	if contains(profile.PreferredLocations, item.Location) {
		score += 2
	}

	if contains(profile.LikedCategories, item.Category) {
		score += 1
	}

	return score
}

// Rank scores every candidate, orders by score descending, and keeps the
// top N. Zero-score items are dropped only when at least one item scored
// above zero; an all-zero list is returned in full so the user still
// sees something. Ties keep candidate input order.
func Rank(items []models.Listing, profile models.UserProfile, topN int) []models.MatchResult {
	scored := make([]models.MatchResult, 0, len(items))
	anyPositive := false

	for _, item := range items {
		s := Score(item, profile)
		if s > 0 {
			anyPositive = true
		}
		scored = append(scored, models.MatchResult{Item: item, Score: s})
	}

	if anyPositive {
		kept := make([]models.MatchResult, 0, len(scored))
		for _, r := range scored {
			if r.Score > 0 {
				kept = append(kept, r)
			}
		}
		scored = kept
	}

	// Stable sort so equal scores keep their input order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(scored) > topN {
		scored = scored[:topN]
	}

	return scored
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	matches := Rank(input.Items, input.Profile, h.config.TopN)

	h.logger.Info("candidates ranked", map[string]interface{}{
		"inputCount":  len(input.Items),
		"outputCount": len(matches),
	})

	return &Output{Matches: matches}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
