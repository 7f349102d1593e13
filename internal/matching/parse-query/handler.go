// internal/matching/parse-query/handler.go
package parsequery

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/models"
)

const StageName = "parse-query"

// Destinations the parser recognizes. Scanned in order, first hit wins,
// so a query naming two places keeps the earlier entry.
var knownLocations = []struct {
	keyword string
	display string
}{
	{"galle", "Galle"},
	{"colombo", "Colombo"},
	{"kandy", "Kandy"},
	{"ella", "Ella"},
	{"sigiriya", "Sigiriya"},
	{"anuradhapura", "Anuradhapura"},
	{"trincomalee", "Trincomalee"},
	{"jaffna", "Jaffna"},
	{"negombo", "Negombo"},
	{"bentota", "Bentota"},
	{"mirissa", "Mirissa"},
	{"arugam bay", "Arugam Bay"},
}

var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"hotel", "Accommodation"},
	{"accommodation", "Accommodation"},
	{"stay", "Accommodation"},
	{"resort", "Accommodation"},
	{"villa", "Accommodation"},
	{"tour", "Tour"},
	{"guide", "Tour"},
	{"trip", "Tour"},
	{"excursion", "Tour"},
	{"restaurant", "Restaurant"},
	{"food", "Restaurant"},
	{"dining", "Restaurant"},
	{"cafe", "Restaurant"},
	{"activity", "Activity"},
	{"experience", "Activity"},
	{"adventure", "Activity"},
}

// Each tag is emitted at most once no matter how many of its trigger
// words appear.
var tagKeywords = []struct {
	tag      string
	triggers []string
}{
	{"beach", []string{"beach", "ocean", "seaside", "coastal"}},
	{"luxury", []string{"luxury", "premium", "5-star", "deluxe"}},
	{"budget", []string{"budget", "cheap", "affordable", "economical"}},
	{"family", []string{"family", "kids", "children"}},
	{"adventure", []string{"adventure", "hiking", "trekking", "climbing"}},
	{"cultural", []string{"cultural", "heritage", "temple", "historical"}},
	{"wildlife", []string{"wildlife", "safari", "animals", "nature"}},
}

var maxPriceRe = regexp.MustCompile(`(?:under|below|less than)\s+\$?(\d+)`)

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

// Parse extracts search filters from free text by case-insensitive
// substring matching against the closed vocabularies above. Unrecognized
// text leaves fields unset; malformed input is never an error. The
// availability filter is always on because stale availability must not
// reach users.
func Parse(query string) models.SearchFilters {
	filters := models.SearchFilters{
		Tags:          []string{},
		AvailableOnly: true,
	}

	lowered := strings.ToLower(query)

	for _, loc := range knownLocations {
		if strings.Contains(lowered, loc.keyword) {
			filters.Location = loc.display
			break
		}
	}

	for _, ck := range categoryKeywords {
		if strings.Contains(lowered, ck.keyword) {
			filters.Category = ck.category
			break
		}
	}

	if m := maxPriceRe.FindStringSubmatch(lowered); m != nil {
		if price, err := strconv.ParseFloat(m[1], 64); err == nil {
			filters.MaxPrice = &price
		}
	}

	for _, tk := range tagKeywords {
		for _, trigger := range tk.triggers {
			if strings.Contains(lowered, trigger) {
				filters.Tags = append(filters.Tags, tk.tag)
				break
			}
		}
	}

	return filters
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	filters := Parse(input.Query)

	h.logger.Info("query parsed", map[string]interface{}{
		"location": filters.Location,
		"category": filters.Category,
		"maxPrice": filters.MaxPrice,
		"tags":     filters.Tags,
	})

	return &Output{Filters: filters}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
