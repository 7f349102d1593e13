// internal/matching/parse-query/models.go
package parsequery

import "skyconnect-match/internal/models"

type Input struct {
	Query string `json:"query"`
}

type Output struct {
	Filters models.SearchFilters `json:"filters"`
}
