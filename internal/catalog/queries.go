// internal/catalog/queries.go
package catalog

import "skyconnect-match/internal/models"

// BuildSearchQuery builds the Elasticsearch request body for one set of
// search filters. Constraints go into the bool filter context; the must
// clause stays match_all because relevance ordering is not used here,
// preference scoring happens after retrieval.
func BuildSearchQuery(filters models.SearchFilters) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if filters.Location != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"location": filters.Location},
		})
	}

	if filters.Category != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"category": filters.Category},
		})
	}

	if filters.MaxPrice != nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"price": map[string]interface{}{"lte": *filters.MaxPrice},
			},
		})
	}

	if len(filters.Tags) > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"tags": filters.Tags},
		})
	}

	if filters.AvailableOnly {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"available": true},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": mustClauses}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}
}
