// internal/server/models.go
package server

import (
	"skyconnect-match/internal/models"
	"skyconnect-match/internal/respond/backend-chain"
)

type MatchRequest struct {
	UserID string `json:"userId"`
	Query  string `json:"query"`
}

// matchRequestSchema rejects bodies before they reach the pipeline.
// Query may be blank (the parser tolerates it); userId may not.
var matchRequestSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"userId", "query"},
	"properties": map[string]interface{}{
		"userId": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"query": map[string]interface{}{
			"type": "string",
		},
	},
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ListingsResponse struct {
	Listings []models.Listing `json:"listings"`
	Count    int              `json:"count"`
}

type BackendStatusResponse struct {
	Backends []string           `json:"backends"`
	Stats    backendchain.Stats `json:"stats"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

type ReadyResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	Time       string            `json:"time"`
}
