// internal/models/match.go
package models

// Response envelope sources that are not backend identifiers.
const (
	SourceFallback = "fallback"
	SourceError    = "error"
)

// MatchResult pairs a listing with its preference score. Result lists
// are ordered by non-increasing score; ties keep candidate input order.
type MatchResult struct {
	Item  Listing `json:"item"`
	Score int     `json:"score"`
}

// ResponseEnvelope is the single response shape of a match request.
// Success stays true through every degraded path; it turns false only
// when the pipeline hit an unexpected internal error.
type ResponseEnvelope struct {
	Text            string        `json:"text"`
	Recommendations []MatchResult `json:"recommendations"`
	Source          string        `json:"source"`
	Success         bool          `json:"success"`
}
