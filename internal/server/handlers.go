// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/go-chi/chi/v5"
	"github.com/xeipuuv/gojsonschema"

	"skyconnect-match/internal/catalog"
	"skyconnect-match/internal/models"
)

const maxMatchBodyBytes = 1 << 20

const readyProbeTimeout = 2 * time.Second

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// handleMatch answers every well-formed request with HTTP 200; degraded
// and failed pipelines are reported inside the envelope. The 400 for an
// invalid body is the only non-200 this route produces.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMatchBodyBytes))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unreadable request body"})
		return
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	result, err := s.matchSchema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: strings.Join(descriptions, "; ")})
		return
	}

	var req MatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	// Profile resolution never fails; unknown users match with an empty
	// profile.
	profile, _ := s.provider.Get(r.Context(), req.UserID)

	envelope := s.responder.Respond(r.Context(), req.UserID, profile, req.Query)
	s.writeJSON(w, http.StatusOK, envelope)
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters := models.SearchFilters{
		Location:      query.Get("location"),
		Category:      query.Get("category"),
		Tags:          splitTags(query.Get("tags")),
		AvailableOnly: true,
	}

	if rawPrice := query.Get("maxPrice"); rawPrice != "" {
		price, err := strconv.ParseFloat(rawPrice, 64)
		if err != nil || price < 0 {
			s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "maxPrice must be a non-negative number"})
			return
		}
		filters.MaxPrice = &price
	}

	listings, err := s.store.GetCandidates(r.Context(), filters)
	if err != nil {
		if errors.Is(err, catalog.ErrStoreUnavailable) {
			s.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "listing store unavailable"})
			return
		}
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if listings == nil {
		listings = []models.Listing{}
	}
	s.writeJSON(w, http.StatusOK, ListingsResponse{Listings: listings, Count: len(listings)})
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	listing, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrListingNotFound) {
			s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "listing not found"})
			return
		}
		if errors.Is(err, catalog.ErrStoreUnavailable) {
			s.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "listing store unavailable"})
			return
		}
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	s.writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleBackendStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, BackendStatusResponse{
		Backends: s.backendIDs,
		Stats:    s.stats.Stats(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().Format(time.RFC3339),
	})
}

// handleReady probes each configured backing service. Any failing probe
// flips the response to 503 so orchestration keeps traffic away until
// the dependencies return.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
	defer cancel()

	components := map[string]string{}
	ready := true

	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(ctx); err != nil {
			components["postgres"] = err.Error()
			ready = false
		} else {
			components["postgres"] = "ok"
		}
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			components["redis"] = err.Error()
			ready = false
		} else {
			components["redis"] = "ok"
		}
	}

	if s.deps.ES != nil {
		req := esapi.PingRequest{}
		res, err := req.Do(ctx, s.deps.ES)
		if err != nil {
			components["elasticsearch"] = err.Error()
			ready = false
		} else {
			res.Body.Close()
			if res.IsError() {
				components["elasticsearch"] = res.Status()
				ready = false
			} else {
				components["elasticsearch"] = "ok"
			}
		}
	}

	status := http.StatusOK
	statusText := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		statusText = "not ready"
	}

	s.writeJSON(w, status, ReadyResponse{
		Status:     statusText,
		Components: components,
		Time:       time.Now().Format(time.RFC3339),
	})
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
