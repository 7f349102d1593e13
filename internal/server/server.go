// internal/server/server.go
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"

	"skyconnect-match/internal/catalog"
	commonerrors "skyconnect-match/internal/common/errors"
	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/models"
	"skyconnect-match/internal/profile"
	"skyconnect-match/internal/respond/backend-chain"
)

// Responder serves one match request end to end. The orchestrator is
// the production implementation.
type Responder interface {
	Respond(ctx context.Context, userID string, profile models.UserProfile, freeText string) models.ResponseEnvelope
}

// StatsSource exposes the backend chain tallies for /status/backends.
type StatsSource interface {
	Stats() backendchain.Stats
}

// Dependencies carries the infrastructure clients the server probes for
// readiness. Nil entries are skipped, so a Postgres-backed deployment
// does not report Elasticsearch.
type Dependencies struct {
	DB    *sql.DB
	Redis *redis.Client
	ES    *elasticsearch.Client
}

// Server is the HTTP surface of the match service. POST /match always
// answers 200 with a ResponseEnvelope; the only non-200 on that route
// is a 400 for a body that fails schema validation.
type Server struct {
	responder  Responder
	provider   profile.Provider
	store      catalog.Store
	stats      StatsSource
	backendIDs []string
	deps       Dependencies
	errors     *commonerrors.ErrorHandler
	logger     logger.Logger

	matchSchema *gojsonschema.Schema
}

func New(
	responder Responder,
	provider profile.Provider,
	store catalog.Store,
	stats StatsSource,
	backendIDs []string,
	deps Dependencies,
	log logger.Logger,
) (*Server, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(matchRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile match request schema: %w", err)
	}

	serverLog := log.WithFields(map[string]interface{}{
		"component": "server",
	})

	return &Server{
		responder:   responder,
		provider:    provider,
		store:       store,
		stats:       stats,
		backendIDs:  backendIDs,
		deps:        deps,
		errors:      commonerrors.NewErrorHandler(serverLog),
		logger:      serverLog,
		matchSchema: schema,
	}, nil
}

// Router assembles the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(s.recovery)

	r.Post("/match", s.instrument("/match", s.handleMatch))
	r.Get("/listings", s.instrument("/listings", s.handleListings))
	r.Get("/listings/{id}", s.instrument("/listings/{id}", s.handleListing))
	r.Get("/status/backends", s.handleBackendStatus)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
