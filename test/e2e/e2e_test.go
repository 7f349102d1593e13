// test/e2e/e2e_test.go
//
// End-to-end flows through the assembled match stack: HTTP router,
// profile read-through cache, query parser, candidate ranking, backend
// chain and fallback formatting. Everything runs in process; the
// catalog is a seeded fixture and the response backends are plain
// functions, so each test pins a complete request path without any
// external services.
package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyconnect-match/internal/catalog"
	"skyconnect-match/internal/common/config"
	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/common/observability"
	"skyconnect-match/internal/models"
	"skyconnect-match/internal/orchestrator"
	"skyconnect-match/internal/profile"
	"skyconnect-match/internal/respond/backend-chain"
	"skyconnect-match/internal/respond/fallback-format"
	"skyconnect-match/internal/server"
)

// ==========================
// Test Helpers
// ==========================

const profileQuery = `SELECT interest_tags, preferred_locations, liked_categories FROM user_profiles WHERE user_id = \$1`

// catalogFixture stands in for the candidate store. It hands back a
// canned listing set and records the filters the parser produced.
type catalogFixture struct {
	items      []models.Listing
	err        error
	gotFilters models.SearchFilters
	calls      int
}

func (s *catalogFixture) GetCandidates(_ context.Context, filters models.SearchFilters) ([]models.Listing, error) {
	s.calls++
	s.gotFilters = filters
	return s.items, s.err
}

func (s *catalogFixture) GetByID(_ context.Context, id string) (*models.Listing, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, catalog.ErrListingNotFound
}

type matchStack struct {
	router http.Handler
	chain  *backendchain.Chain
	store  *catalogFixture
	cache  *miniredis.Miniredis
	dbMock sqlmock.Sqlmock
}

func createMatchStack(t *testing.T, store *catalogFixture, entries ...backendchain.Entry) *matchStack {
	t.Helper()

	log := logger.NewTestLogger(t)

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	provider := profile.NewCachedProvider(config.ProfilesConfig{
		CacheTTL: 300000,
		Timeout:  2000,
	}, db, rdb, log)

	chain := backendchain.NewChain(entries, log)
	fallback := fallbackformat.NewHandler(fallbackformat.LoadConfig(), log)
	orch := orchestrator.New(
		orchestrator.LoadConfig(),
		store,
		chain,
		fallback,
		observability.New("e2e-test"),
		nil,
		log,
	)

	backendIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		backendIDs = append(backendIDs, entry.ID)
	}

	srv, err := server.New(orch, provider, store, chain, backendIDs, server.Dependencies{}, log)
	require.NoError(t, err)

	return &matchStack{
		router: srv.Router(),
		chain:  chain,
		store:  store,
		cache:  mr,
		dbMock: dbMock,
	}
}

// seedProfile plants a profile in the cache so requests resolve it
// without touching the database fixture.
func seedProfile(t *testing.T, mr *miniredis.Miniredis, p models.UserProfile) {
	t.Helper()

	data, err := json.Marshal(p)
	require.NoError(t, err)
	require.NoError(t, mr.Set("user:profile:"+p.UserID, string(data)))
}

func postMatch(t *testing.T, router http.Handler, userID, query string) models.ResponseEnvelope {
	t.Helper()

	body, err := json.Marshal(map[string]string{"userId": userID, "query": query})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/match", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func staticBackend(id, text string) backendchain.Entry {
	return backendchain.Entry{
		ID:      id,
		Timeout: time.Second,
		Generate: func(ctx context.Context, prompt string) (string, error) {
			return text, nil
		},
	}
}

func failingBackend(id string) backendchain.Entry {
	return backendchain.Entry{
		ID:      id,
		Timeout: time.Second,
		Generate: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("upstream unavailable")
		},
	}
}

func hangingBackend(id string, timeout time.Duration) backendchain.Entry {
	return backendchain.Entry{
		ID:      id,
		Timeout: timeout,
		Generate: func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
}

func beachVilla() models.Listing {
	return models.Listing{
		ID:        "l-100",
		Title:     "Unawatuna Beach Cabana",
		Location:  "Galle",
		Category:  "Accommodation",
		Tags:      []string{"beach"},
		Price:     80,
		Currency:  "USD",
		Available: true,
	}
}

// ==========================
// Match Flow
// ==========================

func TestMatchFlow_ProfileMatchServedByFallbackWhenBackendsExhausted(t *testing.T) {
	store := &catalogFixture{items: []models.Listing{beachVilla()}}
	st := createMatchStack(t, store, failingBackend("groq"), failingBackend("gemini"))

	seedProfile(t, st.cache, models.UserProfile{
		UserID:             "user-1",
		InterestTags:       []string{"beach"},
		PreferredLocations: []string{"Galle"},
	})

	envelope := postMatch(t, st.router, "user-1", "beach stay in galle")

	assert.True(t, envelope.Success)
	assert.Equal(t, models.SourceFallback, envelope.Source)
	assert.Contains(t, envelope.Text, "Unawatuna Beach Cabana")
	assert.Contains(t, envelope.Text, "1. Unawatuna Beach Cabana - Galle (USD80)")

	require.Len(t, envelope.Recommendations, 1)
	assert.Equal(t, "l-100", envelope.Recommendations[0].Item.ID)
	assert.Equal(t, 5, envelope.Recommendations[0].Score)

	stats := st.chain.Stats()
	assert.Equal(t, int64(1), stats.Requests)
	assert.Equal(t, int64(1), stats.Exhaustions)
	assert.Equal(t, int64(0), stats.Served)
	assert.Equal(t, int64(1), stats.Backends["groq"].Failures)
	assert.Equal(t, int64(1), stats.Backends["gemini"].Failures)
}

func TestMatchFlow_QueryFiltersReachCatalog(t *testing.T) {
	store := &catalogFixture{items: []models.Listing{beachVilla()}}
	st := createMatchStack(t, store, staticBackend("groq", "Galle has some lovely beachfront stays."))

	seedProfile(t, st.cache, models.UserProfile{
		UserID:       "user-2",
		InterestTags: []string{"beach"},
	})

	envelope := postMatch(t, st.router, "user-2", "beach resorts in Galle under $100")

	require.Equal(t, 1, store.calls)
	filters := store.gotFilters
	assert.Equal(t, "Galle", filters.Location)
	assert.Equal(t, "Accommodation", filters.Category)
	assert.Equal(t, []string{"beach"}, filters.Tags)
	require.NotNil(t, filters.MaxPrice)
	assert.Equal(t, float64(100), *filters.MaxPrice)
	assert.True(t, filters.AvailableOnly)

	assert.True(t, envelope.Success)
	assert.Equal(t, "groq", envelope.Source)
	assert.Equal(t, "Galle has some lovely beachfront stays.", envelope.Text)
}

func TestMatchFlow_EmptyCatalogStillAnswers(t *testing.T) {
	store := &catalogFixture{}
	st := createMatchStack(t, store, staticBackend("groq", "should never be asked"))

	seedProfile(t, st.cache, models.UserProfile{
		UserID:       "user-3",
		InterestTags: []string{"adventure"},
	})

	envelope := postMatch(t, st.router, "user-3", "surf lessons")

	assert.True(t, envelope.Success)
	assert.Equal(t, models.SourceFallback, envelope.Source)
	assert.Equal(t, "I'd love to help you discover Sri Lanka! Could you tell me more about what you're interested in? 🌴", envelope.Text)
	require.NotNil(t, envelope.Recommendations)
	assert.Empty(t, envelope.Recommendations)

	// No recommendations means no generation request either.
	assert.Equal(t, int64(0), st.chain.Stats().Requests)
}

func TestMatchFlow_TimeoutFailsOverToNextBackend(t *testing.T) {
	store := &catalogFixture{items: []models.Listing{beachVilla()}}
	st := createMatchStack(t, store,
		hangingBackend("groq", 30*time.Millisecond),
		staticBackend("gemini", "Gemini thinks Galle is lovely this time of year."),
	)

	seedProfile(t, st.cache, models.UserProfile{
		UserID:             "user-4",
		InterestTags:       []string{"beach"},
		PreferredLocations: []string{"Galle"},
	})

	envelope := postMatch(t, st.router, "user-4", "beach stay in galle")

	assert.True(t, envelope.Success)
	assert.Equal(t, "gemini", envelope.Source)
	assert.Equal(t, "Gemini thinks Galle is lovely this time of year.", envelope.Text)

	stats := st.chain.Stats()
	assert.Equal(t, int64(1), stats.Served)
	assert.Equal(t, int64(1), stats.Backends["groq"].Timeouts)
	assert.Equal(t, int64(1), stats.Backends["gemini"].Successes)
}

// ==========================
// Profile Resolution
// ==========================

func TestMatchFlow_ProfileReadThroughWarmsCache(t *testing.T) {
	store := &catalogFixture{items: []models.Listing{beachVilla()}}
	st := createMatchStack(t, store, staticBackend("groq", "Enjoy the beach."))

	rows := sqlmock.NewRows([]string{"interest_tags", "preferred_locations", "liked_categories"}).
		AddRow("{beach}", "{Galle}", "{Accommodation}")
	st.dbMock.ExpectQuery(profileQuery).WithArgs("user-7").WillReturnRows(rows)

	envelope := postMatch(t, st.router, "user-7", "beach stay in galle")

	require.Len(t, envelope.Recommendations, 1)
	assert.Equal(t, 6, envelope.Recommendations[0].Score)
	assert.NoError(t, st.dbMock.ExpectationsWereMet())
	assert.True(t, st.cache.Exists("user:profile:user-7"))

	// The second request has no database expectation left, so it must
	// be served from the cache alone.
	envelope = postMatch(t, st.router, "user-7", "beach stay in galle")
	require.Len(t, envelope.Recommendations, 1)
	assert.Equal(t, 6, envelope.Recommendations[0].Score)
	assert.NoError(t, st.dbMock.ExpectationsWereMet())
}

func TestMatchFlow_UnknownUserMatchesWithEmptyProfile(t *testing.T) {
	store := &catalogFixture{items: []models.Listing{beachVilla()}}
	st := createMatchStack(t, store, staticBackend("groq", "A fine villa awaits."))

	st.dbMock.ExpectQuery(profileQuery).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	envelope := postMatch(t, st.router, "ghost", "beach stay in galle")

	assert.True(t, envelope.Success)
	assert.Equal(t, "groq", envelope.Source)
	require.Len(t, envelope.Recommendations, 1)
	assert.Equal(t, 0, envelope.Recommendations[0].Score)
}

// ==========================
// Operational Surface
// ==========================

func TestStatusBackends_ReportsChainActivity(t *testing.T) {
	store := &catalogFixture{items: []models.Listing{beachVilla()}}
	st := createMatchStack(t, store, failingBackend("groq"), staticBackend("gemini", "Galle it is."))

	seedProfile(t, st.cache, models.UserProfile{
		UserID:             "user-9",
		InterestTags:       []string{"beach"},
		PreferredLocations: []string{"Galle"},
	})

	postMatch(t, st.router, "user-9", "beach stay in galle")
	postMatch(t, st.router, "user-9", "beach stay in galle")

	req := httptest.NewRequest(http.MethodGet, "/status/backends", nil)
	rec := httptest.NewRecorder()
	st.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status server.BackendStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))

	assert.Equal(t, []string{"groq", "gemini"}, status.Backends)
	assert.Equal(t, int64(2), status.Stats.Requests)
	assert.Equal(t, int64(2), status.Stats.Served)
	assert.Equal(t, int64(2), status.Stats.Backends["groq"].Failures)
	assert.Equal(t, int64(2), status.Stats.Backends["gemini"].Successes)
	assert.InDelta(t, 1.0, status.Stats.SuccessRate, 0.0001)
}
