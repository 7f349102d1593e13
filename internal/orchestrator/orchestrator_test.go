// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyconnect-match/internal/catalog"
	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/common/observability"
	"skyconnect-match/internal/models"
	"skyconnect-match/internal/respond/backend-chain"
	"skyconnect-match/internal/respond/fallback-format"
)

// ==========================
// Test Helpers
// ==========================

type fakeStore struct {
	items      []models.Listing
	err        error
	panicValue interface{}
	gotFilters models.SearchFilters
	calls      int
}

func (s *fakeStore) GetCandidates(_ context.Context, filters models.SearchFilters) ([]models.Listing, error) {
	s.calls++
	s.gotFilters = filters
	if s.panicValue != nil {
		panic(s.panicValue)
	}
	return s.items, s.err
}

func (s *fakeStore) GetByID(_ context.Context, _ string) (*models.Listing, error) {
	return nil, catalog.ErrListingNotFound
}

type fakeAlerter struct {
	exhaustions int
}

func (a *fakeAlerter) RecordExhaustion(_ context.Context) {
	a.exhaustions++
}

func createTestOrchestrator(t *testing.T, store catalog.Store, alerter Alerter, entries ...backendchain.Entry) *Orchestrator {
	t.Helper()
	log := logger.NewTestLogger(t)
	return New(
		LoadConfig(),
		store,
		backendchain.NewChain(entries, log),
		fallbackformat.NewHandler(fallbackformat.LoadConfig(), log),
		observability.New("orchestrator-test"),
		alerter,
		log,
	)
}

func createListing(id, title, location, category string, tags ...string) models.Listing {
	return models.Listing{
		ID:        id,
		Title:     title,
		Location:  location,
		Category:  category,
		Tags:      tags,
		Price:     100,
		Currency:  "USD",
		Available: true,
	}
}

func createProfile(tags, locations, categories []string) models.UserProfile {
	return models.UserProfile{
		UserID:             "user-1",
		InterestTags:       tags,
		PreferredLocations: locations,
		LikedCategories:    categories,
	}
}

func staticEntry(id, text string) backendchain.Entry {
	return backendchain.Entry{
		ID:      id,
		Timeout: time.Second,
		Generate: func(ctx context.Context, prompt string) (string, error) {
			return text, nil
		},
	}
}

func failingEntry(id string) backendchain.Entry {
	return backendchain.Entry{
		ID:      id,
		Timeout: time.Second,
		Generate: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("boom")
		},
	}
}

func hangingEntry(id string, timeout time.Duration) backendchain.Entry {
	return backendchain.Entry{
		ID:      id,
		Timeout: timeout,
		Generate: func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
}

// ==========================
// Respond Tests
// ==========================

func TestOrchestrator_Respond_BackendSuccess(t *testing.T) {
	store := &fakeStore{items: []models.Listing{
		createListing("l1", "Beach Villa", "Galle", "Accommodation", "beach"),
	}}
	profile := createProfile([]string{"beach"}, []string{"Galle"}, nil)

	o := createTestOrchestrator(t, store, nil, staticEntry("groq", "Enjoy the southern coast! 🌊"))

	envelope := o.Respond(context.Background(), "user-1", profile, "beach resorts in Galle")

	assert.True(t, envelope.Success)
	assert.Equal(t, "groq", envelope.Source)
	assert.Equal(t, "Enjoy the southern coast! 🌊", envelope.Text)
	require.Len(t, envelope.Recommendations, 1)
	// 3 (tags) + 2 (location)
	assert.Equal(t, 5, envelope.Recommendations[0].Score)

	// The parsed filters made it to the store.
	assert.Equal(t, "Galle", store.gotFilters.Location)
	assert.Equal(t, "Accommodation", store.gotFilters.Category)
	assert.Equal(t, []string{"beach"}, store.gotFilters.Tags)
	assert.True(t, store.gotFilters.AvailableOnly)
}

func TestOrchestrator_Respond_PromptCarriesMatches(t *testing.T) {
	store := &fakeStore{items: []models.Listing{
		createListing("l1", "Beach Villa", "Galle", "Accommodation", "beach"),
	}}
	profile := createProfile([]string{"beach"}, nil, nil)

	var seenPrompt string
	capture := backendchain.Entry{
		ID:      "groq",
		Timeout: time.Second,
		Generate: func(ctx context.Context, prompt string) (string, error) {
			seenPrompt = prompt
			return "ok", nil
		},
	}

	o := createTestOrchestrator(t, store, nil, capture)
	o.Respond(context.Background(), "user-1", profile, "beach stays")

	assert.Contains(t, seenPrompt, "User interests: beach")
	assert.Contains(t, seenPrompt, "User query: beach stays")
	assert.Contains(t, seenPrompt, "1. Beach Villa - Galle")
}

func TestOrchestrator_Respond_AllBackendsFail(t *testing.T) {
	store := &fakeStore{items: []models.Listing{
		createListing("l1", "Beach Villa", "Galle", "Accommodation", "beach"),
	}}
	profile := createProfile([]string{"beach"}, nil, nil)
	alerter := &fakeAlerter{}

	o := createTestOrchestrator(t, store, alerter, failingEntry("groq"), failingEntry("gemini"))

	envelope := o.Respond(context.Background(), "user-1", profile, "beach stays")

	// Exhaustion is ordinary control flow: fallback text, still a success.
	assert.True(t, envelope.Success)
	assert.Equal(t, models.SourceFallback, envelope.Source)
	assert.Contains(t, envelope.Text, "Beach Villa - Galle (USD100)")
	require.Len(t, envelope.Recommendations, 1)
	assert.Equal(t, 1, alerter.exhaustions)
}

func TestOrchestrator_Respond_EmptyStore(t *testing.T) {
	store := &fakeStore{}
	chainCalled := false
	entry := backendchain.Entry{
		ID:      "groq",
		Timeout: time.Second,
		Generate: func(ctx context.Context, prompt string) (string, error) {
			chainCalled = true
			return "never used", nil
		},
	}

	o := createTestOrchestrator(t, store, nil, entry)

	envelope := o.Respond(context.Background(), "user-1", models.EmptyProfile("user-1"), "anything at all")

	assert.True(t, envelope.Success)
	assert.Equal(t, models.SourceFallback, envelope.Source)
	assert.Contains(t, envelope.Text, "I'd love to help you discover Sri Lanka!")
	assert.NotNil(t, envelope.Recommendations)
	assert.Empty(t, envelope.Recommendations)
	assert.False(t, chainCalled, "no candidates means no generation attempt")
}

func TestOrchestrator_Respond_StoreUnavailable(t *testing.T) {
	store := &fakeStore{err: catalog.ErrStoreUnavailable}

	o := createTestOrchestrator(t, store, nil, staticEntry("groq", "unused"))

	envelope := o.Respond(context.Background(), "user-1", models.EmptyProfile("user-1"), "beach stays")

	// A dead store degrades to the no-results path, never to an error.
	assert.True(t, envelope.Success)
	assert.Equal(t, models.SourceFallback, envelope.Source)
	assert.NotEmpty(t, envelope.Text)
	assert.Empty(t, envelope.Recommendations)
}

func TestOrchestrator_Respond_UnexpectedStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset by peer")}

	o := createTestOrchestrator(t, store, nil, staticEntry("groq", "unused"))

	envelope := o.Respond(context.Background(), "user-1", models.EmptyProfile("user-1"), "beach stays")

	assert.False(t, envelope.Success)
	assert.Equal(t, models.SourceError, envelope.Source)
	assert.Equal(t, "I'm having trouble processing your request right now. Please try again.", envelope.Text)
	assert.NotNil(t, envelope.Recommendations)
	assert.Empty(t, envelope.Recommendations)
	// The raw error never reaches the caller.
	assert.NotContains(t, envelope.Text, "connection reset")
}

func TestOrchestrator_Respond_PanicIsCaught(t *testing.T) {
	store := &fakeStore{panicValue: "catalog index corrupted"}

	o := createTestOrchestrator(t, store, nil, staticEntry("groq", "unused"))

	envelope := o.Respond(context.Background(), "user-1", models.EmptyProfile("user-1"), "beach stays")

	assert.False(t, envelope.Success)
	assert.Equal(t, models.SourceError, envelope.Source)
	assert.Equal(t, "I'm having trouble processing your request right now. Please try again.", envelope.Text)
	assert.NotContains(t, envelope.Text, "corrupted")

	// The orchestrator keeps serving after a recovered panic.
	store.panicValue = nil
	store.items = []models.Listing{createListing("l1", "Beach Villa", "Galle", "Accommodation", "beach")}
	again := o.Respond(context.Background(), "user-1", createProfile([]string{"beach"}, nil, nil), "beach stays")
	assert.True(t, again.Success)
}

func TestOrchestrator_Respond_TimeoutFailsOver(t *testing.T) {
	store := &fakeStore{items: []models.Listing{
		createListing("l1", "Beach Villa", "Galle", "Accommodation", "beach"),
	}}
	profile := createProfile([]string{"beach"}, nil, nil)

	o := createTestOrchestrator(t, store, nil,
		hangingEntry("groq", 30*time.Millisecond),
		staticEntry("gemini", "Second backend answer."),
	)

	envelope := o.Respond(context.Background(), "user-1", profile, "beach stays")

	assert.True(t, envelope.Success)
	assert.Equal(t, "gemini", envelope.Source)
	assert.Equal(t, "Second backend answer.", envelope.Text)
}

func TestOrchestrator_Respond_AllZeroScoresStillGenerate(t *testing.T) {
	store := &fakeStore{items: []models.Listing{
		createListing("l1", "Beach Villa", "Galle", "Accommodation", "beach"),
		createListing("l2", "Tea Trail Hike", "Ella", "Tour", "hiking"),
	}}

	o := createTestOrchestrator(t, store, nil, staticEntry("groq", "Here are some ideas."))

	// Empty profile matches nothing, so everything scores zero and the
	// full list is kept.
	envelope := o.Respond(context.Background(), "user-9", models.EmptyProfile("user-9"), "somewhere nice")

	assert.True(t, envelope.Success)
	assert.Equal(t, "groq", envelope.Source)
	require.Len(t, envelope.Recommendations, 2)
	assert.Equal(t, 0, envelope.Recommendations[0].Score)
	assert.Equal(t, 0, envelope.Recommendations[1].Score)
}
