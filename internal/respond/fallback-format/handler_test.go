// internal/respond/fallback-format/handler_test.go
package fallbackformat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/models"
)

// ==========================
// Test Helpers
// ==========================

func createTestHandler(t *testing.T, registryPath string) *Handler {
	t.Helper()
	return NewHandler(&Config{
		RegistryPath: registryPath,
		CacheTTL:     time.Hour,
	}, logger.NewTestLogger(t))
}

func createRecommendation(title, location, currency string, price float64) models.MatchResult {
	return models.MatchResult{
		Item: models.Listing{
			Title:    title,
			Location: location,
			Currency: currency,
			Price:    price,
		},
		Score: 3,
	}
}

func writeRegistryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ==========================
// Format Tests
// ==========================

func TestHandler_Format_EmptyRecommendations(t *testing.T) {
	handler := createTestHandler(t, "")

	text := handler.Format(nil)

	assert.Equal(t, "I'd love to help you discover Sri Lanka! Could you tell me more about what you're interested in? 🌴", text)
}

func TestHandler_Format_SingleRecommendation(t *testing.T) {
	handler := createTestHandler(t, "")

	text := handler.Format([]models.MatchResult{
		createRecommendation("Galle Fort Walk", "Galle", "USD", 25),
	})

	expected := "Based on your interests, I found 1 experience you might enjoy in Sri Lanka. " +
		"These destinations match your preferences and offer unique experiences. " +
		"Explore the details to learn more about each one! 🌴\n" +
		"1. Galle Fort Walk - Galle (USD25)"
	assert.Equal(t, expected, text)
}

func TestHandler_Format_MultipleRecommendations(t *testing.T) {
	handler := createTestHandler(t, "")

	text := handler.Format([]models.MatchResult{
		createRecommendation("Beach Villa", "Galle", "USD", 120),
		createRecommendation("Tea Trail Hike", "Ella", "LKR", 4500),
		createRecommendation("Safari Morning", "Yala", "USD", 99.5),
	})

	assert.Contains(t, text, "I found 3 experiences you might enjoy")
	// Lines stay in rank order.
	assert.Contains(t, text, "1. Beach Villa - Galle (USD120)\n2. Tea Trail Hike - Ella (LKR4500)\n3. Safari Morning - Yala (USD99.5)")
}

func TestHandler_Format_NeverEmpty(t *testing.T) {
	handler := createTestHandler(t, "/nonexistent/registry.json")

	cases := [][]models.MatchResult{
		nil,
		{},
		{createRecommendation("", "", "", 0)},
	}

	for _, recs := range cases {
		assert.NotEmpty(t, strings.TrimSpace(handler.Format(recs)))
	}
}

// ==========================
// Template Override Tests
// ==========================

func TestHandler_TemplateOverride(t *testing.T) {
	path := writeRegistryFile(t, `{
		"version": "2",
		"templates": [
			{"id": "fallback-empty", "text": "Tell me what you like and I will find it."}
		]
	}`)
	handler := createTestHandler(t, path)

	text := handler.Format(nil)

	assert.Equal(t, "Tell me what you like and I will find it.", text)
}

func TestHandler_TemplateOverride_Placeholders(t *testing.T) {
	path := writeRegistryFile(t, `{
		"version": "2",
		"templates": [
			{"id": "fallback-recommendations", "text": "Found {{count}} match{{plural}} for you."}
		]
	}`)
	handler := createTestHandler(t, path)

	text := handler.Format([]models.MatchResult{
		createRecommendation("Beach Villa", "Galle", "USD", 120),
		createRecommendation("Tea Trail Hike", "Ella", "LKR", 4500),
	})

	assert.Contains(t, text, "Found 2 matchs for you.")
	assert.Contains(t, text, "1. Beach Villa - Galle (USD120)")
}

func TestHandler_TemplateOverride_BrokenRegistry(t *testing.T) {
	path := writeRegistryFile(t, `{not valid json`)
	handler := createTestHandler(t, path)

	// A broken override file must never break the formatter.
	text := handler.Format(nil)

	assert.Equal(t, "I'd love to help you discover Sri Lanka! Could you tell me more about what you're interested in? 🌴", text)
}

func TestHandler_TemplateOverride_FailsSchemaValidation(t *testing.T) {
	path := writeRegistryFile(t, `{
		"version": "2",
		"templates": [
			{"id": "fallback-empty", "text": ""}
		]
	}`)
	handler := createTestHandler(t, path)

	text := handler.Format(nil)

	assert.Equal(t, "I'd love to help you discover Sri Lanka! Could you tell me more about what you're interested in? 🌴", text)
}

func TestHandler_TemplateOverride_UnknownIdUsesBuiltin(t *testing.T) {
	path := writeRegistryFile(t, `{
		"version": "2",
		"templates": [
			{"id": "something-else", "text": "irrelevant"}
		]
	}`)
	handler := createTestHandler(t, path)

	text := handler.Format(nil)

	assert.Contains(t, text, "I'd love to help you discover Sri Lanka!")
}

func TestHandler_TemplateOverride_CachedWithinTTL(t *testing.T) {
	path := writeRegistryFile(t, `{
		"version": "2",
		"templates": [
			{"id": "fallback-empty", "text": "first version"}
		]
	}`)
	handler := createTestHandler(t, path)

	require.Equal(t, "first version", handler.Format(nil))

	// Rewriting the file within the TTL must not change the output.
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "3",
		"templates": [
			{"id": "fallback-empty", "text": "second version"}
		]
	}`), 0o644))

	assert.Equal(t, "first version", handler.Format(nil))
}
