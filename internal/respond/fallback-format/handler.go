// internal/respond/fallback-format/handler.go
package fallbackformat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/models"
	"skyconnect-match/pkg/registry"
)

const (
	StageName = "fallback-format"

	TemplateEmpty           = "fallback-empty"
	TemplateRecommendations = "fallback-recommendations"
)

// Built-in texts. The registry file may override them by id; nothing
// else about the message shape is configurable.
const (
	builtinEmptyText = "I'd love to help you discover Sri Lanka! Could you tell me more about what you're interested in? 🌴"

	builtinRecommendationsText = "Based on your interests, I found {{count}} experience{{plural}} you might enjoy in Sri Lanka. " +
		"These destinations match your preferences and offer unique experiences. " +
		"Explore the details to learn more about each one! 🌴"
)

type templateCacheEntry struct {
	text     string
	loadedAt time.Time
}

// Handler renders the deterministic fallback message. It is the last
// line of defense: Format always returns non-empty text and never fails,
// whatever state the registry file is in.
type Handler struct {
	config *Config
	logger logger.Logger
	cache  map[string]*templateCacheEntry
	mu     sync.RWMutex
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
		cache:  make(map[string]*templateCacheEntry),
	}
}

// Format builds the fallback text for a ranked recommendation list.
func (h *Handler) Format(recommendations []models.MatchResult) string {
	if len(recommendations) == 0 {
		return h.templateText(TemplateEmpty, builtinEmptyText)
	}

	n := len(recommendations)
	intro := renderTemplate(h.templateText(TemplateRecommendations, builtinRecommendationsText), map[string]string{
		"count":  strconv.Itoa(n),
		"plural": pluralSuffix(n),
	})

	lines := make([]string, 0, n+1)
	lines = append(lines, intro)
	for i, rec := range recommendations {
		lines = append(lines, fmt.Sprintf("%d. %s - %s (%s%s)",
			i+1, rec.Item.Title, rec.Item.Location, rec.Item.Currency, formatPrice(rec.Item.Price)))
	}

	return strings.Join(lines, "\n")
}

// Execute method for direct usage
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	return &Output{Text: h.Format(input.Recommendations)}, nil
}

// templateText resolves a template id through the override registry,
// falling back to the built-in text whenever the registry is missing,
// unreadable, or does not carry the id. The resolved text is cached for
// the configured TTL either way.
func (h *Handler) templateText(id, builtin string) string {
	if h.config.RegistryPath == "" {
		return builtin
	}

	h.mu.RLock()
	if entry, ok := h.cache[id]; ok && time.Since(entry.loadedAt) < h.config.CacheTTL {
		h.mu.RUnlock()
		return entry.text
	}
	h.mu.RUnlock()

	text := builtin
	reg, err := registry.LoadRegistry(h.config.RegistryPath)
	if err != nil {
		h.logger.Warn("template registry unavailable, using built-in text", map[string]interface{}{
			"templateId": id,
			"path":       h.config.RegistryPath,
			"error":      err.Error(),
		})
	} else if tmpl, ok := reg.Find(id); ok {
		text = tmpl.Text
	}

	h.mu.Lock()
	h.cache[id] = &templateCacheEntry{text: text, loadedAt: time.Now()}
	h.mu.Unlock()

	return text
}

func renderTemplate(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// formatPrice drops trailing zeros so whole prices render bare, USD120
// not USD120.000000.
func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}
