// internal/respond/generate-text/handler.go
package generatetext

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	commonhttp "skyconnect-match/internal/common/http"
	"skyconnect-match/internal/common/logger"
)

const (
	StageName = "generate-text"
)

var (
	ErrBackendTimeout  = errors.New("BACKEND_TIMEOUT")
	ErrBackendFailed   = errors.New("BACKEND_FAILED")
	ErrEmptyCompletion = errors.New("EMPTY_COMPLETION")
)

// Handler is the HTTP adapter for one text-generation backend. It makes
// exactly one attempt per call; failover across backends belongs to the
// chain, not here.
type Handler struct {
	config *Config
	client *commonhttp.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		// Zero transport timeout. The chain owns the deadline through ctx.
		config: config,
		client: commonhttp.NewClient(0),
		logger: log.WithFields(map[string]interface{}{
			"stage":   StageName,
			"backend": config.ID,
		}),
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	requestBody := map[string]interface{}{
		"model":       h.config.Model,
		"prompt":      input.Prompt,
		"maxTokens":   h.config.MaxTokens,
		"temperature": h.config.Temperature,
	}

	body, _ := json.Marshal(requestBody)
	req, err := http.NewRequestWithContext(ctx, "POST", h.config.URL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.config.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrBackendTimeout
		}
		if ctx.Err() == context.Canceled {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrBackendFailed, resp.StatusCode)
	}

	var apiResponse struct {
		Text       string `json:"text"`
		Model      string `json:"model"`
		TokensUsed int    `json:"tokensUsed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrBackendFailed, err)
	}

	// A blank completion is a failed attempt, not a usable answer.
	if strings.TrimSpace(apiResponse.Text) == "" {
		return nil, ErrEmptyCompletion
	}

	h.logger.Debug("completion received", map[string]interface{}{
		"model":      apiResponse.Model,
		"tokensUsed": apiResponse.TokensUsed,
	})

	return &Output{
		Text:       apiResponse.Text,
		Model:      apiResponse.Model,
		TokensUsed: apiResponse.TokensUsed,
	}, nil
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// Generate adapts the handler to the chain's GenerateFunc shape.
func (h *Handler) Generate(ctx context.Context, prompt string) (string, error) {
	output, err := h.execute(ctx, &Input{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return output.Text, nil
}
