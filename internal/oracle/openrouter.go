package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Compile-time interface check.
var _ Judge = (*OpenRouterJudge)(nil)

const openRouterBackend = "openrouter"

// OpenRouterConfig holds configuration for OpenRouterJudge.
type OpenRouterConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	SiteURL  string // Optional
	SiteName string // Optional
	// MaxTokens caps the completion length, reasoning included. Zero sends
	// no cap.
	MaxTokens int
}

// DefaultOpenRouterConfig returns defaults for the public OpenRouter API.
func DefaultOpenRouterConfig(apiKey string) OpenRouterConfig {
	return OpenRouterConfig{
		APIKey:   apiKey,
		BaseURL:  "https://openrouter.ai/api/v1",
		Model:    DefaultOpenRouterModel,
		Timeout:  2 * time.Minute,
		SiteName: "judgesort",
	}
}

// OpenRouterJudge asks an OpenAI-compatible chat completions endpoint for a
// verdict. It works against OpenRouter and any gateway speaking the same API.
type OpenRouterJudge struct {
	apiKey     string
	baseURL    string
	model      string
	siteURL    string
	siteName   string
	maxTokens  int
	httpClient *http.Client
	logger     *zap.Logger
}

// OpenRouterOption configures an OpenRouterJudge.
type OpenRouterOption func(*OpenRouterJudge)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) OpenRouterOption {
	return func(j *OpenRouterJudge) {
		j.httpClient = hc
	}
}

// WithOpenRouterLogger sets the logger used for request tracing.
func WithOpenRouterLogger(logger *zap.Logger) OpenRouterOption {
	return func(j *OpenRouterJudge) {
		j.logger = logger
	}
}

// NewOpenRouterJudge creates a judge from cfg. Empty fields of cfg fall back
// to DefaultOpenRouterConfig.
func NewOpenRouterJudge(cfg OpenRouterConfig, opts ...OpenRouterOption) *OpenRouterJudge {
	def := DefaultOpenRouterConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.SiteName == "" {
		cfg.SiteName = def.SiteName
	}

	j := &OpenRouterJudge{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		siteURL:    cfg.SiteURL,
		siteName:   cfg.SiteName,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Judge sends req to the chat completions endpoint and parses the verdict.
func (j *OpenRouterJudge) Judge(ctx context.Context, req Request) (bool, error) {
	if j.apiKey == "" {
		return false, newError(KindCredentials, openRouterBackend, 0, "API key not configured", nil)
	}

	model := req.Model
	if model == "" {
		model = j.model
	}

	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemInstruction},
			{Role: "user", Content: req.UserMessage},
		},
		Temperature: 0,
		MaxTokens:   j.maxTokens,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   "Verdict",
				Strict: true,
				Schema: verdictSchema(),
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("oracle: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("oracle: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+j.apiKey)
	if j.siteURL != "" {
		httpReq.Header.Set("HTTP-Referer", j.siteURL)
	}
	httpReq.Header.Set("X-Title", j.siteName)

	start := time.Now()
	resp, err := j.httpClient.Do(httpReq)
	if err != nil {
		j.logger.Error("judge request failed", zap.String("backend", openRouterBackend), zap.Error(err))
		return false, newError(KindUnavailable, openRouterBackend, 0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, newError(KindUnavailable, openRouterBackend, resp.StatusCode, "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		kind := statusKind(resp.StatusCode)
		j.logger.Error("judge request rejected",
			zap.String("backend", openRouterBackend),
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(kind)))
		return false, newError(kind, openRouterBackend, resp.StatusCode, strings.TrimSpace(string(respBody)), nil)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return false, newError(KindMalformed, openRouterBackend, resp.StatusCode, "decode response", err)
	}
	if chat.Error != nil {
		return false, newError(KindMalformed, openRouterBackend, resp.StatusCode, chat.Error.Message, nil)
	}
	if len(chat.Choices) == 0 {
		return false, newError(KindMalformed, openRouterBackend, resp.StatusCode, "no choices returned", nil)
	}

	result, err := ParseVerdict(chat.Choices[0].Message.Content)
	if err != nil {
		return false, newError(KindMalformed, openRouterBackend, resp.StatusCode, "", err)
	}

	j.logger.Debug("judge verdict",
		zap.String("backend", openRouterBackend),
		zap.String("model", model),
		zap.Bool("result", result),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}
