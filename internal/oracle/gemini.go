package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Compile-time interface check.
var _ Judge = (*GeminiJudge)(nil)

const geminiBackend = "gemini"

// contentGenerator is the part of *genai.Models the judge needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig holds configuration for GeminiJudge.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // Optional; overrides the Gemini API endpoint.
	Model   string
	Timeout time.Duration
}

// GeminiJudge asks Google's Gemini API for a verdict using the genai SDK's
// structured output support.
type GeminiJudge struct {
	client *genai.Client
	models contentGenerator
	model  string
	logger *zap.Logger
}

// NewGeminiJudge creates a GeminiJudge. The API key is required.
func NewGeminiJudge(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiJudge, error) {
	if cfg.APIKey == "" {
		return nil, newError(KindCredentials, geminiBackend, 0, "API key not configured", nil)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: create genai client: %w", err)
	}

	j := newGeminiJudge(client.Models, cfg.Model, logger)
	j.client = client
	return j, nil
}

func newGeminiJudge(models contentGenerator, model string, logger *zap.Logger) *GeminiJudge {
	return &GeminiJudge{models: models, model: model, logger: logger}
}

// Judge sends req through GenerateContent and parses the verdict.
func (j *GeminiJudge) Judge(ctx context.Context, req Request) (bool, error) {
	model := req.Model
	if model == "" {
		model = j.model
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"result": {
					Type:        genai.TypeBoolean,
					Description: "true if the first value comes before or at the same position as the second value",
				},
			},
			Required: []string{"result"},
		},
	}

	start := time.Now()
	resp, err := j.models.GenerateContent(ctx, model, genai.Text(req.UserMessage), config)
	if err != nil {
		kind, status := classifyGeminiError(err)
		j.logger.Error("judge request failed",
			zap.String("backend", geminiBackend),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return false, newError(kind, geminiBackend, status, "", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return false, newError(KindMalformed, geminiBackend, 0, "no candidates returned", nil)
	}

	result, err := ParseVerdict(resp.Text())
	if err != nil {
		return false, newError(KindMalformed, geminiBackend, 0, "", err)
	}

	j.logger.Debug("judge verdict",
		zap.String("backend", geminiBackend),
		zap.String("model", model),
		zap.Bool("result", result),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// classifyGeminiError maps a genai error to a failure kind and HTTP status.
// Anything that is not an API error is a transport failure.
func classifyGeminiError(err error) (ErrorKind, int) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusKind(apiErr.Code), apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return statusKind(apiErrPtr.Code), apiErrPtr.Code
	}
	return KindUnavailable, 0
}
