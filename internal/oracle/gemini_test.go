package oracle

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	model  string
	config *genai.GenerateContentConfig
	text   string
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.text = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func reply(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
	}
}

func TestGeminiJudge_Verdict(t *testing.T) {
	gen := &fakeGenerator{resp: reply(`{"result": true}`)}
	j := newGeminiJudge(gen, DefaultGeminiModel, zap.NewNop())

	req := NewRequest("", "a", "b", "")
	ok, err := j.Judge(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, DefaultGeminiModel, gen.model)
	assert.Equal(t, req.UserMessage, gen.text)
	require.NotNil(t, gen.config)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	require.NotNil(t, gen.config.Temperature)
	assert.Zero(t, *gen.config.Temperature)
	require.NotNil(t, gen.config.ResponseSchema)
	assert.Equal(t, genai.TypeBoolean, gen.config.ResponseSchema.Properties["result"].Type)
	assert.Equal(t, SystemInstruction, gen.config.SystemInstruction.Parts[0].Text)
}

func TestGeminiJudge_RequestModelWins(t *testing.T) {
	gen := &fakeGenerator{resp: reply(`{"result": false}`)}
	ok, err := newGeminiJudge(gen, DefaultGeminiModel, zap.NewNop()).Judge(context.Background(), NewRequest("gemini-2.5-pro", "a", "b", ""))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "gemini-2.5-pro", gen.model)
}

func TestGeminiJudge_Failures(t *testing.T) {
	cases := []struct {
		name     string
		gen      *fakeGenerator
		sentinel error
	}{
		{"api 401", &fakeGenerator{err: genai.APIError{Code: 401, Message: "API key not valid"}}, ErrCredentials},
		{"api 429", &fakeGenerator{err: genai.APIError{Code: 429, Message: "quota"}}, ErrUnavailable},
		{"api 400 wrapped", &fakeGenerator{err: fmt.Errorf("call: %w", genai.APIError{Code: 400})}, ErrInvalidInput},
		{"transport", &fakeGenerator{err: errors.New("dial tcp: refused")}, ErrUnavailable},
		{"no candidates", &fakeGenerator{resp: &genai.GenerateContentResponse{}}, ErrMalformedResponse},
		{"nil response", &fakeGenerator{}, ErrMalformedResponse},
		{"prose", &fakeGenerator{resp: reply("The first value.")}, ErrMalformedResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newGeminiJudge(tc.gen, DefaultGeminiModel, zap.NewNop()).Judge(context.Background(), NewRequest("", "a", "b", ""))
			assert.ErrorIs(t, err, tc.sentinel)
		})
	}
}

func TestNewGeminiJudge_MissingKey(t *testing.T) {
	_, err := NewGeminiJudge(context.Background(), GeminiConfig{}, nil)
	assert.ErrorIs(t, err, ErrCredentials)
}

func TestClassifyGeminiError(t *testing.T) {
	kind, status := classifyGeminiError(&genai.APIError{Code: 403})
	assert.Equal(t, KindCredentials, kind)
	assert.Equal(t, 403, status)

	kind, status = classifyGeminiError(context.DeadlineExceeded)
	assert.Equal(t, KindUnavailable, kind)
	assert.Zero(t, status)
}
