package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"

	"github.com/spigell/ta-nexus/internal/ai"
	"github.com/spigell/ta-nexus/internal/failure"
)

type fakeModels struct {
	calls  int
	model  string
	config *genai.GenerateContentConfig
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.config = config
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGenerateJoinsPartsAndSetsConfig(t *testing.T) {
	models := &fakeModels{resp: textResponse(" {\"a\":1} ", "", "tail")}
	gen := newGenerator(models, Options{Model: "gemini-test", Temperature: 0.2}, nil)

	out, err := gen.Generate(context.Background(), ai.Request{
		Prompt:            "score this",
		SystemInstruction: "you are an evaluator",
		JSON:              true,
	})
	require.NoError(t, err)

	assert.Equal(t, "{\"a\":1}\ntail", out)
	assert.Equal(t, "gemini-test", models.model)
	assert.Equal(t, jsonMIMEType, models.config.ResponseMIMEType)
	require.NotNil(t, models.config.SystemInstruction)
	assert.Equal(t, "you are an evaluator", models.config.SystemInstruction.Parts[0].Text)
	require.NotNil(t, models.config.Temperature)
	assert.InDelta(t, 0.2, float64(*models.config.Temperature), 1e-6)
}

func TestGenerateWithoutJSONOrSystem(t *testing.T) {
	models := &fakeModels{resp: textResponse("plain text")}
	gen := newGenerator(models, Options{}, nil)

	_, err := gen.Generate(context.Background(), ai.Request{Prompt: "summarize"})
	require.NoError(t, err)

	assert.Equal(t, defaultModel, gen.Model())
	assert.Empty(t, models.config.ResponseMIMEType)
	assert.Nil(t, models.config.SystemInstruction)
}

func TestGenerateDoesNotRetry(t *testing.T) {
	models := &fakeModels{err: errors.New("503 unavailable")}
	gen := newGenerator(models, Options{}, nil)

	_, err := gen.Generate(context.Background(), ai.Request{Prompt: "hello"})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.UpstreamUnavailable), "got %v", err)
	assert.Equal(t, 1, models.calls)
}

func TestGenerateEmptyResponse(t *testing.T) {
	models := &fakeModels{resp: textResponse("   ")}
	gen := newGenerator(models, Options{}, nil)

	_, err := gen.Generate(context.Background(), ai.Request{Prompt: "hello"})
	assert.Error(t, err)
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	models := &fakeModels{resp: textResponse("x")}
	gen := newGenerator(models, Options{}, nil)

	_, err := gen.Generate(context.Background(), ai.Request{Prompt: "  "})
	assert.Error(t, err)
	assert.Zero(t, models.calls)
}

func TestGenerateLogsPreviews(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	models := &fakeModels{resp: textResponse("a fairly long response body")}
	gen := newGenerator(models, Options{Model: "m", MaxLogLength: 5}, zap.New(core))

	_, err := gen.Generate(context.Background(), ai.Request{Prompt: "a fairly long prompt"})
	require.NoError(t, err)

	entries := observed.All()
	require.Len(t, entries, 2)

	req := entries[0].ContextMap()
	assert.Equal(t, "a fai...", req["prompt_preview"])
	assert.Equal(t, ProviderName, req["ai_provider"])
	assert.Equal(t, "m", req["ai_model"])
}
