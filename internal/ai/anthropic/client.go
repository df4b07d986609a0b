// Package anthropic implements ai.Oracle on top of the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spigell/ta-nexus/internal/ai"
	"github.com/spigell/ta-nexus/internal/failure"
	"github.com/spigell/ta-nexus/internal/logger"
	"github.com/spigell/ta-nexus/internal/utils"
)

const (
	ProviderName = "anthropic"

	defaultModel        = "claude-sonnet-4-5"
	defaultMaxTokens    = 4096
	defaultMaxLogLength = 200

	jsonOnlyInstruction = "Respond with a single JSON object only. Do not wrap it in markdown."
)

type messageCreator interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

type Options struct {
	Model        string
	MaxTokens    int64
	MaxLogLength int
}

type Client struct {
	messages  messageCreator
	model     string
	maxTokens int64
	logger    *zap.Logger
	maxLogLen int
}

func New(apiKey string, opts Options, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return newClient(&client.Messages, opts, log), nil
}

func newClient(messages messageCreator, opts Options, log *zap.Logger) *Client {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Client{
		messages:  messages,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger.WithCommonFields(log, ProviderName, model),
		maxLogLen: maxLogLen,
	}
}

// Generate sends one Messages request and returns the first text block.
func (c *Client) Generate(ctx context.Context, req ai.Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	system := strings.TrimSpace(req.SystemInstruction)
	if req.JSON {
		system = strings.TrimSpace(system + "\n\n" + jsonOnlyInstruction)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	c.logger.Debug("anthropic messages request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	message, err := c.messages.New(ctx, params)
	if err != nil {
		return "", failure.Upstream("anthropic.generate", err)
	}

	for _, block := range message.Content {
		if block.Type != "text" {
			continue
		}
		text := strings.TrimSpace(block.Text)
		if text == "" {
			continue
		}
		c.logger.Debug("anthropic messages response",
			zap.Int("response_length", utf8.RuneCountInString(text)),
			zap.String("response_preview", utils.TruncateForLog(text, c.maxLogLen)),
			zap.Int64("input_tokens", message.Usage.InputTokens),
			zap.Int64("output_tokens", message.Usage.OutputTokens),
		)
		return text, nil
	}

	return "", failure.Upstream("anthropic.generate", errors.New("no text content in anthropic response"))
}

func (c *Client) Model() string {
	return c.model
}
