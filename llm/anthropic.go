package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/use-agent/pagechat/models"
)

// AnthropicClient completes prompts through the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	cfg    ClientConfig
}

// NewAnthropicClient creates a client. Retries are disabled so the caller's
// per-attempt timeout bounds the whole call.
func NewAnthropicClient(httpClient *http.Client, cfg ClientConfig) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...), cfg: cfg}
}

// Complete sends one system+user exchange and returns the text blocks of the
// reply joined together.
func (c *AnthropicClient) Complete(ctx context.Context, system, user string) (string, error) {
	maxTokens := int64(c.cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 250
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.Model),
		MaxTokens:   maxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(user))},
		Temperature: anthropic.Float(c.cfg.Temperature),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", classifyStatusError(apiErr.StatusCode, nil)
		}
		return "", classifyTransportError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", models.NewPageError(models.ErrCodeProviderFailure, "completion returned empty content", nil)
	}
	return text, nil
}
