package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/pagechat/models"
)

const maxResponseBody = 1 << 20

// OpenAIClient is a lightweight client for OpenAI-compatible chat completion
// endpoints (OpenAI, Groq, OpenRouter). It uses net/http directly.
type OpenAIClient struct {
	httpClient *http.Client
	cfg        ClientConfig
}

// ClientConfig holds the per-provider settings of a completion client.
type ClientConfig struct {
	APIKey      string
	Model       string
	BaseURL     string // e.g. "https://api.openai.com/v1"
	Temperature float64
	MaxTokens   int

	// Headers are sent on every request, after the defaults.
	Headers map[string]string
}

// NewOpenAIClient creates a client with the given http.Client.
// Pass nil to use a fresh http.Client.
func NewOpenAIClient(httpClient *http.Client, cfg ClientConfig) *OpenAIClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenAIClient{httpClient: httpClient, cfg: cfg}
}

// chatRequest is the OpenAI chat completion request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the minimal chat completion response we need.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatErrorResponse captures an API error from the provider.
type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one system+user exchange and returns the completion text.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyStatusError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", models.NewPageError(models.ErrCodeProviderFailure, "failed to parse completion response", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", models.NewPageError(models.ErrCodeProviderFailure, "completion returned no choices", nil)
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", models.NewPageError(models.ErrCodeProviderFailure, "completion returned empty content", nil)
	}
	return text, nil
}

// classifyStatusError maps HTTP status codes to provider error codes.
func classifyStatusError(statusCode int, body []byte) *models.PageError {
	var errResp chatErrorResponse
	msg := "provider API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewPageError(models.ErrCodeProviderUnavailable, msg, nil)
	case statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable:
		return models.NewPageError(models.ErrCodeProviderUnavailable, fmt.Sprintf("provider returned %d: %s", statusCode, msg), nil)
	default:
		return models.NewPageError(models.ErrCodeProviderFailure, fmt.Sprintf("provider returned %d: %s", statusCode, msg), nil)
	}
}
