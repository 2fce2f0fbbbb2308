// Package client is a small HTTP client for the pagechat API, used by the MCP
// server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/use-agent/pagechat/models"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 120 * time.Second

const maxResponse = 4 << 20

// Client calls a running pagechat server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a Client for baseURL. apiKey may be empty when the server runs
// without auth. A nil httpClient gets one with DefaultTimeout.
func New(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// Extract calls POST /api/v1/extract.
func (c *Client) Extract(ctx context.Context, url, instructions string) (*models.PageExtraction, error) {
	var resp models.ExtractResponse
	err := c.post(ctx, "/api/v1/extract", models.ExtractRequest{URL: url, Instructions: instructions}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, apiError(resp.Code, resp.Error, "extract failed")
	}
	return resp.Data, nil
}

// Chat calls POST /api/v1/chat.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := c.post(ctx, "/api/v1/chat", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = resp.FallbackResponse
		}
		return nil, apiError(resp.Code, msg, "chat failed")
	}
	return &resp, nil
}

// post sends payload as JSON and decodes the response body into out. Error
// statuses still carry a JSON envelope, so they are decoded too.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.NewPageError(models.ErrCodeNetwork, "API request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return models.NewPageError(models.ErrCodeNetwork, "read response", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return models.NewPageError(models.ErrCodeParse,
			fmt.Sprintf("unexpected response (HTTP %d)", resp.StatusCode), err)
	}
	return nil
}

func apiError(code, msg, fallback string) *models.PageError {
	if code == "" {
		code = models.ErrCodeInternal
	}
	if msg == "" {
		msg = fallback
	}
	return models.NewPageError(code, msg, nil)
}
