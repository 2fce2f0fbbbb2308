// Package llm holds the remote completion clients and the ordered provider
// chain consumed by the reply orchestrator.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/use-agent/pagechat/config"
	"github.com/use-agent/pagechat/models"
)

// Provider names.
const (
	Groq       = "groq"
	OpenAI     = "openai"
	OpenRouter = "openrouter"
	Anthropic  = "anthropic"
)

// CompleteFunc produces a completion for one system+user exchange.
type CompleteFunc func(ctx context.Context, system, user string) (string, error)

// Provider is one entry of the provider chain.
type Provider struct {
	Name     string
	Enabled  func() bool
	Complete CompleteFunc
}

// Available reports whether the provider can be tried.
func (p Provider) Available() bool {
	return p.Complete != nil && (p.Enabled == nil || p.Enabled())
}

// BuildProviders returns the providers named in cfg.Order. A provider with
// no API key is still listed but reports itself disabled.
func BuildProviders(cfg config.ProvidersConfig, httpClient *http.Client) []Provider {
	providers := make([]Provider, 0, len(cfg.Order))
	for _, name := range cfg.Order {
		p, ok := buildProvider(name, cfg, httpClient)
		if !ok {
			slog.Warn("unknown provider in order, skipping", "provider", name)
			continue
		}
		providers = append(providers, p)
	}
	return providers
}

func buildProvider(name string, cfg config.ProvidersConfig, httpClient *http.Client) (Provider, bool) {
	var pc config.ProviderConfig
	switch name {
	case Groq:
		pc = cfg.Groq
	case OpenAI:
		pc = cfg.OpenAI
	case OpenRouter:
		pc = cfg.OpenRouter
	case Anthropic:
		pc = cfg.Anthropic
	default:
		return Provider{}, false
	}

	cc := ClientConfig{
		APIKey:      pc.APIKey,
		Model:       pc.Model,
		BaseURL:     pc.BaseURL,
		Temperature: pc.Temperature,
		MaxTokens:   pc.MaxTokens,
	}
	key := pc.APIKey
	enabled := func() bool { return key != "" }

	var complete CompleteFunc
	switch name {
	case Anthropic:
		complete = NewAnthropicClient(httpClient, cc).Complete
	case OpenRouter:
		cc.Headers = map[string]string{"X-Title": "pagechat"}
		complete = NewOpenAIClient(httpClient, cc).Complete
	default:
		complete = NewOpenAIClient(httpClient, cc).Complete
	}
	return Provider{Name: name, Enabled: enabled, Complete: complete}, true
}

// Availability reports, by name, which providers are enabled.
func Availability(providers []Provider) map[string]bool {
	out := make(map[string]bool, len(providers))
	for _, p := range providers {
		out[p.Name] = p.Available()
	}
	return out
}

// IsTimeout reports whether err came from a deadline rather than a
// provider-side failure.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pe *models.PageError
	return errors.As(err, &pe) && pe.Code == models.ErrCodeProviderTimeout
}

func classifyTransportError(err error) *models.PageError {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewPageError(models.ErrCodeProviderTimeout, "provider call timed out", err)
	}
	return models.NewPageError(models.ErrCodeProviderFailure, "provider request failed", err)
}
