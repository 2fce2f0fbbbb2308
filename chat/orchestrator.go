// Package chat turns a visitor question plus an optional page extraction into
// a short reply, trying remote providers in order and falling back to a
// rule-based local responder.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/pagechat/llm"
	"github.com/use-agent/pagechat/metrics"
	"github.com/use-agent/pagechat/models"
	"github.com/use-agent/pagechat/textutil"
)

// Reply sources that are not provider names.
const (
	SourceLink  = "link"
	SourceLocal = "local"
)

// Defaults applied by NewOrchestrator.
const (
	DefaultProviderTimeout = 15 * time.Second
	DefaultMaxSentences    = 3
)

// Turn is one visitor question.
type Turn struct {
	Message      string
	Page         *models.PageExtraction // may be nil
	Instructions string
}

// Attempt records one provider call.
type Attempt struct {
	Position int           `json:"position"`
	Provider string        `json:"provider"`
	Outcome  string        `json:"outcome"` // metrics.OutcomeSuccess, OutcomeFailure or OutcomeTimeout
	Latency  time.Duration `json:"latency_ns"`
}

// Reply is the shaped answer plus where it came from.
type Reply struct {
	Text     string
	Provider string // SourceLink, SourceLocal or the provider name
	Attempts []Attempt
}

// Orchestrator produces replies. It holds no per-request state and is safe
// for concurrent use.
type Orchestrator struct {
	providers    []llm.Provider
	timeout      time.Duration
	maxSentences int
	metrics      *metrics.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProviderTimeout bounds each provider call.
func WithProviderTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxSentences overrides the reply sentence clamp.
func WithMaxSentences(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxSentences = n
		}
	}
}

// WithMetrics records attempts and reply sources on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator creates an Orchestrator that tries providers in order.
func NewOrchestrator(providers []llm.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers:    providers,
		timeout:      DefaultProviderTimeout,
		maxSentences: DefaultMaxSentences,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Providers returns the configured provider chain.
func (o *Orchestrator) Providers() []llm.Provider {
	return o.providers
}

// Reply answers turn. It always returns a non-empty text.
func (o *Orchestrator) Reply(ctx context.Context, turn Turn) Reply {
	start := time.Now()
	sales := SalesMode(turn.Instructions)
	pageURL := ""
	if turn.Page != nil {
		pageURL = turn.Page.URL
	}

	var r Reply
	if pageURL != "" && LinkIntent(turn.Message) {
		// The canned link reply keeps its line breaks and is not clamped.
		r = Reply{Text: LinkReply(pageURL, sales), Provider: SourceLink}
	} else {
		r = o.complete(ctx, turn, sales)
		r.Text = textutil.ClampSentences(r.Text, o.maxSentences)
	}
	r.Text = AppendLink(r.Text, pageURL)

	o.metrics.ObserveReply(r.Provider)
	slog.Info("reply generated",
		"provider", r.Provider,
		"attempts", len(r.Attempts),
		"salesMode", sales,
		"elapsedMs", time.Since(start).Milliseconds(),
	)
	return r
}

// complete walks the provider chain and falls back to LocalResponse.
func (o *Orchestrator) complete(ctx context.Context, turn Turn, sales bool) Reply {
	system := SystemPrompt(sales)
	user := UserPrompt(turn.Message, turn.Page, turn.Instructions)

	var attempts []Attempt
	for _, p := range o.providers {
		if !p.Available() {
			continue
		}
		text, a := o.attempt(ctx, p, len(attempts)+1, system, user)
		attempts = append(attempts, a)
		if a.Outcome == metrics.OutcomeSuccess {
			return Reply{Text: text, Provider: p.Name, Attempts: attempts}
		}
	}

	return Reply{
		Text:     LocalResponse(turn.Message, turn.Page, turn.Instructions),
		Provider: SourceLocal,
		Attempts: attempts,
	}
}

func (o *Orchestrator) attempt(ctx context.Context, p llm.Provider, pos int, system, user string) (string, Attempt) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	text, err := p.Complete(callCtx, system, user)
	a := Attempt{Position: pos, Provider: p.Name, Latency: time.Since(start)}

	switch {
	case err == nil && strings.TrimSpace(text) != "":
		a.Outcome = metrics.OutcomeSuccess
	case err != nil && (llm.IsTimeout(err) || callCtx.Err() != nil):
		a.Outcome = metrics.OutcomeTimeout
	default:
		a.Outcome = metrics.OutcomeFailure
	}

	o.metrics.ObserveProviderAttempt(p.Name, a.Outcome, a.Latency)
	if a.Outcome != metrics.OutcomeSuccess {
		slog.Warn("provider attempt failed",
			"provider", p.Name,
			"position", pos,
			"outcome", a.Outcome,
			"latencyMs", a.Latency.Milliseconds(),
			"error", err,
		)
	}
	return strings.TrimSpace(text), a
}

// AppendLink puts url on its own line at the end of text unless text already
// contains it.
func AppendLink(text, url string) string {
	if url == "" || strings.Contains(text, url) {
		return text
	}
	return text + "\n\n" + url
}
