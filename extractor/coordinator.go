// Package extractor turns a URL into a models.PageExtraction by walking a
// small state machine: a plain HTTP fetch first, a rendered fetch when the
// plain result is too thin, then finalization and caching.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/pagechat/cache"
	"github.com/use-agent/pagechat/engine"
	"github.com/use-agent/pagechat/metrics"
	"github.com/use-agent/pagechat/models"
	"github.com/use-agent/pagechat/textutil"
)

// DefaultMinContentLength is the body length below which a rendered fetch
// is attempted.
const DefaultMinContentLength = 200

// Bounds for the title synthesized from the first body line.
const (
	minSynthTitleLen = 10
	maxSynthTitleLen = 150
)

// Coordinator runs extractions. It is safe for concurrent use; concurrent
// extractions of the same URL are not merged and the last one to finish
// owns the cache entry.
type Coordinator struct {
	cache            *cache.Cache
	tier1            engine.Engine
	tier2            engine.Engine
	minContentLength int
	httpTimeout      time.Duration
	renderTimeout    time.Duration
	metrics          *metrics.Metrics
	now              func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRenderer enables the rendered fallback through e.
func WithRenderer(e engine.Engine) Option {
	return func(c *Coordinator) { c.tier2 = e }
}

// WithMinContentLength overrides DefaultMinContentLength.
func WithMinContentLength(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.minContentLength = n
		}
	}
}

// WithTimeouts sets the per-tier fetch timeouts. Zero keeps the engine default.
func WithTimeouts(httpTimeout, renderTimeout time.Duration) Option {
	return func(c *Coordinator) {
		c.httpTimeout = httpTimeout
		c.renderTimeout = renderTimeout
	}
}

// WithMetrics records extraction and cache metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithClock overrides time.Now for elapsed-time stamping.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a Coordinator that fetches with tier1 and stores
// results in store.
func NewCoordinator(store *cache.Cache, tier1 engine.Engine, opts ...Option) *Coordinator {
	c := &Coordinator{
		cache:            store,
		tier1:            tier1,
		minContentLength: DefaultMinContentLength,
		now:              time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RendererEnabled reports whether a rendered fallback is configured.
func (c *Coordinator) RendererEnabled() bool {
	return c.tier2 != nil
}

// Cache returns the backing cache.
func (c *Coordinator) Cache() *cache.Cache {
	return c.cache
}

// run holds the mutable state of one extraction.
type run struct {
	url      string
	finalURL string
	html     string
	draft    *draft
	method   string
	reason   string
}

// Extract returns the extraction for rawURL, from the cache when a fresh
// entry exists. It never returns nil and never fails: when nothing could be
// extracted the record has Method == models.MethodFailed and Error set.
func (c *Coordinator) Extract(ctx context.Context, rawURL string) (result *models.PageExtraction) {
	if x, ok := c.cache.Get(rawURL); ok {
		c.metrics.CacheLookup(true)
		slog.Debug("extraction cache hit", "url", rawURL)
		return x
	}
	c.metrics.CacheLookup(false)

	// The record is shared through the cache, so a caller going away must not
	// cut it short. Each tier stays bounded by its own timeout.
	ctx = context.WithoutCancel(ctx)

	start := c.now()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("extraction panicked", "url", rawURL, "panic", rec)
			result = models.NewFailedExtraction(rawURL, c.elapsedMs(start), fmt.Sprintf("internal error: %v", rec))
		}
		c.cache.Put(rawURL, result)
		c.metrics.ObserveExtraction(result.Method, c.now().Sub(start))
	}()

	r := &run{url: rawURL, finalURL: rawURL}
	for st := stateStart; st != stateDone; {
		next := c.step(ctx, r, st)
		slog.Debug("extraction step", "url", rawURL, "from", st.String(), "to", next.String())
		st = next
	}
	return c.finalize(r, start)
}

func (c *Coordinator) step(ctx context.Context, r *run, st state) state {
	switch st {
	case stateStart:
		res, err := c.tier1.Fetch(ctx, &engine.FetchRequest{URL: r.url, Timeout: c.httpTimeout})
		if err != nil {
			r.reason = models.NewPageError(models.ErrCodeNetwork, "page fetch failed", err).Error()
			slog.Warn("tier1 fetch failed", "url", r.url, "error", err)
			return stateTier1Failed
		}
		if res.FinalURL != "" {
			r.finalURL = res.FinalURL
		}
		r.html = res.HTML
		if len(r.html) > minParseableHTML {
			return stateTier1Parsed
		}
		r.reason = "page returned no usable HTML"
		return stateInsufficiencyCheck

	case stateTier1Failed:
		return stateInsufficiencyCheck

	case stateTier1Parsed:
		d, err := parseHTML(r.html, r.finalURL)
		if err != nil {
			slog.Warn("tier1 parse failed, keeping partial result", "url", r.url, "error", err)
		}
		r.draft = d
		r.method = models.MethodTier1
		r.reason = ""
		return stateInsufficiencyCheck

	case stateInsufficiencyCheck:
		if c.tier2 != nil && textutil.RuneLen(r.body()) < c.minContentLength {
			return stateTier2
		}
		return stateFinalize

	case stateTier2:
		c.render(ctx, r)
		return stateFinalize

	case stateFinalize:
		return stateDone
	}
	return stateDone
}

// render runs the rendered fetch and adopts its result when it carries more
// text than what Tier 1 produced.
func (c *Coordinator) render(ctx context.Context, r *run) {
	res, err := c.tier2.Fetch(ctx, &engine.FetchRequest{URL: r.url, Timeout: c.renderTimeout})
	if err != nil {
		slog.Warn("tier2 render failed, keeping tier1 result", "url", r.url, "error", err)
		if r.draft == nil {
			r.reason = models.NewPageError(models.ErrCodeNetwork, "page render failed", err).Error()
		}
		return
	}

	d := renderedDraft(res.Text, res.Title, res.Description)
	if textutil.RuneLen(d.body) <= textutil.RuneLen(r.body()) {
		slog.Debug("tier2 produced no improvement", "url", r.url)
		return
	}

	if r.draft != nil {
		if d.title == "" {
			d.title = r.draft.title
		}
		if d.description == "" {
			d.description = r.draft.description
		}
	}
	r.draft = d
	r.method = models.MethodTier2
	r.reason = ""
	if res.FinalURL != "" {
		r.finalURL = res.FinalURL
	}
}

func (c *Coordinator) finalize(r *run, start time.Time) *models.PageExtraction {
	elapsed := c.elapsedMs(start)
	if r.draft == nil {
		return models.NewFailedExtraction(r.url, elapsed, r.reason)
	}

	d := r.draft
	body := textutil.DedupLines(d.body)

	title := d.title
	if title == "" {
		title = synthesizeTitle(body)
	}
	summary := d.summary
	if summary == "" {
		summary = summarize(body)
	}

	x := &models.PageExtraction{
		URL:             r.finalURL,
		Title:           title,
		Description:     d.description,
		Summary:         summary,
		CleanText:       body,
		PricesDetected:  capList(d.prices, models.MaxPricesStored),
		BonusesDetected: capList(d.bonuses, models.MaxBonusesStored),
		Method:          r.method,
		ExtractionTime:  elapsed,
	}
	if len(x.PricesDetected) > 0 {
		x.Price = x.PricesDetected[0]
	}

	slog.Info("page extracted",
		"url", r.url,
		"method", x.Method,
		"contentLength", textutil.RuneLen(x.CleanText),
		"prices", len(x.PricesDetected),
		"bonuses", len(x.BonusesDetected),
		"elapsedMs", elapsed,
	)
	return x
}

func (c *Coordinator) elapsedMs(start time.Time) int64 {
	return c.now().Sub(start).Milliseconds()
}

func (r *run) body() string {
	if r.draft == nil {
		return ""
	}
	return r.draft.body
}

// synthesizeTitle picks the first body line of a plausible title length.
func synthesizeTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if textutil.Between(line, minSynthTitleLen, maxSynthTitleLen) {
			return line
		}
	}
	return ""
}
