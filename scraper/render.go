package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pagechat/engine"
	"github.com/use-agent/pagechat/models"
	"github.com/ysmood/gson"
)

const defaultRenderTimeout = 20 * time.Second

// scrollStepJS scrolls one viewport down and reports whether the bottom of
// the document has been reached.
const scrollStepJS = `() => {
	window.scrollBy(0, window.innerHeight);
	const body = document.body;
	if (!body) return true;
	return window.innerHeight + window.scrollY >= body.scrollHeight;
}`

const stripJS = `() => {
	document.querySelectorAll('script, style, noscript, iframe').forEach(el => el.remove());
}`

const readJS = `() => {
	const meta = document.querySelector('meta[name="description"]') ||
		document.querySelector('meta[property="og:description"]');
	return {
		text: document.body ? document.body.innerText : '',
		title: document.title || '',
		description: meta ? (meta.getAttribute('content') || '') : '',
		url: window.location.href,
	};
}`

// Render loads req.URL in a pooled browser tab and returns the text of the
// rendered DOM. It satisfies engine.RenderFunc.
//
// Lifecycle:
//
//  1. Timeout guard    – hard deadline on the whole render
//  2. Acquire page     – borrow a tab from the pool
//  3. DEFER: cleanup   – about:blank + return to pool
//  4. Stealth, headers and hijack, all before navigation
//  5. Navigate and wait for DOMContentLoaded
//  6. Scroll to trigger lazy content
//  7. Strip non-content nodes and read text back
func (r *Renderer) Render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.extractCfg.RenderTimeout
	}
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	r.activePages.Add(1)
	defer r.activePages.Add(-1)

	page, err := r.pagePool.Get(func() (*rod.Page, error) {
		return r.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewPageError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", err)
	}

	// ── 3. Cleanup uses the page without the request context so it still
	// runs after the deadline has passed.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		r.pagePool.Put(page)
	}()

	// ── 4. Pre-navigation setup ───────────────────────────────────────
	if r.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	headers := map[string]string{"Accept-Language": "pt-BR,pt;q=0.9,en;q=0.8"}
	for k, v := range req.Headers {
		headers[k] = v
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)

	if router := setupHijack(page, r.blocked); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	// ── 5. Navigate ───────────────────────────────────────────────────
	waitDOM := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	waitDOM()

	// ── 6. Scroll ─────────────────────────────────────────────────────
	r.scroll(ctx, p)

	// ── 7. Read ───────────────────────────────────────────────────────
	if _, err := p.Eval(stripJS); err != nil {
		slog.Debug("strip of non-content nodes failed", "url", req.URL, "error", err)
	}

	res, err := p.Eval(readJS)
	if err != nil {
		return nil, categorizeError(err, "failed to read rendered DOM")
	}

	finalURL := res.Value.Get("url").Str()
	if finalURL == "" {
		finalURL = req.URL
	}

	return &engine.FetchResult{
		Text:        res.Value.Get("text").Str(),
		Title:       res.Value.Get("title").Str(),
		Description: res.Value.Get("description").Str(),
		FinalURL:    finalURL,
	}, nil
}

// scroll walks the page one viewport at a time so lazily loaded sections are
// present before the text is read. It stops early at the bottom of the page
// or when ctx is done.
func (r *Renderer) scroll(ctx context.Context, p *rod.Page) {
	steps := r.extractCfg.MaxScrollSteps
	delay := r.extractCfg.ScrollDelay
	for i := 0; i < steps; i++ {
		res, err := p.Eval(scrollStepJS)
		if err != nil {
			slog.Debug("scroll step failed", "step", i, "error", err)
			return
		}
		if res.Value.Bool() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed PageErrors so callers can tell
// timeouts apart from navigation failures.
func categorizeError(err error, msg string) *models.PageError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewPageError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewPageError(models.ErrCodeTimeout, "render canceled", err)
	default:
		return models.NewPageError(models.ErrCodeRender, msg, err)
	}
}
