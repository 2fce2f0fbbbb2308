package scraper

import (
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/pagechat/config"
	"github.com/use-agent/pagechat/models"
)

// Renderer manages the global browser lifecycle and the page pool used for
// rendered (Tier 2) extraction. It is safe for concurrent use.
type Renderer struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	browserCfg  config.BrowserConfig
	extractCfg  config.ExtractorConfig
	blocked     map[string]struct{}
	activePages atomic.Int32
}

// NewRenderer launches a headless browser and initialises the reusable page pool.
func NewRenderer(browserCfg config.BrowserConfig, extractCfg config.ExtractorConfig) (*Renderer, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewPageError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewPageError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	maxPages := browserCfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	pool := rod.NewPagePool(maxPages)
	slog.Info("page pool created", "maxPages", maxPages)

	return &Renderer{
		browser:    browser,
		pagePool:   pool,
		browserCfg: browserCfg,
		extractCfg: extractCfg,
		blocked:    blockedSet(extractCfg.BlockedResourceTypes),
	}, nil
}

// Stats returns a snapshot of the pool's current state.
func (r *Renderer) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    r.browserCfg.MaxPages,
		ActivePages: int(r.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
func (r *Renderer) Close() {
	slog.Info("renderer shutting down: draining page pool")
	r.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if err := r.browser.Close(); err != nil {
		slog.Warn("renderer shutdown: browser close failed", "error", err)
	}
	slog.Info("renderer shutdown complete")
}
