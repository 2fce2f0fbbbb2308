// Package app wires the extraction and reply pipeline from configuration. It
// is shared by the server and the command-line tool.
package app

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/use-agent/pagechat/cache"
	"github.com/use-agent/pagechat/chat"
	"github.com/use-agent/pagechat/config"
	"github.com/use-agent/pagechat/engine"
	"github.com/use-agent/pagechat/extractor"
	"github.com/use-agent/pagechat/llm"
	"github.com/use-agent/pagechat/metrics"
	"github.com/use-agent/pagechat/scraper"
)

// App holds the long-lived pipeline objects.
type App struct {
	Config       *config.Config
	Cache        *cache.Cache
	Coordinator  *extractor.Coordinator
	Orchestrator *chat.Orchestrator
	Providers    []llm.Provider
	Metrics      *metrics.Metrics

	// Renderer is nil when rendering is disabled or the browser failed to
	// start.
	Renderer *scraper.Renderer
}

// Option adjusts how Build wires the pipeline.
type Option func(*buildOptions)

type buildOptions struct {
	httpClient  *http.Client
	newRenderer func(config.BrowserConfig, config.ExtractorConfig) (*scraper.Renderer, error)
}

// WithHTTPClient sets the client used for provider calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *buildOptions) { o.httpClient = c }
}

// Build creates the pipeline. A browser that cannot be launched disables
// rendered extraction instead of failing.
func Build(cfg *config.Config, opts ...Option) *App {
	o := buildOptions{newRenderer: scraper.NewRenderer}
	for _, opt := range opts {
		opt(&o)
	}

	m := metrics.New()
	store := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)

	coordOpts := []extractor.Option{
		extractor.WithMinContentLength(cfg.Extractor.MinContentLength),
		extractor.WithTimeouts(cfg.Extractor.HTTPTimeout, cfg.Extractor.RenderTimeout),
		extractor.WithMetrics(m),
	}

	var renderer *scraper.Renderer
	if cfg.Browser.Enabled {
		r, err := o.newRenderer(cfg.Browser, cfg.Extractor)
		if err != nil {
			slog.Warn("browser unavailable, rendered extraction disabled", "error", err)
		} else {
			renderer = r
			coordOpts = append(coordOpts, extractor.WithRenderer(engine.NewRodEngine(r.Render)))
		}
	}

	tier1 := engine.NewHTTPEngine(cfg.Extractor.HTTPTimeout, cfg.Extractor.MaxRedirects)
	coord := extractor.NewCoordinator(store, tier1, coordOpts...)

	providers := llm.BuildProviders(cfg.Providers, o.httpClient)
	orch := chat.NewOrchestrator(providers,
		chat.WithProviderTimeout(cfg.Providers.Timeout),
		chat.WithMaxSentences(cfg.Chat.MaxSentences),
		chat.WithMetrics(m),
	)

	return &App{
		Config:       cfg,
		Cache:        store,
		Coordinator:  coord,
		Orchestrator: orch,
		Providers:    providers,
		Metrics:      m,
		Renderer:     renderer,
	}
}

// Services reports provider availability by name plus "renderer".
func (a *App) Services() map[string]bool {
	s := llm.Availability(a.Providers)
	s["renderer"] = a.Renderer != nil
	return s
}

// Close releases the browser, if any.
func (a *App) Close() {
	if a.Renderer != nil {
		a.Renderer.Close()
	}
}

// InitLogger configures the default slog logger from cfg, writing to w.
func InitLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
