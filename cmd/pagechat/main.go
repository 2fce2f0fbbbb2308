package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/pagechat/api"
	"github.com/use-agent/pagechat/api/handler"
	"github.com/use-agent/pagechat/app"
	"github.com/use-agent/pagechat/config"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	app.InitLogger(cfg.Log, os.Stdout)
	slog.Info("pagechat starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"browser", cfg.Browser.Enabled,
		"providers", cfg.Providers.Order,
	)

	// ── 3. Build the pipeline (cache, extractor, providers) ─────────
	a := app.Build(cfg)
	defer a.Close()

	for name, ok := range a.Services() {
		slog.Info("service", "name", name, "available", ok)
	}

	// ── 4. Setup router ─────────────────────────────────────────────
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	health := handler.HealthDeps{
		CacheLen:  a.Cache.Len,
		Services:  a.Services,
		StartTime: time.Now(),
	}
	if a.Renderer != nil {
		health.Pool = a.Renderer
	}
	active := handler.NewActiveChats(cfg.Chat.ActiveChatTTL, time.Now)
	health.ActiveChats = active

	router := api.NewRouter(ctx, cfg, api.Deps{
		Extractor:   a.Coordinator,
		Replier:     a.Orchestrator,
		ActiveChats: active,
		Health:      health,
		Metrics:     a.Metrics,
	})

	// ── 5. Start HTTP server ────────────────────────────────────────
	readTimeout, writeTimeout := api.ServerTimeouts(cfg)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())
	stop()

	// Give in-flight requests 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("pagechat stopped")
}
