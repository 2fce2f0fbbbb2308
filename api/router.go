package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagechat/api/handler"
	"github.com/use-agent/pagechat/api/middleware"
	"github.com/use-agent/pagechat/config"
	"github.com/use-agent/pagechat/metrics"
)

// Deps are the objects the router wires into handlers.
type Deps struct {
	Extractor   handler.Extractor
	Replier     handler.Replier
	ActiveChats *handler.ActiveChats
	Health      handler.HealthDeps
	Metrics     *metrics.Metrics
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// ctx bounds background work started by middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so monitoring probes always work.
// The unversioned /extract and /chat-universal routes are aliases kept for
// existing widget embeds.
func NewRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	health := handler.Health(d.Health)
	r.GET("/health", health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", health)

	extract := handler.Extract(d.Extractor)
	chat := handler.Chat(d.Extractor, d.Replier, d.ActiveChats, handler.ChatOptions{
		DefaultRobotName: cfg.Chat.DefaultRobotName,
	})

	guards := []gin.HandlerFunc{}
	if cfg.Auth.Enabled {
		guards = append(guards, middleware.Auth(cfg.Auth.APIKeys))
	}
	guards = append(guards, middleware.RateLimit(ctx, cfg.RateLimit))

	protected := v1.Group("", guards...)
	protected.POST("/extract", extract)
	protected.POST("/chat", chat)

	legacy := r.Group("", guards...)
	legacy.POST("/extract", extract)
	legacy.POST("/chat-universal", chat)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "rota não encontrada"})
	})

	return r
}

// ServerTimeouts are the http.Server timeouts used by cmd/pagechat. The write
// timeout leaves room for a full extraction plus every provider attempt.
func ServerTimeouts(cfg *config.Config) (read, write time.Duration) {
	read = 10 * time.Second
	write = cfg.Extractor.HTTPTimeout + cfg.Extractor.RenderTimeout +
		time.Duration(len(cfg.Providers.Order))*cfg.Providers.Timeout + 10*time.Second
	return read, write
}
