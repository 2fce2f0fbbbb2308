package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagechat/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// HealthDeps is what the health handler reports on. Pool may be nil when
// rendering is disabled.
type HealthDeps struct {
	CacheLen    func() int
	ActiveChats *ActiveChats
	Services    func() map[string]bool
	Pool        PoolReporter
	StartTime   time.Time
}

// Health returns a handler for GET /api/v1/health.
//
// Degrades status when > 80% of browser pages are active.
func Health(d HealthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(d.StartTime).Round(time.Second).String(),
			Version: Version,
		}
		if d.CacheLen != nil {
			resp.CacheSize = d.CacheLen()
		}
		if d.ActiveChats != nil {
			resp.ActiveChats = d.ActiveChats.Len()
		}
		if d.Services != nil {
			resp.Services = d.Services()
		}
		if d.Pool != nil {
			stats := d.Pool.Stats()
			resp.PoolStats = &stats
			if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
				resp.Status = "degraded"
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
