package models

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status      string          `json:"status"` // "healthy" or "degraded"
	Uptime      string          `json:"uptime"`
	Version     string          `json:"version"`
	CacheSize   int             `json:"cache_size"`
	ActiveChats int             `json:"active_chats"`
	Services    map[string]bool `json:"services"`
	PoolStats   *PoolStats      `json:"pool_stats,omitempty"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// ErrorResponse is the body written by middleware when a request is rejected
// before it reaches a handler.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}
