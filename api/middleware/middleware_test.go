package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/use-agent/pagechat/config"
)

func init() { gin.SetMode(gin.TestMode) }

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/", append(mw, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(APIKeyContextKey))
	})...)
	return r
}

func get(r http.Handler, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth([]string{"k1", " k2 ", ""}))

	tests := []struct {
		name    string
		headers []string
		status  int
		body    string
	}{
		{"missing", nil, http.StatusUnauthorized, "ausente"},
		{"wrong", []string{"X-API-Key", "nope"}, http.StatusUnauthorized, "inválida"},
		{"header", []string{"X-API-Key", "k1"}, http.StatusOK, "k1"},
		{"bearer trimmed config", []string{"Authorization", "Bearer k2"}, http.StatusOK, "k2"},
		{"prefix of key", []string{"X-API-Key", "k"}, http.StatusUnauthorized, "inválida"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.headers...)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	r := newEngine(Auth([]string{"", "  "}))
	assert.Equal(t, http.StatusOK, get(r).Code)
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newEngine(RateLimit(ctx, config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))
	assert.Equal(t, http.StatusOK, get(r).Code)
	assert.Equal(t, http.StatusOK, get(r).Code)

	w := get(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestRateLimit_Disabled(t *testing.T) {
	r := newEngine(RateLimit(context.Background(), config.RateLimitConfig{}))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r).Code)
	}
}
