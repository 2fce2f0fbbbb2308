package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pagechat/api/handler"
	"github.com/use-agent/pagechat/cache"
	"github.com/use-agent/pagechat/chat"
	"github.com/use-agent/pagechat/config"
	"github.com/use-agent/pagechat/engine"
	"github.com/use-agent/pagechat/extractor"
	"github.com/use-agent/pagechat/metrics"
)

const page = `<html><head><title>Oficina de Pão Caseiro</title>
<meta name="description" content="Aprenda a fazer pão de fermentação natural em casa, do zero, em um único sábado."></head>
<body><h1>Oficina de Pão Caseiro</h1>
<p>Inscrição por R$ 150,00 com todos os ingredientes inclusos.</p>
<p>Bônus: apostila digital com vinte receitas testadas.</p></body></html>`

func newTestRouter(t *testing.T, mutate func(*config.Config)) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.Server.Mode = gin.TestMode
	cfg.RateLimit.RequestsPerSecond = 0
	if mutate != nil {
		mutate(cfg)
	}

	m := metrics.New()
	store := cache.New(time.Minute, 0)
	coord := extractor.NewCoordinator(store, engine.NewHTTPEngine(time.Second, 3), extractor.WithMetrics(m))
	orch := chat.NewOrchestrator(nil, chat.WithMetrics(m))
	active := handler.NewActiveChats(time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := NewRouter(ctx, cfg, Deps{
		Extractor:   coord,
		Replier:     orch,
		ActiveChats: active,
		Metrics:     m,
		Health: handler.HealthDeps{
			CacheLen:    store.Len,
			ActiveChats: active,
			Services:    func() map[string]bool { return map[string]bool{"renderer": false} },
			StartTime:   time.Now(),
		},
	})
	return r, srv.URL
}

func post(r http.Handler, path, body string, headers ...string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_ExtractThenChat(t *testing.T) {
	r, pageURL := newTestRouter(t, nil)

	w := post(r, "/api/v1/extract", `{"url":"`+pageURL+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"price":"R$ 150,00"`)

	w = post(r, "/chat-universal", `{"message":"qual o preço?","url":"`+pageURL+`","conversationId":"abc"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"response":"Preço: R$ 150,00\n\n`+pageURL+`"`)

	w = post(r, "/api/v1/chat", `{"message":"me manda o link","url":"`+pageURL+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"response":"Aqui está o link: `+pageURL+`"`)

	health := httptest.NewRecorder()
	r.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Contains(t, health.Body.String(), `"cache_size":1`)
	assert.Contains(t, health.Body.String(), `"active_chats":1`)

	metricsRec := httptest.NewRecorder()
	r.ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRec.Body.String(), `pagechat_cache_lookups_total{result="hit"} 2`)
	assert.Contains(t, metricsRec.Body.String(), `pagechat_replies_total{source="link"} 1`)
}

func TestRouter_LegacyExtractAlias(t *testing.T) {
	r, pageURL := newTestRouter(t, nil)
	w := post(r, "/extract", `{"url":"`+pageURL+`","instructions":"tom consultivo"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"custom_instructions":"tom consultivo"`)
}

func TestRouter_Auth(t *testing.T) {
	r, pageURL := newTestRouter(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.APIKeys = []string{"k1"}
	})
	body := `{"url":"` + pageURL + `"}`

	assert.Equal(t, http.StatusUnauthorized, post(r, "/api/v1/extract", body).Code)
	assert.Equal(t, http.StatusUnauthorized, post(r, "/extract", body, "X-API-Key", "wrong").Code)
	assert.Equal(t, http.StatusOK, post(r, "/api/v1/extract", body, "Authorization", "Bearer k1").Code)

	// Health stays open.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	r, _ := newTestRouter(t, func(cfg *config.Config) {
		cfg.RateLimit.RequestsPerSecond = 0.001
		cfg.RateLimit.Burst = 1
	})

	assert.Equal(t, http.StatusBadRequest, post(r, "/api/v1/extract", `{}`).Code)
	w := post(r, "/api/v1/extract", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"RATE_LIMITED"`)
}

func TestServerTimeouts(t *testing.T) {
	read, write := ServerTimeouts(config.Defaults())
	assert.Equal(t, 10*time.Second, read)
	assert.Equal(t, 10*time.Second+20*time.Second+4*15*time.Second+10*time.Second, write)
}
