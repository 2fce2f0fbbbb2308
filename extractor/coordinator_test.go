package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pagechat/cache"
	"github.com/use-agent/pagechat/engine"
	"github.com/use-agent/pagechat/models"
	"github.com/use-agent/pagechat/textutil"
)

const salesPage = `<!DOCTYPE html>
<html>
<head>
	<title>Curso de Finanças | Loja</title>
	<meta name="description" content="Aprenda a organizar suas finanças pessoais em poucas semanas com um método simples e direto.">
	<script>var tracking = "R$ 1,00";</script>
</head>
<body>
	<nav>Início Cursos Contato Blog Sobre nós</nav>
	<h1>Curso Completo de Finanças Pessoais</h1>
	<p>Um programa prático para sair das dívidas e começar a investir. Aulas curtas e objetivas.</p>
	<p>Por apenas R$ 99,00 à vista ou em até 12 vezes.</p>
	<ul>
		<li>Bônus: planilha de controle financeiro</li>
		<li>Acesso vitalício ao conteúdo completo</li>
	</ul>
	<footer>Todos os direitos reservados à empresa exemplo</footer>
</body>
</html>`

func newCountingServer(t *testing.T, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

type fakeEngine struct {
	res     *engine.FetchResult
	err     error
	panics  bool
	calls   atomic.Int32
	timeout time.Duration
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Fetch(_ context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	f.calls.Add(1)
	f.timeout = req.Timeout
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	r := *f.res
	return &r, nil
}

func newCoordinator(tier1 engine.Engine, opts ...Option) *Coordinator {
	return NewCoordinator(cache.New(time.Minute, 0), tier1, opts...)
}

func TestExtract_Tier1SalesPage(t *testing.T) {
	srv, _ := newCountingServer(t, salesPage)
	c := newCoordinator(engine.NewHTTPEngine(time.Second, 3))

	x := c.Extract(context.Background(), srv.URL)

	require.NotNil(t, x)
	assert.Equal(t, models.MethodTier1, x.Method)
	assert.Empty(t, x.Error)
	assert.Equal(t, "Curso Completo de Finanças Pessoais", x.Title)
	assert.Equal(t, "Aprenda a organizar suas finanças pessoais em poucas semanas com um método simples e direto.", x.Description)
	assert.Equal(t, "R$ 99,00", x.Price)
	assert.Equal(t, []string{"R$ 99,00"}, x.PricesDetected)

	var hasBonus bool
	for _, b := range x.BonusesDetected {
		if strings.Contains(b, "Bônus") {
			hasBonus = true
		}
	}
	assert.True(t, hasBonus, "bonuses: %v", x.BonusesDetected)

	// Meta description leads the body; nav and footer text is dropped.
	assert.True(t, strings.HasPrefix(x.CleanText, "Aprenda a organizar"))
	assert.NotContains(t, x.CleanText, "Todos os direitos")
	assert.NotContains(t, x.CleanText, "Início Cursos")
	assert.NotContains(t, x.CleanText, "tracking")

	assert.NotEmpty(t, x.Summary)
	assert.True(t, strings.HasPrefix(textutil.Normalize(x.CleanText), strings.TrimSuffix(x.Summary, "...")))
	assert.ElementsMatch(t, strings.Split(x.CleanText, "\n"), dedupe(strings.Split(x.CleanText, "\n")))
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func TestExtract_CachedSecondCall(t *testing.T) {
	srv, hits := newCountingServer(t, salesPage)
	c := newCoordinator(engine.NewHTTPEngine(time.Second, 3))

	first := c.Extract(context.Background(), srv.URL)
	second := c.Extract(context.Background(), srv.URL)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, c.Cache().Len())
}

func TestExtract_Tier2ReplacesThinPage(t *testing.T) {
	thin := `<html><head><title>Carregando</title></head><body><div id="app"></div><script src="/app.js"></script></body></html>`
	srv, _ := newCountingServer(t, thin)

	rendered := strings.Join([]string{
		"Mentoria Intensiva de Vendas Online",
		"Descubra como montar um funil de vendas que converte todos os dias.",
		"Investimento: R$ 497,00",
		"Bônus exclusivo: checklist de lançamento",
		"Mentoria Intensiva de Vendas Online",
		"Garantia incondicional de sete dias para testar todo o material com calma.",
		"Suporte direto com a equipe durante toda a jornada de aprendizado.",
	}, "\n")
	renderer := &fakeEngine{res: &engine.FetchResult{
		Text:     rendered,
		Title:    "Mentoria de Vendas",
		FinalURL: srv.URL + "/app",
	}}

	c := newCoordinator(engine.NewHTTPEngine(time.Second, 3),
		WithRenderer(renderer), WithTimeouts(0, 5*time.Second))
	x := c.Extract(context.Background(), srv.URL)

	assert.Equal(t, int32(1), renderer.calls.Load())
	assert.Equal(t, 5*time.Second, renderer.timeout)
	assert.Equal(t, models.MethodTier2, x.Method)
	assert.Equal(t, "Mentoria de Vendas", x.Title)
	assert.Equal(t, srv.URL+"/app", x.URL)
	assert.Equal(t, "R$ 497,00", x.Price)
	assert.Equal(t, []string{"Bônus exclusivo: checklist de lançamento"}, x.BonusesDetected)
	assert.Equal(t, 1, strings.Count(x.CleanText, "Mentoria Intensiva de Vendas Online"))

	// The cache is keyed by the requested URL, not the final one.
	_, ok := c.Cache().Get(srv.URL)
	assert.True(t, ok)
}

func TestExtract_CancelledCallerDoesNotPoisonCache(t *testing.T) {
	srv, hits := newCountingServer(t, salesPage)
	c := newCoordinator(engine.NewHTTPEngine(time.Second, 3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	first := c.Extract(ctx, srv.URL)
	assert.Equal(t, models.MethodTier1, first.Method)
	assert.Empty(t, first.Error)

	second := c.Extract(context.Background(), srv.URL)
	assert.Equal(t, models.MethodTier1, second.Method)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestExtract_Tier1FailedTier2Succeeds(t *testing.T) {
	tier1 := &fakeEngine{err: errors.New("dial tcp: connection refused")}
	renderer := &fakeEngine{res: &engine.FetchResult{
		Text: strings.Join([]string{
			"Oficina de Marcenaria para Iniciantes",
			"Construa seus próprios móveis com técnicas tradicionais e ferramentas simples.",
			"Turmas aos sábados com material incluso e acompanhamento individual.",
			"Valor: R$ 350,00",
		}, "\n"),
		Title: "Oficina de Marcenaria",
	}}

	const target = "https://example.com/oficina"
	c := newCoordinator(tier1, WithRenderer(renderer))
	x := c.Extract(context.Background(), target)

	assert.Equal(t, int32(1), renderer.calls.Load())
	assert.Equal(t, models.MethodTier2, x.Method)
	assert.Empty(t, x.Error)
	assert.NotEmpty(t, x.CleanText)
	assert.Equal(t, "Oficina de Marcenaria", x.Title)
	assert.Equal(t, "R$ 350,00", x.Price)
	assert.Equal(t, target, x.URL)

	cached, ok := c.Cache().Get(target)
	require.True(t, ok)
	assert.Same(t, x, cached)
}

func TestExtract_Tier2NoImprovement(t *testing.T) {
	srv, _ := newCountingServer(t, salesPage)

	tests := []struct {
		name     string
		renderer *fakeEngine
	}{
		{"shorter text", &fakeEngine{res: &engine.FetchResult{Text: "curto"}}},
		{"render error", &fakeEngine{err: errors.New("chrome crashed")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCoordinator(engine.NewHTTPEngine(time.Second, 3),
				WithRenderer(tt.renderer), WithMinContentLength(100000))
			x := c.Extract(context.Background(), srv.URL)

			assert.Equal(t, int32(1), tt.renderer.calls.Load())
			assert.Equal(t, models.MethodTier1, x.Method)
			assert.Equal(t, "Curso Completo de Finanças Pessoais", x.Title)
		})
	}
}

func TestExtract_RichPageSkipsRenderer(t *testing.T) {
	srv, _ := newCountingServer(t, salesPage)
	renderer := &fakeEngine{res: &engine.FetchResult{Text: "x"}}

	c := newCoordinator(engine.NewHTTPEngine(time.Second, 3),
		WithRenderer(renderer), WithMinContentLength(10))
	x := c.Extract(context.Background(), srv.URL)

	assert.Equal(t, int32(0), renderer.calls.Load())
	assert.Equal(t, models.MethodTier1, x.Method)
}

func TestExtract_FailedRecordIsCached(t *testing.T) {
	tier1 := &fakeEngine{err: errors.New("dial tcp: connection refused")}
	c := newCoordinator(tier1)

	x := c.Extract(context.Background(), "https://unreachable.example")

	assert.Equal(t, models.MethodFailed, x.Method)
	assert.NotEmpty(t, x.Error)
	assert.Contains(t, x.Error, models.ErrCodeNetwork)
	assert.Empty(t, x.Title)
	assert.Empty(t, x.Description)
	assert.Empty(t, x.Summary)
	assert.Empty(t, x.CleanText)
	assert.Empty(t, x.PricesDetected)
	assert.Empty(t, x.BonusesDetected)

	again := c.Extract(context.Background(), "https://unreachable.example")
	assert.Same(t, x, again)
	assert.Equal(t, int32(1), tier1.calls.Load())
}

func TestExtract_FailedBothTiers(t *testing.T) {
	tier1 := &fakeEngine{err: errors.New("timeout")}
	tier2 := &fakeEngine{err: errors.New("render timeout")}
	c := newCoordinator(tier1, WithRenderer(tier2))

	x := c.Extract(context.Background(), "https://slow.example")

	assert.Equal(t, int32(1), tier2.calls.Load())
	assert.Equal(t, models.MethodFailed, x.Method)
	assert.NotEmpty(t, x.Error)
}

func TestExtract_RecoversPanic(t *testing.T) {
	c := newCoordinator(&fakeEngine{panics: true})

	var x *models.PageExtraction
	require.NotPanics(t, func() {
		x = c.Extract(context.Background(), "https://panic.example")
	})
	assert.Equal(t, models.MethodFailed, x.Method)
	assert.Contains(t, x.Error, "boom")
	assert.Equal(t, 1, c.Cache().Len())
}

func TestExtract_SynthesizesTitle(t *testing.T) {
	page := `<html><body>
		<p>Oficina de fotografia para iniciantes</p>
		<p>Aprenda enquadramento, luz e edição em um fim de semana intensivo.</p>
	</body></html>`
	c := newCoordinator(&fakeEngine{res: &engine.FetchResult{HTML: page}})

	x := c.Extract(context.Background(), "https://foto.example")

	assert.Equal(t, models.MethodTier1, x.Method)
	assert.Equal(t, "Oficina de fotografia para iniciantes", x.Title)
	assert.Equal(t, "https://foto.example", x.URL)
}

func TestExtract_TinyHTMLWithoutRendererFails(t *testing.T) {
	c := newCoordinator(&fakeEngine{res: &engine.FetchResult{HTML: "<html></html>"}})

	x := c.Extract(context.Background(), "https://tiny.example")

	assert.Equal(t, models.MethodFailed, x.Method)
	assert.NotEmpty(t, x.Error)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "tier1_parsed", stateTier1Parsed.String())
	assert.Equal(t, "insufficiency_check", stateInsufficiencyCheck.String())
	assert.Equal(t, "unknown", state(99).String())
}
