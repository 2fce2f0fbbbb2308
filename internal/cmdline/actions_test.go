package cmdline

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"github.com/use-agent/pagechat/chat"
	"github.com/use-agent/pagechat/models"
)

const coursePage = `<!DOCTYPE html><html><head>
<title>Curso Completo de Fotografia</title>
<meta name="description" content="Aprenda fotografia do zero ao avançado com aulas práticas.">
</head><body><main>
<h1>Curso Completo de Fotografia</h1>
<p>Domine sua câmera com mais de cem aulas gravadas em alta definição e exercícios guiados.</p>
<p>Aprenda composição, luz natural, retrato e edição com professores premiados.</p>
<p>Por apenas R$ 197,00 à vista ou em até doze vezes no cartão de crédito.</p>
<p>Bônus: guia de presets para edição rápida no celular.</p>
</main></body></html>`

func newTestApp(out, errOut *bytes.Buffer) *cli.App {
	return &cli.App{
		Name:           "pagechat",
		Writer:         out,
		ErrWriter:      errOut,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{Name: "extract", Flags: ExtractFlags, Action: ExtractAction},
			{Name: "ask", Flags: AskFlags, Action: AskAction},
		},
	}
}

func clearProviderKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GROQ_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(k, "")
	}
	t.Setenv("PAGECHAT_CONFIG", "")
}

func pageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(coursePage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractAction_JSON(t *testing.T) {
	clearProviderKeys(t)
	srv := pageServer(t)

	var out, errOut bytes.Buffer
	err := newTestApp(&out, &errOut).Run([]string{"pagechat", "extract", "--render=false", "--json", "-q", "--instructions", "seja breve", srv.URL})
	require.NoError(t, err)

	var page models.PageExtraction
	require.NoError(t, json.Unmarshal(out.Bytes(), &page))
	assert.Equal(t, models.MethodTier1, page.Method)
	assert.Equal(t, "Curso Completo de Fotografia", page.Title)
	assert.Equal(t, "seja breve", page.CustomInstructions)
	assert.Contains(t, page.PricesDetected, "R$ 197,00")
}

func TestExtractAction_Text(t *testing.T) {
	clearProviderKeys(t)
	srv := pageServer(t)

	var out, errOut bytes.Buffer
	err := newTestApp(&out, &errOut).Run([]string{"pagechat", "extract", "--render=false", "-q", srv.URL})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Title:       Curso Completo de Fotografia")
	assert.Contains(t, out.String(), "Method:      tier1")
}

func TestExtractAction_RejectsBadURL(t *testing.T) {
	var out, errOut bytes.Buffer
	err := newTestApp(&out, &errOut).Run([]string{"pagechat", "extract", "ftp://example.com"})
	require.Error(t, err)

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
}

func TestAskAction_LocalFallback(t *testing.T) {
	clearProviderKeys(t)
	srv := pageServer(t)

	var out, errOut bytes.Buffer
	err := newTestApp(&out, &errOut).Run([]string{"pagechat", "ask", "--render=false", "--json", "-q", "--url", srv.URL, "qual", "o", "preço?"})
	require.NoError(t, err)

	var res askResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, chat.SourceLocal, res.Provider)
	assert.Empty(t, res.Attempts)
	require.NotNil(t, res.Page)
	assert.Equal(t, models.MethodTier1, res.Page.Method)
	assert.Contains(t, res.Response, "R$ 197,00")
}

func TestAskAction_NoPage(t *testing.T) {
	clearProviderKeys(t)

	var out, errOut bytes.Buffer
	err := newTestApp(&out, &errOut).Run([]string{"pagechat", "ask", "--render=false", "-q", "oi"})
	require.NoError(t, err)
	assert.Equal(t, chat.NotFoundMessage, strings.TrimSpace(out.String()))
}

func TestAskAction_RequiresQuestion(t *testing.T) {
	var out, errOut bytes.Buffer
	err := newTestApp(&out, &errOut).Run([]string{"pagechat", "ask"})
	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, isHTTPURL("https://example.com/x"))
	assert.True(t, isHTTPURL("http://127.0.0.1:8080"))
	assert.False(t, isHTTPURL("ftp://example.com"))
	assert.False(t, isHTTPURL("example.com"))
	assert.False(t, isHTTPURL(""))
}
