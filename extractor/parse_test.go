package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHTML_TitleCandidates(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "h1 wins",
			html: `<html><head><title>Título da aba</title></head><body><h1>Workshop de Cerâmica</h1></body></html>`,
			want: "Workshop de Cerâmica",
		},
		{
			name: "short h1 falls through to og:title",
			html: `<html><head><meta property="og:title" content="Workshop de Cerâmica Artesanal"><title>Aba</title></head><body><h1>Oi</h1></body></html>`,
			want: "Workshop de Cerâmica Artesanal",
		},
		{
			name: "twitter title before document title",
			html: `<html><head><meta name="twitter:title" content="Cerâmica no Twitter"><title>Cerâmica na aba</title></head><body></body></html>`,
			want: "Cerâmica no Twitter",
		},
		{
			name: "document title last",
			html: `<html><head><title>Cerâmica na aba</title></head><body></body></html>`,
			want: "Cerâmica na aba",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := parseHTML(tt.html, "https://example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.title)
		})
	}
}

func TestParseHTML_DescriptionFallsBackToArticleParagraph(t *testing.T) {
	html := `<html><head><meta name="description" content="curta"></head><body>
		<article><p>Este parágrafo descreve o produto com detalhes suficientes para servir de descrição.</p></article>
	</body></html>`
	d, err := parseHTML(html, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "Este parágrafo descreve o produto com detalhes suficientes para servir de descrição.", d.description)
}

func TestParseHTML_BlockBounds(t *testing.T) {
	html := `<html><body>
		<p>curto</p>
		<p>Este bloco tem tamanho suficiente para entrar.</p>
		<p>Este bloco tem tamanho suficiente para entrar.</p>
	</body></html>`
	d, err := parseHTML(html, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "Este bloco tem tamanho suficiente para entrar.", d.body)
	assert.Empty(t, d.prices)
	assert.Empty(t, d.bonuses)
}

func TestRenderedDraft(t *testing.T) {
	d := renderedDraft("  Linha   um da página renderizada  \n\nLinha um da página renderizada\nOferta: R$ 10,00", "Oi", "")
	assert.Equal(t, "Linha um da página renderizada\nOferta: R$ 10,00", d.body)
	assert.Empty(t, d.title)
	assert.Equal(t, []string{"R$ 10,00"}, d.prices)
}

func TestSynthesizeTitle(t *testing.T) {
	assert.Equal(t, "Segunda linha longa", synthesizeTitle("curta\nSegunda linha longa\nTerceira linha"))
	assert.Empty(t, synthesizeTitle(""))
}

func TestParseHTML_SignalsIncludePageChrome(t *testing.T) {
	page := `<html><head><title>Loja</title></head><body>
<nav>Bônus: ebook de receitas para novos alunos</nav>
<p>Conheça nossa escola de culinária com aulas presenciais e online.</p>
<footer>Oferta: R$ 49,90 por tempo limitado</footer>
</body></html>`

	d, err := parseHTML(page, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"R$ 49,90"}, d.prices)
	assert.Equal(t, []string{"Bônus: ebook de receitas para novos alunos"}, d.bonuses)
	assert.NotContains(t, d.body, "R$ 49,90")
}
