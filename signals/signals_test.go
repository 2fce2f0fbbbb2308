package signals

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPrices(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"brl with cents", "Preço: R$ 99,00. Bônus: Ebook grátis incluso.", []string{"R$ 99,00"}},
		{"brl thousands", "De R$1.497,00 por R$ 997,00", []string{"R$1.497,00", "R$ 997,00"}},
		{"brl plain", "apenas R$ 47 hoje", []string{"R$ 47"}},
		{"iso", "costs USD 19.90 or EUR 17,50", []string{"USD 19.90", "EUR 17,50"}},
		{"symbol", "only $ 10.00 and £5", []string{"$ 10.00", "£5"}},
		{"dedup keeps order", "R$ 10,00 R$ 20,00 R$ 10,00", []string{"R$ 10,00", "R$ 20,00"}},
		{"no prices", "nothing to see here 123", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPrices(tt.text))
		})
	}
}

func TestDetectPrices_Cap(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&b, "item R$ %d,00\n", i)
	}
	got := DetectPrices(b.String())
	require.Len(t, got, MaxPrices)
	assertUnique(t, got)
}

func TestDetectBonuses(t *testing.T) {
	text := strings.Join([]string{
		"Bônus: Ebook grátis incluso.",
		"short bonus",
		"bonus",
		"Linha sem palavra-chave nenhuma aqui",
		"Você também ganha uma PLANILHA exclusiva",
		"Bônus: Ebook grátis incluso.",
		strings.Repeat("bonus ", 40),
	}, "\n")

	got := DetectBonuses(text)
	assert.Equal(t, []string{
		"Bônus: Ebook grátis incluso.",
		"short bonus",
		"Você também ganha uma PLANILHA exclusiva",
	}, got)
}

func TestDetectBonuses_Cap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "Bônus número %d para você\n", i)
	}
	got := DetectBonuses(b.String())
	require.Len(t, got, MaxBonuses)
	assertUnique(t, got)
}

func TestDetectBonuses_Malformed(t *testing.T) {
	assert.Empty(t, DetectBonuses(""))
	assert.Empty(t, DetectBonuses("\x00\xff\n\n\r\n"))
}

func TestMatchBonus(t *testing.T) {
	cat, ok := MatchBonus("Ganhe um BRINDE especial")
	assert.True(t, ok)
	assert.Equal(t, "gift", cat)

	_, ok = MatchBonus("nada aqui")
	assert.False(t, ok)
}

func assertUnique(t *testing.T, items []string) {
	t.Helper()
	seen := map[string]bool{}
	for _, it := range items {
		assert.False(t, seen[it], "duplicate %q", it)
		seen[it] = true
	}
}
