package chat

import (
	"strings"

	"github.com/use-agent/pagechat/models"
	"github.com/use-agent/pagechat/textutil"
)

const (
	maxContextBonuses = 3
	maxContextExcerpt = 1000
)

var baseSystemLines = []string{
	"Você é um assistente especializado em vendas online.",
	"Responda de forma clara, útil e concisa.",
	"Use apenas informações da página extraída.",
	"Nunca invente dados que não estejam disponíveis.",
	"Máximo 2-3 frases por resposta.",
}

var salesSystemLines = []string{
	"Tom consultivo e entusiasmado.",
	"Termine com pergunta que leve à compra.",
}

// SystemPrompt returns the role and grounding rules sent to every provider.
func SystemPrompt(sales bool) string {
	lines := append([]string{}, baseSystemLines...)
	if sales {
		lines = append(lines, salesSystemLines...)
	}
	return strings.Join(lines, "\n")
}

// PageContext renders the grounding block for page. The price is never
// included.
func PageContext(page *models.PageExtraction) string {
	if page == nil {
		return ""
	}
	var lines []string
	if page.Title != "" {
		lines = append(lines, "Produto: "+page.Title)
	}
	if len(page.BonusesDetected) > 0 {
		b := page.BonusesDetected
		if len(b) > maxContextBonuses {
			b = b[:maxContextBonuses]
		}
		lines = append(lines, "Bônus: "+strings.Join(b, ", "))
	}
	excerpt := page.Summary
	if excerpt == "" {
		excerpt = page.CleanText
	}
	if excerpt = textutil.Truncate(excerpt, maxContextExcerpt); excerpt != "" {
		lines = append(lines, "Informações: "+excerpt)
	}
	return strings.Join(lines, "\n")
}

// UserPrompt assembles the user turn sent to providers.
func UserPrompt(message string, page *models.PageExtraction, instructions string) string {
	var sb strings.Builder
	if instructions != "" {
		sb.WriteString("Instruções: ")
		sb.WriteString(instructions)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Contexto:\n")
	sb.WriteString(PageContext(page))
	sb.WriteString("\n\nPergunta: ")
	sb.WriteString(message)
	sb.WriteString("\n\nResponda de forma concisa usando apenas as informações fornecidas.")
	return sb.String()
}
