package chat

import (
	"regexp"
	"strings"

	"github.com/use-agent/pagechat/models"
	"github.com/use-agent/pagechat/textutil"
)

// NotFoundMessage is the reply when nothing on the page answers the question.
const NotFoundMessage = "Não encontrei essa informação específica na página. Posso te ajudar com outras dúvidas ou enviar o link direto?"

const (
	noPriceMessage = "Preço não informado na página."
	noBonusMessage = "Informações sobre bônus não encontradas."

	localSummarySentences = 2
	localMaxBonuses       = 2
)

var (
	priceIntent     = regexp.MustCompile(`(?i)preço|valor|quanto custa`)
	mechanismIntent = regexp.MustCompile(`(?i)como funciona|funcionamento`)
	bonusIntent     = regexp.MustCompile(`(?i)bônus|bonus`)
)

// LocalResponse answers message from page without any remote call. page may
// be nil. Intents are checked in order: price, how it works, bonuses, then a
// generic summary.
func LocalResponse(message string, page *models.PageExtraction, instructions string) string {
	sales := SalesMode(instructions)
	if page == nil {
		page = &models.PageExtraction{}
	}

	if priceIntent.MatchString(message) {
		if page.Price == "" {
			return noPriceMessage
		}
		if sales {
			return "O preço é " + page.Price + ". Quer garantir sua vaga agora?"
		}
		return "Preço: " + page.Price
	}

	if mechanismIntent.MatchString(message) {
		src := page.Summary
		if src == "" {
			src = page.Description
		}
		if src != "" {
			short := textutil.ClampSentences(src, localSummarySentences)
			if sales {
				return short + " Quer saber mais detalhes?"
			}
			return short
		}
	}

	if bonusIntent.MatchString(message) {
		if len(page.BonusesDetected) == 0 {
			return noBonusMessage
		}
		b := page.BonusesDetected
		if len(b) > localMaxBonuses {
			b = b[:localMaxBonuses]
		}
		joined := strings.Join(b, ", ")
		if sales {
			return "Inclui: " + joined + ". Quer garantir todos os bônus?"
		}
		return "Bônus: " + joined
	}

	if page.Summary != "" {
		short := textutil.ClampSentences(page.Summary, localSummarySentences)
		if sales {
			return short + " Posso te ajudar com mais alguma dúvida?"
		}
		return short
	}

	return NotFoundMessage
}
