package chat

import (
	"fmt"
	"regexp"
)

// salesTriggers switch replies to the consultative sales tone.
var salesTriggers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sales_mode:on`),
	regexp.MustCompile(`(?i)consultivo`),
	regexp.MustCompile(`(?i)vendas?`),
	regexp.MustCompile(`(?i)cta`),
	regexp.MustCompile(`(?i)sempre.*link`),
	regexp.MustCompile(`(?i)finalize.*cta`),
}

// linkIntent matches a request for the page link as a whole word. The
// boundaries are spelled out because \b is ASCII-only and "página" must not
// match inside longer words.
var linkIntent = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(?:link|página|site|comprar|inscrever)(?:[^\p{L}\p{N}_]|$)`)

// SalesMode reports whether instructions ask for the sales tone.
func SalesMode(instructions string) bool {
	if instructions == "" {
		return false
	}
	for _, re := range salesTriggers {
		if re.MatchString(instructions) {
			return true
		}
	}
	return false
}

// LinkIntent reports whether message asks for the page link.
func LinkIntent(message string) bool {
	return linkIntent.MatchString(message)
}

// LinkReply is the canned answer to a link request.
func LinkReply(url string, sales bool) string {
	if sales {
		return fmt.Sprintf("Aqui está o link oficial: %s\n\nQuer que eu te ajude com mais alguma informação sobre o produto?", url)
	}
	return "Aqui está o link: " + url
}
