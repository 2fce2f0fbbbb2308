// Package signals detects structured facts (prices, bonus/offer phrases) in
// free page text.
//
// Both detectors are driven by declarative pattern tables. Adding a new
// currency format or offer keyword means adding a row, not touching the scan
// loops.
package signals

import (
	"regexp"
	"strings"

	"github.com/use-agent/pagechat/textutil"
)

// Detector caps.
const (
	MaxPrices  = 10
	MaxBonuses = 5

	minBonusLineLen = 10
	maxBonusLineLen = 200
)

type pricePattern struct {
	name string
	expr string
}

// priceTable is ordered by priority: when two rows could match at the same
// position the earlier row wins, so "R$ 99,00" is reported as BRL rather
// than as a bare "$" amount.
var priceTable = []pricePattern{
	{"brl", `R\$\s?\d{1,3}(?:\.\d{3})*,\d{2}`},
	{"brl-plain", `R\$\s?\d+(?:,\d{2})?`},
	{"iso", `\b(?:USD|EUR|BRL|GBP)\s*\d+(?:[.,]\d+)*`},
	{"symbol", `[$€£]\s*\d+(?:[.,]\d+)*`},
}

type bonusPattern struct {
	category string
	re       *regexp.Regexp
}

var bonusTable = []bonusPattern{
	{"bonus", regexp.MustCompile(`(?i)b[ôo]nus`)},
	{"gift", regexp.MustCompile(`(?i)brinde|presente`)},
	{"free", regexp.MustCompile(`(?i)gr[áa]tis|\bfree\b`)},
	{"extra", regexp.MustCompile(`(?i)extra`)},
	{"material", regexp.MustCompile(`(?i)template|planilha|checklist|e-?book`)},
	{"discount", regexp.MustCompile(`(?i)desconto|cupom`)},
}

var priceRe = compilePriceTable(priceTable)

func compilePriceTable(table []pricePattern) *regexp.Regexp {
	parts := make([]string, len(table))
	for i, p := range table {
		parts[i] = "(?:" + p.expr + ")"
	}
	return regexp.MustCompile("(?i)" + strings.Join(parts, "|"))
}

// DetectPrices returns up to MaxPrices distinct currency-like tokens in the
// order they appear. The surface form is kept as written on the page.
func DetectPrices(text string) []string {
	if text == "" {
		return []string{}
	}
	out := make([]string, 0, 4)
	seen := make(map[string]struct{})
	for _, m := range priceRe.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
		if len(out) >= MaxPrices {
			break
		}
	}
	return out
}

// MatchBonus reports the category of the first bonus pattern matching line.
func MatchBonus(line string) (string, bool) {
	for _, p := range bonusTable {
		if p.re.MatchString(line) {
			return p.category, true
		}
	}
	return "", false
}

// DetectBonuses scans text line by line and returns up to MaxBonuses distinct
// lines that mention an offer keyword and are between 10 and 200 characters.
func DetectBonuses(text string) []string {
	if text == "" {
		return []string{}
	}
	out := make([]string, 0, MaxBonuses)
	seen := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !textutil.Between(line, minBonusLineLen, maxBonusLineLen) {
			continue
		}
		if _, ok := MatchBonus(line); !ok {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
		if len(out) >= MaxBonuses {
			break
		}
	}
	return out
}
