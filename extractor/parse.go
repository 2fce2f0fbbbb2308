package extractor

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"github.com/use-agent/pagechat/models"
	"github.com/use-agent/pagechat/signals"
	"github.com/use-agent/pagechat/textutil"
)

// Length bounds (exclusive, in runes).
const (
	minTitleLen      = 5
	maxTitleLen      = 200
	minDescLen       = 50
	maxDescLen       = 1000
	minBlockLen      = 15
	maxBlockLen      = 1000
	minMetaPrefixLen = 20

	// minParseableHTML is the HTML length at or below which Tier 1 output
	// is not worth parsing.
	minParseableHTML = 100

	summarySentences = 3
	summaryMaxRunes  = 400
)

type candidate struct {
	sel  cascadia.Selector
	attr string // read this attribute instead of the element text
}

func mustCandidates(specs ...[2]string) []candidate {
	out := make([]candidate, len(specs))
	for i, s := range specs {
		out[i] = candidate{sel: cascadia.MustCompile(s[0]), attr: s[1]}
	}
	return out
}

var (
	titleCandidates = mustCandidates(
		[2]string{"h1", ""},
		[2]string{`meta[property="og:title"]`, "content"},
		[2]string{`meta[name="twitter:title"]`, "content"},
		[2]string{"title", ""},
	)

	descriptionCandidates = mustCandidates(
		[2]string{`meta[name="description"]`, "content"},
		[2]string{`meta[property="og:description"]`, "content"},
		[2]string{".description", ""},
		[2]string{"article p", ""},
		[2]string{"main p", ""},
	)

	metaDescription = mustCandidates(
		[2]string{`meta[name="description"]`, "content"},
		[2]string{`meta[property="og:description"]`, "content"},
	)

	scriptNodes = cascadia.MustCompile("script, style, noscript, iframe")
	chromeNodes = cascadia.MustCompile("nav, footer, aside")
	blockNodes  = cascadia.MustCompile("h1, h2, h3, p, li, span, div")
	bodyNode    = cascadia.MustCompile("body")
)

// draft is the intermediate result of one extraction tier.
type draft struct {
	title       string
	description string
	body        string
	summary     string
	prices      []string
	bonuses     []string
}

// parseHTML runs the Tier 1 parse over rawHTML. It returns whatever it
// managed to collect; partial drafts are normal.
func parseHTML(rawHTML, pageURL string) (*draft, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return &draft{prices: []string{}, bonuses: []string{}},
			models.NewPageError(models.ErrCodeParse, "failed to parse HTML", err)
	}

	doc.FindMatcher(scriptNodes).Remove()

	d := &draft{
		title:       firstCandidate(doc, titleCandidates, minTitleLen, maxTitleLen),
		description: firstCandidate(doc, descriptionCandidates, minDescLen, maxDescLen),
	}
	if d.description == "" {
		d.description = readabilityExcerpt(rawHTML, pageURL)
	}

	meta := firstCandidate(doc, metaDescription, 0, 1<<30)

	// Signals scan the whole body, page chrome included.
	bodyText := doc.FindMatcher(bodyNode).Text()
	d.prices = capList(signals.DetectPrices(bodyText), models.MaxPricesStored)
	d.bonuses = capList(signals.DetectBonuses(bodyText), models.MaxBonusesStored)

	doc.FindMatcher(chromeNodes).Remove()

	var lines []string
	if textutil.RuneLen(meta) > minMetaPrefixLen {
		lines = append(lines, meta)
	}
	doc.FindMatcher(blockNodes).Each(func(_ int, s *goquery.Selection) {
		text := textutil.Normalize(s.Text())
		if textutil.Between(text, minBlockLen, maxBlockLen) {
			lines = append(lines, text)
		}
	})
	d.body = textutil.DedupLines(strings.Join(lines, "\n"))
	d.summary = summarize(d.body)

	return d, nil
}

// renderedDraft builds a draft from the text of a rendered DOM.
func renderedDraft(text, title, description string) *draft {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if n := textutil.Normalize(l); n != "" {
			lines = append(lines, n)
		}
	}
	body := textutil.DedupLines(strings.Join(lines, "\n"))

	d := &draft{
		body:    body,
		summary: summarize(body),
		prices:  capList(signals.DetectPrices(text), models.MaxPricesStored),
		bonuses: capList(signals.DetectBonuses(text), models.MaxBonusesStored),
	}
	if t := textutil.Normalize(title); textutil.Between(t, minTitleLen, maxTitleLen) {
		d.title = t
	}
	if desc := textutil.Normalize(description); textutil.Between(desc, minDescLen, maxDescLen) {
		d.description = desc
	}
	return d
}

// firstCandidate returns the first element value in table order whose
// normalized length is strictly between lo and hi.
func firstCandidate(doc *goquery.Document, table []candidate, lo, hi int) string {
	for _, c := range table {
		s := doc.FindMatcher(c.sel).First()
		if s.Length() == 0 {
			continue
		}
		var v string
		if c.attr != "" {
			v = s.AttrOr(c.attr, "")
		} else {
			v = s.Text()
		}
		v = textutil.Normalize(v)
		if textutil.Between(v, lo, hi) {
			return v
		}
	}
	return ""
}

// readabilityExcerpt is the last description candidate.
func readabilityExcerpt(rawHTML, pageURL string) string {
	u, err := nurl.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		slog.Debug("readability: excerpt unavailable", "url", pageURL, "error", err)
		return ""
	}
	excerpt := textutil.Normalize(article.Excerpt)
	if textutil.Between(excerpt, minDescLen, maxDescLen) {
		return excerpt
	}
	return ""
}

func summarize(body string) string {
	return textutil.Summarize(textutil.Normalize(body), summarySentences, summaryMaxRunes)
}

func capList(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	if in == nil {
		return []string{}
	}
	return in
}
