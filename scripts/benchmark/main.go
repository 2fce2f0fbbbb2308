// Command benchmark measures extraction latency against a running pagechat
// server. The first run of each URL is cold; later runs should be cache hits.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/use-agent/pagechat/client"
)

var (
	apiURL = flag.String("api-url", "http://localhost:3000", "pagechat API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "number of runs per URL")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering static pages, docs and script-heavy sites.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"News", "https://www.bbc.com/news"},
	{"Complex", "https://github.com/go-rod/rod"},
}

type runResult struct {
	Run          int    `json:"run"`
	WallMs       int64  `json:"wall_ms"`
	ExtractionMs int64  `json:"extraction_ms"`
	Method       string `json:"method"`
	TextLength   int    `json:"text_length"`
	Prices       int    `json:"prices"`
	Bonuses      int    `json:"bonuses"`
	HasTitle     bool   `json:"has_title"`
	Error        string `json:"error,omitempty"`
}

type urlResult struct {
	URL   string      `json:"url"`
	Label string      `json:"label"`
	Runs  []runResult `json:"runs"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	c := client.New(*apiURL, *apiKey, nil)
	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	for _, tu := range testURLs {
		res := urlResult{URL: tu.URL, Label: tu.Label}
		for i := 1; i <= *runs; i++ {
			res.Runs = append(res.Runs, runOnce(c, tu.URL, i))
		}
		report.Results = append(report.Results, res)
	}

	printTable(report)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal report: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *output, err)
		os.Exit(1)
	}
	fmt.Printf("\nresults written to %s\n", *output)
}

func runOnce(c *client.Client, url string, run int) runResult {
	ctx, cancel := context.WithTimeout(context.Background(), client.DefaultTimeout)
	defer cancel()

	start := time.Now()
	page, err := c.Extract(ctx, url, "")
	r := runResult{Run: run, WallMs: time.Since(start).Milliseconds()}
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.ExtractionMs = page.ExtractionTime
	r.Method = page.Method
	r.TextLength = len([]rune(page.CleanText))
	r.Prices = len(page.PricesDetected)
	r.Bonuses = len(page.BonusesDetected)
	r.HasTitle = page.Title != ""
	return r
}

func printTable(report benchmarkReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tRUN\tWALL\tEXTRACT\tMETHOD\tTEXT\tPRICES\tBONUSES\tTITLE\tERROR")
	for _, res := range report.Results {
		for _, r := range res.Runs {
			fmt.Fprintf(w, "%s\t%d\t%dms\t%dms\t%s\t%d\t%d\t%d\t%v\t%s\n",
				res.Label, r.Run, r.WallMs, r.ExtractionMs, r.Method,
				r.TextLength, r.Prices, r.Bonuses, r.HasTitle, r.Error)
		}
	}
	w.Flush()
}
