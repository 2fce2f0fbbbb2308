// Package cmdline holds the actions behind the pagechat command-line tool.
// They run the extraction and reply pipeline in-process, without a server.
package cmdline

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/use-agent/pagechat/app"
	"github.com/use-agent/pagechat/chat"
	"github.com/use-agent/pagechat/config"
	"github.com/use-agent/pagechat/models"
)

// Flags shared by every command.
var CommonFlags = []cli.Flag{
	&cli.StringFlag{Name: "config", Usage: "YAML config file", EnvVars: []string{config.ConfigFileEnv}},
	&cli.BoolFlag{Name: "render", Usage: "allow the headless browser fallback", Value: true},
	&cli.BoolFlag{Name: "json", Usage: "print the full result as JSON"},
	&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
}

// ExtractFlags are the flags of the extract command.
var ExtractFlags = append([]cli.Flag{
	&cli.StringFlag{Name: "instructions", Usage: "custom instructions stored with the extraction"},
}, CommonFlags...)

// AskFlags are the flags of the ask command.
var AskFlags = append([]cli.Flag{
	&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "page the question is about"},
	&cli.StringFlag{Name: "instructions", Usage: "extra instructions for the assistant"},
}, CommonFlags...)

// askResult is the JSON shape printed by ask --json.
type askResult struct {
	Response string                 `json:"response"`
	Provider string                 `json:"provider"`
	Attempts []chat.Attempt         `json:"attempts"`
	Page     *models.PageExtraction `json:"page,omitempty"`
}

// ExtractAction extracts the page given as the first argument.
func ExtractAction(c *cli.Context) error {
	target := c.Args().First()
	if !isHTTPURL(target) {
		return cli.Exit("extract: an http(s) URL argument is required", 1)
	}

	a, err := buildApp(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer a.Close()

	page := a.Coordinator.Extract(c.Context, target)
	if instr := c.String("instructions"); instr != "" {
		cp := *page
		cp.CustomInstructions = instr
		page = &cp
	}

	if c.Bool("json") {
		if err := writeJSON(c.App.Writer, page); err != nil {
			return err
		}
	} else {
		printPage(c.App.Writer, page)
	}

	if page.Method == models.MethodFailed {
		return cli.Exit(fmt.Sprintf("extract: could not extract %s", target), 1)
	}
	return nil
}

// AskAction answers the question formed by the arguments, optionally about
// the page given with --url.
func AskAction(c *cli.Context) error {
	message := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if message == "" {
		return cli.Exit("ask: a question is required", 1)
	}
	target := c.String("url")
	if target != "" && !isHTTPURL(target) {
		return cli.Exit("ask: --url must be an http(s) URL", 1)
	}

	a, err := buildApp(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer a.Close()

	var page *models.PageExtraction
	if target != "" {
		page = a.Coordinator.Extract(c.Context, target)
	}

	reply := a.Orchestrator.Reply(c.Context, chat.Turn{
		Message:      message,
		Page:         page,
		Instructions: c.String("instructions"),
	})

	if c.Bool("json") {
		return writeJSON(c.App.Writer, askResult{
			Response: reply.Text,
			Provider: reply.Provider,
			Attempts: reply.Attempts,
			Page:     page,
		})
	}
	fmt.Fprintln(c.App.Writer, reply.Text)
	return nil
}

func buildApp(c *cli.Context) (*app.App, error) {
	cfg, err := config.LoadFrom(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("render") {
		cfg.Browser.Enabled = c.Bool("render")
	}
	if c.Bool("quiet") {
		cfg.Log.Level = "error"
	}
	app.InitLogger(cfg.Log, c.App.ErrWriter)
	return app.Build(cfg), nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printPage(w io.Writer, p *models.PageExtraction) {
	fmt.Fprintf(w, "URL:         %s\n", p.URL)
	fmt.Fprintf(w, "Method:      %s (%s)\n", p.Method, time.Duration(p.ExtractionTime)*time.Millisecond)
	fmt.Fprintf(w, "Title:       %s\n", p.Title)
	fmt.Fprintf(w, "Description: %s\n", p.Description)
	if len(p.PricesDetected) > 0 {
		fmt.Fprintf(w, "Prices:      %s\n", strings.Join(p.PricesDetected, ", "))
	}
	for _, b := range p.BonusesDetected {
		fmt.Fprintf(w, "Bonus:       %s\n", b)
	}
	if p.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", p.Summary)
	}
}
