package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/pagechat/client"
	"github.com/use-agent/pagechat/models"
)

func main() {
	apiURL := os.Getenv("PAGECHAT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:3000"
	}
	c := client.New(apiURL, os.Getenv("PAGECHAT_API_KEY"), nil)

	s := server.NewMCPServer(
		"pagechat",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	extractTool := mcp.NewTool("extract_page",
		mcp.WithDescription("Fetch a web page and return its title, description, summary, detected prices and bonuses, and cleaned text. Falls back to a headless browser for JavaScript-heavy pages."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The http(s) URL of the page"),
		),
		mcp.WithString("instructions",
			mcp.Description("Custom instructions stored with the extraction"),
		),
	)
	s.AddTool(extractTool, handleExtractPage(c))

	askTool := mcp.NewTool("ask_page",
		mcp.WithDescription("Ask a question about a web page and get a short answer in the page's voice. Answers come from the configured AI providers, or from the page text when none responds."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The visitor's question"),
		),
		mcp.WithString("url",
			mcp.Description("The page the question is about"),
		),
		mcp.WithString("instructions",
			mcp.Description("Extra instructions for the assistant"),
		),
	)
	s.AddTool(askTool, handleAskPage(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleExtractPage(c *client.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		page, err := c.Extract(ctx, url, request.GetString("instructions", ""))
		if err != nil {
			return mcp.NewToolResultError(toolError(err)), nil
		}
		if page.Method == models.MethodFailed {
			return mcp.NewToolResultError(fmt.Sprintf("could not extract %s", page.URL)), nil
		}
		return mcp.NewToolResultText(formatPage(page)), nil
	}
}

func handleAskPage(c *client.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := request.RequireString("message")
		if err != nil {
			return mcp.NewToolResultError("message is required"), nil
		}

		resp, err := c.Chat(ctx, models.ChatRequest{
			Message:      message,
			URL:          request.GetString("url", ""),
			Instructions: request.GetString("instructions", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(toolError(err)), nil
		}

		result := resp.Response
		if resp.Metadata != nil {
			result += fmt.Sprintf("\n\n(provider: %s)", resp.Metadata.Provider)
		}
		return mcp.NewToolResultText(result), nil
	}
}

func toolError(err error) string {
	var pe *models.PageError
	if errors.As(err, &pe) {
		d := pe.ToDetail()
		return fmt.Sprintf("[%s] %s", d.Code, d.Message)
	}
	return err.Error()
}

func formatPage(p *models.PageExtraction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nSource: %s\nMethod: %s\n", p.Title, p.URL, p.Method)
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	if len(p.PricesDetected) > 0 {
		fmt.Fprintf(&b, "Prices: %s\n", strings.Join(p.PricesDetected, ", "))
	}
	if len(p.BonusesDetected) > 0 {
		fmt.Fprintf(&b, "Bonuses: %s\n", strings.Join(p.BonusesDetected, "; "))
	}
	if p.Summary != "" {
		fmt.Fprintf(&b, "\nSummary: %s\n", p.Summary)
	}
	b.WriteString("\n")
	b.WriteString(p.CleanText)
	return b.String()
}
