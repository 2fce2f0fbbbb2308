package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/use-agent/pagechat/internal/cmdline"
)

func main() {
	app := &cli.App{
		Name:  "pagechat",
		Usage: "extract web pages and ask questions about them",
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "extract title, description, prices and bonuses from a page",
				ArgsUsage: "URL",
				Flags:     cmdline.ExtractFlags,
				Action:    cmdline.ExtractAction,
			},
			{
				Name:      "ask",
				Usage:     "answer a question, optionally about a page",
				ArgsUsage: "QUESTION...",
				Flags:     cmdline.AskFlags,
				Action:    cmdline.AskAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
