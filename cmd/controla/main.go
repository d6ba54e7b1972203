package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/controla/internal/app"
	"github.com/controla/internal/cli"
	"github.com/controla/internal/config"
	"github.com/controla/internal/logger"
)

func main() {
	var root cli.CLI
	kctx := kong.Parse(&root,
		kong.Name("controla"),
		kong.Description("Track daily habits and dated reminders."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorText(err))
		os.Exit(1)
	}

	// stdout 留给命令输出
	output := cfg.LogOutput
	if output == "" || output == "stdout" {
		output = "stderr"
	}
	logger.Init(logger.Config{Level: root.LogLevel, Format: "console", Output: output})
	defer logger.Sync()

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorText(err))
		os.Exit(1)
	}

	err = kctx.Run(cli.NewContext(application))
	application.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorText(err))
		os.Exit(1)
	}
}
