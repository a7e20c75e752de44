package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	LogLevel string           `short:"l" env:"POKERTABLE_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level"`

	Serve    ServeCmd    `cmd:"" help:"Run the table server"`
	Simulate SimulateCmd `cmd:"" help:"Play bots against each other and report results"`
	CoinCall CoinCallCmd `cmd:"coin-call" help:"Simulate rounds of the coin-call wager"`
}

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokertable"),
		kong.Description("Real-time multi-seat card tables"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	level, err := log.ParseLevel(cli.LogLevel)
	ctx.FatalIfErrorf(err)
	logger.SetLevel(level)

	err = ctx.Run(logger)
	ctx.FatalIfErrorf(err)
}
