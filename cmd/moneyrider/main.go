// Command moneyrider records daily income and expenses per user and reports
// day and date-range totals.
package main

import (
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"moneyrider/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	Register(commander)

	flag.Parse()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	env := &environment{cfg: cfg, logger: logger, out: os.Stdout}
	status := commander.Execute(ctx, env)
	cancel()
	os.Exit(int(status))
}
