package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"moneyrider/internal/cli"
	"moneyrider/internal/config"
	"moneyrider/internal/core"
	"moneyrider/internal/log"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&registerCmd{}, "account")
	c.Register(&loginCmd{}, "account")

	c.Register(&addIncomeCmd{}, "day")
	c.Register(&addExpenseCmd{}, "day")
	c.Register(&editIncomeCmd{}, "day")
	c.Register(&editExpenseCmd{}, "day")
	c.Register(&deleteCmd{kind: core.KindIncome}, "day")
	c.Register(&deleteCmd{kind: core.KindExpense}, "day")
	c.Register(&dayCmd{}, "day")

	c.Register(&rangeCmd{}, "reports")
	c.Register(&auditCmd{}, "reports")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var userFlag = flag.String("user", "", "Username to act as")
var passwordFlag = flag.String("password", "", "Password of -user (defaults to $MONEYRIDER_PASSWORD)")

func password() string {
	if *passwordFlag != "" {
		return *passwordFlag
	}
	return os.Getenv("MONEYRIDER_PASSWORD")
}

// environment is passed to every command through Execute's args.
type environment struct {
	cfg    *config.Config
	logger *log.Logger
	out    io.Writer
}

func envFrom(args []interface{}) *environment {
	for _, a := range args {
		if env, ok := a.(*environment); ok {
			return env
		}
	}
	return &environment{cfg: config.Load(), logger: log.Discard(), out: os.Stdout}
}

// open wires the core for one command.
func (e *environment) open(ctx context.Context) (*cli.App, error) {
	return cli.NewApp(ctx, e.logger, e.cfg)
}

// signIn opens the core and signs in with the global credentials.
func (e *environment) signIn(ctx context.Context) (*cli.App, error) {
	if *userFlag == "" {
		return nil, fmt.Errorf("%w: -user is required", core.ErrInvalidInput)
	}
	app, err := e.open(ctx)
	if err != nil {
		return nil, err
	}
	if err := app.Session.SignIn(ctx, *userFlag, password()); err != nil {
		app.Close(ctx)
		return nil, err
	}
	return app, nil
}

// fail prints err and maps it to an exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "moneyrider:", describe(err))
	if errors.Is(err, core.ErrInvalidInput) || errors.Is(err, core.ErrNoSelection) || errors.Is(err, core.ErrInvalidRange) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// describe turns the core errors into messages for a person at a terminal.
func describe(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, core.ErrDuplicateUsername):
		return "username already exists"
	case errors.Is(err, core.ErrNoSelection):
		return "select an item with -i (see the day command for indexes): " + err.Error()
	default:
		return err.Error()
	}
}

// dateFlag parses a -d value, defaulting to today.
func dateFlag(s string) (core.DateKey, error) {
	if s == "" {
		return core.Today(), nil
	}
	return core.ParseDateKey(s)
}
