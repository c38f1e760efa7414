package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// registerCmd creates an account and its empty ledger.
type registerCmd struct{}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create a new account" }
func (*registerCmd) Usage() string {
	return `moneyrider -user <name> -password <secret> register

  Creates the account and an empty ledger for it. The username must be new.
`
}

func (*registerCmd) SetFlags(*flag.FlagSet) {}

func (*registerCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	app, err := env.open(ctx)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)

	if err := app.Session.Register(ctx, *userFlag, password()); err != nil {
		return fail(err)
	}
	fmt.Fprintf(env.out, "Registered %s\n", *userFlag)
	return subcommands.ExitSuccess
}

// loginCmd checks credentials without changing anything.
type loginCmd struct{}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "check credentials and show the ledger size" }
func (*loginCmd) Usage() string {
	return `moneyrider -user <name> -password <secret> login

  Signs in, prints the number of recorded days and signs out.
`
}

func (*loginCmd) SetFlags(*flag.FlagSet) {}

func (*loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	app, err := env.signIn(ctx)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)

	ledger, err := app.Session.Ledger()
	if err != nil {
		return fail(err)
	}
	user, _ := app.Session.User()
	fmt.Fprintf(env.out, "Signed in as %s, %d recorded days\n", user, len(ledger))
	return subcommands.ExitSuccess
}
