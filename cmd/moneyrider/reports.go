package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"moneyrider/internal/core"
)

// rangeCmd sums the recorded days between two dates.
type rangeCmd struct {
	start string
	end   string
}

func (*rangeCmd) Name() string     { return "range" }
func (*rangeCmd) Synopsis() string { return "total income and expenses over a date range" }
func (*rangeCmd) Usage() string {
	return `moneyrider range -s <date> [-e <date>]

  Sums every recorded day from -s to -e, both included.
`
}

func (c *rangeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "first day in YYYY-MM-DD format")
	f.StringVar(&c.end, "e", "", "last day in YYYY-MM-DD format (default today)")
}

func (c *rangeCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	start, err := core.ParseDateKey(c.start)
	if err != nil {
		return fail(err)
	}
	end, err := dateFlag(c.end)
	if err != nil {
		return fail(err)
	}

	app, err := env.signIn(ctx)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)

	sum, err := app.Session.RangeTotals(ctx, start, end)
	if err != nil {
		return fail(err)
	}
	f, err := newFormatter(env.cfg.DisplayCurrency)
	if err != nil {
		return fail(err)
	}
	fmt.Fprint(env.out, f.Range(sum))
	return subcommands.ExitSuccess
}

// auditCmd checks every stored ledger for stale totals.
type auditCmd struct{}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "check stored totals against their line items" }
func (*auditCmd) Usage() string {
	return `moneyrider audit

  Loads the ledger of every account and reports days whose stored totals
  differ from the sum of their lines. Nothing is modified.
`
}

func (*auditCmd) SetFlags(*flag.FlagSet) {}

func (*auditCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	app, err := env.open(ctx)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)

	report, err := app.Auditor.Audit(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(env.out, "%d accounts, %d days checked\n", report.Users, report.Days)
	for _, f := range report.Unreadable {
		fmt.Fprintf(env.out, "unreadable: %s\n", f)
	}
	for _, f := range report.Inconsistent {
		fmt.Fprintf(env.out, "inconsistent: %s\n", f)
	}
	if !report.OK() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
