package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"moneyrider/internal/buffer"
	"moneyrider/internal/cli"
	"moneyrider/internal/core"
)

// selectDay signs in and selects the day given by -d.
func selectDay(ctx context.Context, env *environment, day string) (*cli.App, error) {
	date, err := dateFlag(day)
	if err != nil {
		return nil, err
	}
	app, err := env.signIn(ctx)
	if err != nil {
		return nil, err
	}
	if err := app.Session.Select(ctx, date); err != nil {
		app.Close(ctx)
		return nil, err
	}
	return app, nil
}

// rowIndex picks the row named by -id, or the -i index when -id is unset.
func rowIndex(app *cli.App, kind core.Kind, index int, id string) (int, error) {
	if id == "" {
		return index, nil
	}
	rowID, err := uuid.Parse(id)
	if err != nil {
		return buffer.NoIndex, fmt.Errorf("%w: row id %q: %v", core.ErrInvalidInput, id, err)
	}
	return app.Session.IndexOf(kind, rowID)
}

// addIncomeCmd appends an income source to a day.
type addIncomeCmd struct {
	date   string
	label  string
	amount string
}

func (*addIncomeCmd) Name() string     { return "add-income" }
func (*addIncomeCmd) Synopsis() string { return "add an income source to a day" }
func (*addIncomeCmd) Usage() string {
	return `moneyrider add-income [-d <date>] -label <label> -amount <amount>

  Appends an income source to the day and saves the ledger.
`
}

func (c *addIncomeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "day in YYYY-MM-DD format (default today)")
	f.StringVar(&c.label, "label", "", "income source label")
	f.StringVar(&c.amount, "amount", "", "amount earned")
}

func (c *addIncomeCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	app, err := selectDay(ctx, env, c.date)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)

	if err := app.Session.AddIncome(ctx, c.label, c.amount); err != nil {
		return fail(err)
	}
	return printDay(env, app)
}

// addExpenseCmd appends a categorized expense to a day.
type addExpenseCmd struct {
	date     string
	category string
	custom   string
	amount   string
}

func (*addExpenseCmd) Name() string     { return "add-expense" }
func (*addExpenseCmd) Synopsis() string { return "add an expense to a day" }
func (*addExpenseCmd) Usage() string {
	return `moneyrider add-expense [-d <date>] -category <category> [-custom <label>] -amount <amount>

  Appends an expense to the day and saves the ledger. Categories are
  ` + strings.Join(core.ExpenseCategories(), ", ") + `; Other takes its label from -custom.
`
}

func (c *addExpenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "day in YYYY-MM-DD format (default today)")
	f.StringVar(&c.category, "category", core.CategoryFood, "expense category")
	f.StringVar(&c.custom, "custom", "", "label used when -category is Other")
	f.StringVar(&c.amount, "amount", "", "amount spent")
}

func (c *addExpenseCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	app, err := selectDay(ctx, env, c.date)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)

	if err := app.Session.AddCategorizedExpense(ctx, c.category, c.custom, c.amount); err != nil {
		return fail(err)
	}
	return printDay(env, app)
}

// editIncomeCmd replaces one income source.
type editIncomeCmd struct {
	date   string
	index  int
	id     string
	label  string
	amount string
}

func (*editIncomeCmd) Name() string     { return "edit-income" }
func (*editIncomeCmd) Synopsis() string { return "replace an income source of a day" }
func (*editIncomeCmd) Usage() string {
	return `moneyrider edit-income [-d <date>] (-i <index> | -id <row id>) -label <label> -amount <amount>

  Replaces the income source at the index or with the row id shown by the
  day command.
`
}

func (c *editIncomeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "day in YYYY-MM-DD format (default today)")
	f.IntVar(&c.index, "i", buffer.NoIndex, "index of the income source")
	f.StringVar(&c.id, "id", "", "row id of the income source, instead of -i")
	f.StringVar(&c.label, "label", "", "new label")
	f.StringVar(&c.amount, "amount", "", "new amount")
}

func (c *editIncomeCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	app, err := selectDay(ctx, env, c.date)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)

	index, err := rowIndex(app, core.KindIncome, c.index, c.id)
	if err != nil {
		return fail(err)
	}
	if err := app.Session.EditIncome(ctx, index, c.label, c.amount); err != nil {
		return fail(err)
	}
	return printDay(env, app)
}

// editExpenseCmd replaces one expense.
type editExpenseCmd struct {
	date     string
	index    int
	id       string
	category string
	custom   string
	amount   string
}

func (*editExpenseCmd) Name() string     { return "edit-expense" }
func (*editExpenseCmd) Synopsis() string { return "replace an expense of a day" }
func (*editExpenseCmd) Usage() string {
	return `moneyrider edit-expense [-d <date>] (-i <index> | -id <row id>) [-category <category>] [-custom <label>] -amount <amount>

  Replaces the expense at the index or with the row id shown by the day
  command. Without -category the expense keeps its label, unless -custom
  gives a new one.
`
}

func (c *editExpenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "day in YYYY-MM-DD format (default today)")
	f.IntVar(&c.index, "i", buffer.NoIndex, "index of the expense")
	f.StringVar(&c.id, "id", "", "row id of the expense, instead of -i")
	f.StringVar(&c.category, "category", "", "expense category (default keep the current one)")
	f.StringVar(&c.custom, "custom", "", "label used when -category is Other")
	f.StringVar(&c.amount, "amount", "", "new amount")
}

func (c *editExpenseCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	app, err := selectDay(ctx, env, c.date)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)

	index, err := rowIndex(app, core.KindExpense, c.index, c.id)
	if err != nil {
		return fail(err)
	}
	if err := app.Session.EditCategorizedExpense(ctx, index, c.category, c.custom, c.amount); err != nil {
		return fail(err)
	}
	return printDay(env, app)
}

// deleteCmd removes one line item of either kind.
type deleteCmd struct {
	kind  core.Kind
	date  string
	index int
	id    string
}

func (c *deleteCmd) Name() string     { return "delete-" + c.kind.String() }
func (c *deleteCmd) Synopsis() string { return "remove an " + c.kind.String() + " line of a day" }
func (c *deleteCmd) Usage() string {
	return fmt.Sprintf(`moneyrider %s [-d <date>] (-i <index> | -id <row id>)

  Removes the %s line at the index or with the row id shown by the day
  command.
`, c.Name(), c.kind)
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "day in YYYY-MM-DD format (default today)")
	f.IntVar(&c.index, "i", buffer.NoIndex, "index of the line to remove")
	f.StringVar(&c.id, "id", "", "row id of the line to remove, instead of -i")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	app, err := selectDay(ctx, env, c.date)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)

	index, err := rowIndex(app, c.kind, c.index, c.id)
	if err != nil {
		return fail(err)
	}
	if c.kind == core.KindExpense {
		err = app.Session.DeleteExpense(ctx, index)
	} else {
		err = app.Session.DeleteIncome(ctx, index)
	}
	if err != nil {
		return fail(err)
	}
	return printDay(env, app)
}

// dayCmd prints the lines and totals of a day.
type dayCmd struct {
	date string
}

func (*dayCmd) Name() string     { return "day" }
func (*dayCmd) Synopsis() string { return "show the income and expenses of a day" }
func (*dayCmd) Usage() string {
	return `moneyrider day [-d <date>]

  Lists the income sources and expenses of the day with their indexes,
  followed by the day totals.
`
}

func (c *dayCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "day in YYYY-MM-DD format (default today)")
}

func (c *dayCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	app, err := selectDay(ctx, env, c.date)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)
	return printDay(env, app)
}

func printDay(env *environment, app *cli.App) subcommands.ExitStatus {
	date, err := app.Session.SelectedDate()
	if err != nil {
		return fail(err)
	}
	income, err := app.Session.Items(core.KindIncome)
	if err != nil {
		return fail(err)
	}
	expenses, err := app.Session.Items(core.KindExpense)
	if err != nil {
		return fail(err)
	}
	totals, err := app.Session.DayTotals(date)
	if err != nil {
		return fail(err)
	}
	f, err := newFormatter(env.cfg.DisplayCurrency)
	if err != nil {
		return fail(err)
	}
	fmt.Fprint(env.out, f.Day(date, income, expenses, totals))
	return subcommands.ExitSuccess
}
