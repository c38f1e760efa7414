package main

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"moneyrider/internal/buffer"
	"moneyrider/internal/core"
)

// formatter renders amounts in a display currency. The ledger itself has no
// currency; it only affects how amounts are printed.
type formatter struct {
	cur *money.Currency
}

func newFormatter(code string) (formatter, error) {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return formatter{}, fmt.Errorf("%w: unknown currency %q", core.ErrInvalidInput, code)
	}
	return formatter{cur: cur}, nil
}

// Amount rounds to the currency's minor unit and formats with its symbol.
func (f formatter) Amount(d decimal.Decimal) string {
	minor := d.Round(int32(f.cur.Fraction)).Shift(int32(f.cur.Fraction))
	return f.cur.Formatter().Format(minor.IntPart())
}

// Day renders both lists with their indexes and row IDs followed by the
// totals.
func (f formatter) Day(date core.DateKey, income, expenses []buffer.Item, totals core.Totals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", date)
	f.section(&b, "Income", income, func(label string) string { return label })
	f.section(&b, "Expenses", expenses, expenseLabel)
	fmt.Fprintf(&b, "Total income:   %s\n", f.Amount(totals.Income))
	fmt.Fprintf(&b, "Total expenses: %s\n", f.Amount(totals.Expenses))
	fmt.Fprintf(&b, "Net:            %s\n", f.Amount(totals.Net()))
	return b.String()
}

func (f formatter) section(b *strings.Builder, title string, items []buffer.Item, label func(string) string) {
	fmt.Fprintf(b, "%s:\n", title)
	if len(items) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for i, it := range items {
		fmt.Fprintf(b, "  [%d] %s: %s  id=%s\n", i, label(it.Label), f.Amount(it.Amount), it.ID)
	}
}

// expenseLabel shows custom labels under CategoryOther.
func expenseLabel(label string) string {
	category, custom := core.SplitExpenseLabel(label)
	if custom == "" {
		return category
	}
	return fmt.Sprintf("%s (%s)", category, custom)
}

// Range renders a range summary.
func (f formatter) Range(sum core.RangeSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s to %s (%d recorded days)\n", sum.Start, sum.End, sum.Days)
	fmt.Fprintf(&b, "Total income:   %s\n", f.Amount(sum.Income))
	fmt.Fprintf(&b, "Total expenses: %s\n", f.Amount(sum.Expenses))
	fmt.Fprintf(&b, "Net:            %s\n", f.Amount(sum.Net()))
	return b.String()
}
