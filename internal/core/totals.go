package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Totals is the income and expense sum of one day.
type Totals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// RangeSummary aggregates every recorded day of an inclusive date range.
type RangeSummary struct {
	Start, End DateKey
	Income     decimal.Decimal
	Expenses   decimal.Decimal
	// Days counts the DayRecords inside the range, zeroed ones included.
	Days int
}

// Net returns income minus expenses.
func (t Totals) Net() decimal.Decimal { return t.Income.Sub(t.Expenses) }

func (t Totals) String() string {
	return fmt.Sprintf("income=%s expenses=%s net=%s", t.Income, t.Expenses, t.Net())
}

// Net returns income minus expenses.
func (s RangeSummary) Net() decimal.Decimal { return s.Income.Sub(s.Expenses) }

// Totals drops the day count.
func (s RangeSummary) Totals() Totals { return Totals{Income: s.Income, Expenses: s.Expenses} }

func (s RangeSummary) String() string {
	return fmt.Sprintf("%s..%s income=%s expenses=%s net=%s days=%d",
		s.Start, s.End, s.Income, s.Expenses, s.Net(), s.Days)
}

// DayTotals reads the cached totals of a record.
func DayTotals(r DayRecord) Totals {
	return Totals{Income: r.Income, Expenses: r.Expenses}
}

// RangeTotals sums the cached totals of every record whose date lies in
// [start, end]. Dates compare as strings, which is chronological because
// DateKey is fixed width.
func RangeTotals(l Ledger, start, end DateKey) (RangeSummary, error) {
	if start > end {
		return RangeSummary{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	sum := RangeSummary{Start: start, End: end, Income: decimal.Zero, Expenses: decimal.Zero}
	for date, rec := range l {
		if !date.Between(start, end) {
			continue
		}
		sum.Income = sum.Income.Add(rec.Income)
		sum.Expenses = sum.Expenses.Add(rec.Expenses)
		sum.Days++
	}
	return sum, nil
}
