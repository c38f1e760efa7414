package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(label, amount string) LineItem { return LineItem{Label: label, Amount: dec(amount)} }

func sampleLedger() Ledger {
	return Ledger{
		"2024-02-29": NewDayRecord([]LineItem{item("Salary", "1000")}, []LineItem{item("Gas", "40")}),
		"2024-03-01": NewDayRecord([]LineItem{item("Freelance", "500")}, []LineItem{item("Food", "120.5")}),
		"2024-03-15": NewDayRecord(nil, []LineItem{item("Maintenance", "75.25")}),
		"2024-03-31": NewDayRecord(nil, nil),
		"2024-04-01": NewDayRecord([]LineItem{item("Tips", "10")}, nil),
	}
}

func TestDayTotals(t *testing.T) {
	got := DayTotals(sampleLedger()["2024-03-01"])
	if !got.Income.Equal(dec("500")) || !got.Expenses.Equal(dec("120.5")) || !got.Net().Equal(dec("379.5")) {
		t.Fatalf("unexpected totals %s", got)
	}
}

func TestRangeTotals(t *testing.T) {
	cases := []struct {
		name                  string
		start, end            DateKey
		income, expenses, net string
		days                  int
	}{
		{"march", "2024-03-01", "2024-03-31", "500", "195.75", "304.25", 3},
		{"leap day only", "2024-02-29", "2024-02-29", "1000", "40", "960", 1},
		{"everything", "2000-01-01", "2099-12-31", "1510", "235.75", "1274.25", 5},
		{"empty window", "2024-03-02", "2024-03-14", "0", "0", "0", 0},
		{"impossible date bound", "2024-02-30", "2024-02-31", "0", "0", "0", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RangeTotals(sampleLedger(), tc.start, tc.end)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Income.Equal(dec(tc.income)) || !got.Expenses.Equal(dec(tc.expenses)) ||
				!got.Net().Equal(dec(tc.net)) || got.Days != tc.days {
				t.Fatalf("got %s, want income=%s expenses=%s net=%s days=%d",
					got, tc.income, tc.expenses, tc.net, tc.days)
			}
		})
	}
}

func TestRangeTotalsInvalidRange(t *testing.T) {
	got, err := RangeTotals(sampleLedger(), "2024-03-31", "2024-03-01")
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if got.Days != 0 || !got.Totals().Net().IsZero() {
		t.Fatalf("no aggregation expected, got %s", got)
	}
}

func TestRangeTotalsSingleDayMatchesDayTotals(t *testing.T) {
	l := sampleLedger()
	for _, d := range []DateKey{"2024-02-29", "2024-03-01", "2024-03-15", "2024-03-31", "2024-03-02"} {
		got, err := RangeTotals(l, d, d)
		if err != nil {
			t.Fatalf("%s: %v", d, err)
		}
		rec, ok := l[d]
		if !ok {
			if got.Days != 0 || !got.Income.IsZero() || !got.Expenses.IsZero() || !got.Net().IsZero() {
				t.Fatalf("%s: expected (0,0,0,0), got %s", d, got)
			}
			continue
		}
		want := DayTotals(rec)
		if got.Days != 1 || !got.Income.Equal(want.Income) || !got.Expenses.Equal(want.Expenses) || !got.Net().Equal(want.Net()) {
			t.Fatalf("%s: range %s differs from day %s", d, got, want)
		}
	}
}

func TestRangeTotalsIndependentOfInsertionOrder(t *testing.T) {
	src := sampleLedger()
	dates := src.Dates()

	forward := Ledger{}
	for _, d := range dates {
		forward[d] = src[d]
	}
	backward := Ledger{}
	for i := len(dates) - 1; i >= 0; i-- {
		backward[dates[i]] = src[dates[i]]
	}

	a, _ := RangeTotals(forward, "2024-01-01", "2024-12-31")
	b, _ := RangeTotals(backward, "2024-01-01", "2024-12-31")
	if !a.Income.Equal(b.Income) || !a.Expenses.Equal(b.Expenses) || a.Days != b.Days {
		t.Fatalf("order dependent result: %s vs %s", a, b)
	}
}

func TestRangeTotalsEmptyLedger(t *testing.T) {
	got, err := RangeTotals(nil, "2024-01-01", "2024-01-31")
	if err != nil || got.Days != 0 || !got.Income.IsZero() {
		t.Fatalf("unexpected %s err=%v", got, err)
	}
}
