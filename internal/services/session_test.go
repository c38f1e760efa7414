package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"moneyrider/internal/accounts"
	"moneyrider/internal/buffer"
	"moneyrider/internal/core"
	"moneyrider/internal/store/memory"
)

func newTestSession(t *testing.T, opts ...Option) (*Session, *memory.Store) {
	t.Helper()
	s := memory.New()
	dir := accounts.NewDirectory(s, s)
	return NewSession(dir, s, opts...), s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func d(s string) core.DateKey { return core.MustParseDateKey(s) }

func signedIn(t *testing.T, opts ...Option) (*Session, *memory.Store) {
	t.Helper()
	sess, s := newTestSession(t, opts...)
	ctx := context.Background()
	if err := sess.Register(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := sess.SignIn(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return sess, s
}

func TestExampleScenario(t *testing.T) {
	sess, s := signedIn(t)
	ctx := context.Background()

	if err := sess.Select(ctx, d("2024-03-01")); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := sess.AddIncome(ctx, "Freelance", "500.0"); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if err := sess.AddExpense(ctx, "Food", "120.5"); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	day, err := sess.DayTotals(d("2024-03-01"))
	if err != nil {
		t.Fatalf("DayTotals: %v", err)
	}
	if !day.Income.Equal(dec("500")) || !day.Expenses.Equal(dec("120.5")) || !day.Net().Equal(dec("379.5")) {
		t.Errorf("DayTotals = %s", day)
	}

	sum, err := sess.RangeTotals(ctx, d("2024-03-01"), d("2024-03-31"))
	if err != nil {
		t.Fatalf("RangeTotals: %v", err)
	}
	if !sum.Income.Equal(dec("500")) || !sum.Expenses.Equal(dec("120.5")) || !sum.Net().Equal(dec("379.5")) || sum.Days != 1 {
		t.Errorf("RangeTotals = %s", sum)
	}

	// autosave reached the store
	stored, _ := s.LoadLedger(ctx, "alice")
	if !stored[d("2024-03-01")].Income.Equal(dec("500")) {
		t.Errorf("stored ledger = %+v", stored)
	}
}

func TestLoggedOutOperations(t *testing.T) {
	sess, _ := newTestSession(t)
	ctx := context.Background()

	if sess.State() != StateLoggedOut {
		t.Fatalf("initial state = %s", sess.State())
	}
	checks := map[string]error{
		"select":    sess.Select(ctx, d("2024-03-01")),
		"add":       sess.AddIncome(ctx, "x", "1"),
		"edit":      sess.EditExpense(ctx, 0, "x", "1"),
		"delete":    sess.DeleteIncome(ctx, 0),
		"day":       func() error { _, err := sess.DayTotals(d("2024-03-01")); return err }(),
		"has":       func() error { _, err := sess.HasDay(d("2024-03-01")); return err }(),
		"range":     func() error { _, err := sess.RangeTotals(ctx, d("2024-03-01"), d("2024-03-02")); return err }(),
		"ledger":    func() error { _, err := sess.Ledger(); return err }(),
		"list":      func() error { _, err := sess.ListIncome(); return err }(),
		"selection": func() error { _, err := sess.SelectedDate(); return err }(),
	}
	for name, err := range checks {
		if !errors.Is(err, core.ErrNotSignedIn) {
			t.Errorf("%s while logged out error = %v, want ErrNotSignedIn", name, err)
		}
	}
}

func TestNoDateSelected(t *testing.T) {
	sess, _ := signedIn(t)
	ctx := context.Background()
	if err := sess.AddIncome(ctx, "x", "1"); !errors.Is(err, core.ErrNoDateSelected) {
		t.Errorf("AddIncome error = %v, want ErrNoDateSelected", err)
	}
	if _, err := sess.ListExpenses(); !errors.Is(err, core.ErrNoDateSelected) {
		t.Errorf("ListExpenses error = %v, want ErrNoDateSelected", err)
	}
}

func TestSignInFailures(t *testing.T) {
	sess, _ := newTestSession(t)
	ctx := context.Background()
	if err := sess.Register(ctx, "alice", "pw123"); err != nil {
		t.Fatal(err)
	}

	if err := sess.SignIn(ctx, "alice", "wrong"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("SignIn wrong password error = %v", err)
	}
	if sess.State() != StateLoggedOut {
		t.Errorf("state after rejected sign in = %s", sess.State())
	}

	// a signed in session is dropped by a failed sign in
	if err := sess.SignIn(ctx, "alice", "pw123"); err != nil {
		t.Fatal(err)
	}
	if err := sess.SignIn(ctx, "bob", "pw123"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("SignIn unknown user error = %v", err)
	}
	if _, ok := sess.User(); ok {
		t.Error("previous user still signed in after a failed sign in")
	}
}

// brokenLedgers fails every load with ErrStorageUnavailable.
type brokenLedgers struct{ *memory.Store }

func (brokenLedgers) LoadLedger(context.Context, string) (core.Ledger, error) {
	return nil, core.ErrStorageUnavailable
}

func TestSignInUnreadableLedger(t *testing.T) {
	s := memory.New()
	dir := accounts.NewDirectory(s, s)
	ctx := context.Background()
	if err := dir.Register(ctx, "alice", "pw123"); err != nil {
		t.Fatal(err)
	}

	strict := NewSession(dir, brokenLedgers{s})
	if err := strict.SignIn(ctx, "alice", "pw123"); !errors.Is(err, core.ErrStorageUnavailable) {
		t.Errorf("strict SignIn error = %v, want ErrStorageUnavailable", err)
	}
	if strict.State() != StateLoggedOut {
		t.Errorf("strict state = %s, want logged_out", strict.State())
	}

	lenient := NewSession(dir, brokenLedgers{s}, WithLenientLoad(true))
	if err := lenient.SignIn(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("lenient SignIn: %v", err)
	}
	l, err := lenient.Ledger()
	if err != nil || len(l) != 0 {
		t.Errorf("lenient Ledger = %v, %v, want empty", l, err)
	}
}

func TestSignOutDiscardsState(t *testing.T) {
	sess, _ := signedIn(t)
	ctx := context.Background()
	if err := sess.Select(ctx, d("2024-03-01")); err != nil {
		t.Fatal(err)
	}
	sess.SignOut(ctx)
	if sess.State() != StateLoggedOut {
		t.Errorf("state = %s", sess.State())
	}
	if _, err := sess.ListIncome(); !errors.Is(err, core.ErrNotSignedIn) {
		t.Errorf("ListIncome after sign out error = %v", err)
	}

	// signing back in starts without a selected date
	if err := sess.SignIn(ctx, "alice", "pw123"); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.SelectedDate(); !errors.Is(err, core.ErrNoDateSelected) {
		t.Errorf("SelectedDate after re-sign in error = %v", err)
	}
}

func TestLedgerIsACopy(t *testing.T) {
	sess, _ := signedIn(t)
	ctx := context.Background()
	if err := sess.Select(ctx, d("2024-03-01")); err != nil {
		t.Fatal(err)
	}
	if err := sess.AddIncome(ctx, "salary", "500"); err != nil {
		t.Fatal(err)
	}
	l, _ := sess.Ledger()
	delete(l, d("2024-03-01"))
	if ok, _ := sess.HasDay(d("2024-03-01")); !ok {
		t.Error("mutating Ledger() result changed the session")
	}
}

func TestRangeTotalsCacheInvalidatedOnCommit(t *testing.T) {
	sess, _ := signedIn(t)
	ctx := context.Background()
	start, end := d("2024-03-01"), d("2024-03-31")

	if err := sess.Select(ctx, d("2024-03-05")); err != nil {
		t.Fatal(err)
	}
	if err := sess.AddIncome(ctx, "a", "10"); err != nil {
		t.Fatal(err)
	}
	first, err := sess.RangeTotals(ctx, start, end)
	if err != nil || !first.Income.Equal(dec("10")) {
		t.Fatalf("first RangeTotals = %s, %v", first, err)
	}

	if err := sess.AddIncome(ctx, "b", "5"); err != nil {
		t.Fatal(err)
	}
	second, _ := sess.RangeTotals(ctx, start, end)
	if !second.Income.Equal(dec("15")) {
		t.Errorf("RangeTotals after commit = %s, want income 15", second)
	}

	if err := sess.Select(ctx, d("2024-04-01")); err != nil {
		t.Fatal(err)
	}
	if err := sess.AddExpense(ctx, "Gas", "3"); err != nil {
		t.Fatal(err)
	}
	third, _ := sess.RangeTotals(ctx, start, end)
	if third.Days != 1 || !third.Expenses.IsZero() {
		t.Errorf("April expense leaked into March range: %s", third)
	}
}

func TestRangeTotalsWithoutCache(t *testing.T) {
	sess, _ := signedIn(t, WithRangeCacheSize(0))
	ctx := context.Background()
	if err := sess.Select(ctx, d("2024-03-05")); err != nil {
		t.Fatal(err)
	}
	if err := sess.AddIncome(ctx, "a", "10"); err != nil {
		t.Fatal(err)
	}
	sum, err := sess.RangeTotals(ctx, d("2024-03-05"), d("2024-03-05"))
	if err != nil || sum.Days != 1 {
		t.Errorf("RangeTotals = %s, %v", sum, err)
	}
}

func TestRangeTotalsErrors(t *testing.T) {
	sess, _ := signedIn(t)
	ctx := context.Background()
	if _, err := sess.RangeTotals(ctx, d("2024-03-31"), d("2024-03-01")); !errors.Is(err, core.ErrInvalidRange) {
		t.Errorf("reversed range error = %v, want ErrInvalidRange", err)
	}
	if _, err := sess.RangeTotals(ctx, "2024-3-1", d("2024-03-31")); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("malformed date error = %v, want ErrInvalidInput", err)
	}
}

func TestDayTotalsAndHasDay(t *testing.T) {
	sess, _ := signedIn(t)
	ctx := context.Background()
	day := d("2024-03-01")

	totals, err := sess.DayTotals(day)
	if err != nil || !totals.Income.IsZero() || !totals.Net().IsZero() {
		t.Errorf("DayTotals of empty day = %s, %v", totals, err)
	}
	if ok, _ := sess.HasDay(day); ok {
		t.Error("HasDay before any change = true")
	}

	if err := sess.Select(ctx, day); err != nil {
		t.Fatal(err)
	}
	if err := sess.AddIncome(ctx, "a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := sess.DeleteIncome(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if ok, _ := sess.HasDay(day); !ok {
		t.Error("zeroed day should still be recorded")
	}
	totals, _ = sess.DayTotals(day)
	if !totals.Income.IsZero() {
		t.Errorf("zeroed day totals = %s", totals)
	}
}

func TestEditAndDeleteThroughSession(t *testing.T) {
	sess, _ := signedIn(t)
	ctx := context.Background()
	if err := sess.Select(ctx, d("2024-03-01")); err != nil {
		t.Fatal(err)
	}
	for _, amt := range []string{"10", "20"} {
		if err := sess.AddExpense(ctx, "Food", amt); err != nil {
			t.Fatal(err)
		}
	}
	if err := sess.EditExpense(ctx, 1, "Gas", "25"); err != nil {
		t.Fatalf("EditExpense: %v", err)
	}
	if err := sess.EditIncome(ctx, buffer.NoIndex, "x", "1"); !errors.Is(err, core.ErrNoSelection) {
		t.Errorf("EditIncome without selection error = %v", err)
	}
	if err := sess.DeleteExpense(ctx, 5); !errors.Is(err, core.ErrNoSelection) {
		t.Errorf("DeleteExpense out of range error = %v", err)
	}
	if err := sess.DeleteExpense(ctx, 0); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	items, _ := sess.ListExpenses()
	if len(items) != 1 || items[0].Label != "Gas" || !items[0].Amount.Equal(dec("25")) {
		t.Errorf("ListExpenses = %v", items)
	}
	totals, _ := sess.DayTotals(d("2024-03-01"))
	if !totals.Expenses.Equal(dec("25")) {
		t.Errorf("expenses = %s, want 25", totals.Expenses)
	}
}

func TestCategorizedExpenses(t *testing.T) {
	sess, _ := signedIn(t)
	ctx := context.Background()
	if err := sess.Select(ctx, d("2024-03-01")); err != nil {
		t.Fatal(err)
	}
	if err := sess.AddCategorizedExpense(ctx, core.CategoryGas, "", "40"); err != nil {
		t.Fatal(err)
	}
	if err := sess.AddCategorizedExpense(ctx, core.CategoryOther, "Parking", "5"); err != nil {
		t.Fatal(err)
	}
	if err := sess.AddCategorizedExpense(ctx, core.CategoryOther, " ", "5"); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Other without custom label error = %v", err)
	}
	if err := sess.EditCategorizedExpense(ctx, 0, core.CategoryOther, "Toll", "7"); err != nil {
		t.Fatal(err)
	}
	items, _ := sess.ListExpenses()
	if len(items) != 2 || items[0].Label != "Toll" || items[1].Label != "Parking" {
		t.Errorf("ListExpenses = %v", items)
	}
}

func TestEditCategorizedExpenseKeepsLabel(t *testing.T) {
	sess, _ := signedIn(t)
	ctx := context.Background()
	if err := sess.Select(ctx, d("2024-03-01")); err != nil {
		t.Fatal(err)
	}
	if err := sess.AddCategorizedExpense(ctx, core.CategoryGas, "", "40"); err != nil {
		t.Fatal(err)
	}
	if err := sess.AddCategorizedExpense(ctx, core.CategoryOther, "Parking", "5"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		index    int
		category string
		custom   string
		want     string
	}{
		{"fixed category kept", 0, "", "", "Gas"},
		{"custom label kept", 1, "", "", "Parking"},
		{"custom alone selects Other", 1, "", "Toll", "Toll"},
		{"explicit category", 0, core.CategoryFood, "", "Food"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := sess.EditCategorizedExpense(ctx, tt.index, tt.category, tt.custom, "9"); err != nil {
				t.Fatalf("EditCategorizedExpense: %v", err)
			}
			items, _ := sess.ListExpenses()
			if items[tt.index].Label != tt.want || !items[tt.index].Amount.Equal(dec("9")) {
				t.Errorf("row %d = %v, want %s 9", tt.index, items[tt.index], tt.want)
			}
		})
	}

	if err := sess.EditCategorizedExpense(ctx, 4, "", "", "1"); !errors.Is(err, core.ErrNoSelection) {
		t.Errorf("keep label out of range error = %v, want ErrNoSelection", err)
	}
}

func TestIndexOfFollowsRow(t *testing.T) {
	sess, _ := signedIn(t)
	ctx := context.Background()
	if err := sess.Select(ctx, d("2024-03-01")); err != nil {
		t.Fatal(err)
	}
	for _, label := range []string{"a", "b", "c"} {
		if err := sess.AddIncome(ctx, label, "1"); err != nil {
			t.Fatal(err)
		}
	}
	items, _ := sess.Items(core.KindIncome)
	id := items[2].ID
	if err := sess.DeleteIncome(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if got, err := sess.IndexOf(core.KindIncome, id); err != nil || got != 1 {
		t.Errorf("IndexOf = %d, %v, want 1", got, err)
	}
	if _, err := sess.IndexOf(core.KindExpense, id); !errors.Is(err, core.ErrNoSelection) {
		t.Errorf("IndexOf in other list error = %v, want ErrNoSelection", err)
	}

	// rehydrating the day resolves the same ID
	if err := sess.Select(ctx, d("2024-03-01")); err != nil {
		t.Fatal(err)
	}
	if got, err := sess.IndexOf(core.KindIncome, id); err != nil || got != 1 {
		t.Errorf("IndexOf after reselect = %d, %v, want 1", got, err)
	}
}

func TestFailedSaveKeepsSessionConsistent(t *testing.T) {
	sess, s := signedIn(t)
	ctx := context.Background()
	day := d("2024-03-01")
	if err := sess.Select(ctx, day); err != nil {
		t.Fatal(err)
	}
	if err := sess.AddIncome(ctx, "salary", "500"); err != nil {
		t.Fatal(err)
	}
	cached, _ := sess.RangeTotals(ctx, day, day)

	s.SetFailSaves(true)
	if err := sess.AddIncome(ctx, "bonus", "100"); !errors.Is(err, core.ErrStorageUnavailable) {
		t.Fatalf("AddIncome error = %v, want ErrStorageUnavailable", err)
	}
	items, _ := sess.ListIncome()
	if len(items) != 1 {
		t.Errorf("buffer kept the unsaved item: %v", items)
	}
	totals, _ := sess.DayTotals(day)
	if !totals.Income.Equal(dec("500")) {
		t.Errorf("ledger kept the unsaved item: %s", totals)
	}
	sum, _ := sess.RangeTotals(ctx, day, day)
	if !sum.Income.Equal(cached.Income) {
		t.Errorf("RangeTotals = %s, want %s", sum, cached)
	}
}

func TestSingleDayRangeMatchesDayTotals(t *testing.T) {
	sess, _ := signedIn(t)
	ctx := context.Background()
	days := map[string][2]string{
		"2024-02-28": {"10", "3"},
		"2024-02-29": {"7.25", "0"},
		"2024-03-01": {"0", "4.5"},
	}
	for date, amounts := range days {
		if err := sess.Select(ctx, d(date)); err != nil {
			t.Fatal(err)
		}
		if err := sess.AddIncome(ctx, "in", amounts[0]); err != nil {
			t.Fatal(err)
		}
		if err := sess.AddExpense(ctx, "out", amounts[1]); err != nil {
			t.Fatal(err)
		}
	}
	for _, date := range []string{"2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"} {
		day, _ := sess.DayTotals(d(date))
		sum, err := sess.RangeTotals(ctx, d(date), d(date))
		if err != nil {
			t.Fatal(err)
		}
		if !sum.Income.Equal(day.Income) || !sum.Expenses.Equal(day.Expenses) {
			t.Errorf("%s: range %s != day %s", date, sum, day)
		}
		want := 0
		if has, _ := sess.HasDay(d(date)); has {
			want = 1
		}
		if sum.Days != want {
			t.Errorf("%s: days = %d, want %d", date, sum.Days, want)
		}
	}
}
