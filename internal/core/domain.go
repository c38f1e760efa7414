package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	KindIncome Kind = iota
	KindExpense
)

// Fixed expense categories. CategoryOther stands for a free-form label.
const (
	CategoryFood        = "Food"
	CategoryGas         = "Gas"
	CategoryMaintenance = "Maintenance"
	CategoryOther       = "Other"
)

type (
	// Kind selects one of the two line item lists of a day.
	Kind int

	// LineItem is one income source or expense entry. It has no identity
	// beyond its position in the owning list.
	LineItem struct {
		Label  string
		Amount decimal.Decimal
	}

	// DayRecord aggregates the line items stored under one date. Income and
	// Expenses cache the sums of Entries and ExpenseEntries.
	DayRecord struct {
		Income         decimal.Decimal `json:"income"`
		Expenses       decimal.Decimal `json:"expenses"`
		Entries        []LineItem      `json:"entries"`
		ExpenseEntries []LineItem      `json:"expense_entries"`
	}

	// Ledger is the full date-keyed collection of DayRecords of one user.
	Ledger map[DateKey]DayRecord
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNoSelection        = errors.New("no line item selected")
	ErrInvalidRange       = errors.New("start date is after end date")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrNoDateSelected     = errors.New("no date selected")
)

func (k Kind) String() string {
	switch k {
	case KindIncome:
		return "income"
	case KindExpense:
		return "expense"
	default:
		return "unknown"
	}
}

// ParseKind parses "income" or "expense".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return KindIncome, nil
	case "expense", "expenses":
		return KindExpense, nil
	default:
		return 0, fmt.Errorf("%w: unknown line item kind %q", ErrInvalidInput, s)
	}
}

// ExpenseCategories returns the categories offered for expenses, CategoryOther last.
func ExpenseCategories() []string {
	return []string{CategoryFood, CategoryGas, CategoryMaintenance, CategoryOther}
}

// ResolveExpenseLabel turns a category choice into the label stored on the
// expense. CategoryOther takes the custom label instead.
func ResolveExpenseLabel(category, custom string) (string, error) {
	category = strings.TrimSpace(category)
	if category == CategoryOther {
		custom = strings.TrimSpace(custom)
		if custom == "" {
			return "", fmt.Errorf("%w: custom category is empty", ErrInvalidInput)
		}
		return custom, nil
	}
	if category == "" {
		return "", fmt.Errorf("%w: category is empty", ErrInvalidInput)
	}
	return category, nil
}

// SplitExpenseLabel is the inverse of ResolveExpenseLabel: labels outside the
// fixed set come back as CategoryOther plus the label.
func SplitExpenseLabel(label string) (category, custom string) {
	if label != CategoryOther && slices.Contains(ExpenseCategories(), label) {
		return label, ""
	}
	return CategoryOther, label
}

// ValidateUsername checks that a username is usable as an account key and as
// a file name.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is empty", ErrInvalidInput)
	}
	if username == "." || username == ".." || strings.ContainsAny(username, `/\`) {
		return fmt.Errorf("%w: username %q is not allowed", ErrInvalidInput, username)
	}
	for _, r := range username {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: username contains control characters", ErrInvalidInput)
		}
	}
	return nil
}

// NewLineItem validates raw label and amount input.
func NewLineItem(label, amount string) (LineItem, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return LineItem{}, fmt.Errorf("%w: label is empty", ErrInvalidInput)
	}
	value, err := ParseAmount(amount)
	if err != nil {
		return LineItem{}, err
	}
	return LineItem{Label: label, Amount: value}, nil
}

// Equal reports whether both items have the same label and numeric amount.
func (li LineItem) Equal(o LineItem) bool {
	return li.Label == o.Label && li.Amount.Equal(o.Amount)
}

// SumAmounts adds the amounts of items.
func SumAmounts(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

// NewDayRecord builds a DayRecord from copies of both lists and derives the
// cached totals from them.
func NewDayRecord(income, expenses []LineItem) DayRecord {
	return DayRecord{
		Income:         SumAmounts(income),
		Expenses:       SumAmounts(expenses),
		Entries:        cloneItems(income),
		ExpenseEntries: cloneItems(expenses),
	}
}

// Items returns the list of the given kind.
func (r DayRecord) Items(kind Kind) []LineItem {
	if kind == KindExpense {
		return r.ExpenseEntries
	}
	return r.Entries
}

// Consistent reports whether the cached totals match the line items.
func (r DayRecord) Consistent() bool {
	return r.Income.Equal(SumAmounts(r.Entries)) && r.Expenses.Equal(SumAmounts(r.ExpenseEntries))
}

// IsZero reports whether both totals are zero. A zeroed record still exists
// in its Ledger, unlike a date that has no record at all.
func (r DayRecord) IsZero() bool {
	return r.Income.IsZero() && r.Expenses.IsZero()
}

// Equal compares numerically, so 500 and 500.0 are the same amount.
func (r DayRecord) Equal(o DayRecord) bool {
	return r.Income.Equal(o.Income) &&
		r.Expenses.Equal(o.Expenses) &&
		slices.EqualFunc(r.Entries, o.Entries, LineItem.Equal) &&
		slices.EqualFunc(r.ExpenseEntries, o.ExpenseEntries, LineItem.Equal)
}

func (r DayRecord) clone() DayRecord {
	return DayRecord{
		Income:         r.Income,
		Expenses:       r.Expenses,
		Entries:        cloneItems(r.Entries),
		ExpenseEntries: cloneItems(r.ExpenseEntries),
	}
}

// Has reports whether a DayRecord exists for date, zeroed or not.
func (l Ledger) Has(date DateKey) bool {
	_, ok := l[date]
	return ok
}

// Dates returns the keys in chronological order.
func (l Ledger) Dates() []DateKey {
	dates := make([]DateKey, 0, len(l))
	for d := range l {
		dates = append(dates, d)
	}
	slices.Sort(dates)
	return dates
}

// Clone deep-copies the ledger.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for d, r := range l {
		out[d] = r.clone()
	}
	return out
}

func (l Ledger) Equal(o Ledger) bool {
	if len(l) != len(o) {
		return false
	}
	for d, r := range l {
		other, ok := o[d]
		if !ok || !r.Equal(other) {
			return false
		}
	}
	return true
}

// cloneItems never returns nil so that empty lists serialize as [].
func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
