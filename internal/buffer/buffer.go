// Package buffer implements the edit buffer: the mutable copy of one day's
// line items. Every mutation is written through to the ledger and saved
// before it returns.
package buffer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"moneyrider/internal/core"
)

// NoIndex stands for "no row selected".
const NoIndex = -1

// SaveFunc persists the full ledger.
type SaveFunc func(ctx context.Context, l core.Ledger) error

// Item is a line item while it sits in the buffer. ID is never stored. It is
// derived from the date, kind and content of the row when the row is
// hydrated or added, so a fresh buffer over the same ledger hands out the
// same IDs, and it is kept across edits. A caller can use it to find a row
// after other rows moved.
type Item struct {
	ID uuid.UUID
	core.LineItem
}

type Buffer struct {
	ledger   core.Ledger
	save     SaveFunc
	date     core.DateKey
	hydrated bool
	income   []Item
	expenses []Item
}

// New returns an empty buffer over ledger. The buffer writes DayRecords into
// ledger on every commit, so the caller must not share ledger elsewhere.
func New(ledger core.Ledger, save SaveFunc) *Buffer {
	if ledger == nil {
		ledger = core.Ledger{}
	}
	return &Buffer{ledger: ledger, save: save}
}

// Ledger returns the ledger the buffer writes into.
func (b *Buffer) Ledger() core.Ledger { return b.ledger }

// Hydrate loads date's line items, or empty lists when the ledger has no
// record for it. Prior contents are dropped.
func (b *Buffer) Hydrate(date core.DateKey) error {
	if err := date.Validate(); err != nil {
		return err
	}
	rec := b.ledger[date]
	b.date = date
	b.hydrated = true
	b.income = nil
	b.expenses = nil
	for _, li := range rec.Entries {
		b.appendItem(core.KindIncome, li)
	}
	for _, li := range rec.ExpenseEntries {
		b.appendItem(core.KindExpense, li)
	}
	return nil
}

// Date returns the hydrated date.
func (b *Buffer) Date() (core.DateKey, bool) {
	return b.date, b.hydrated
}

// Income returns a copy of the income list.
func (b *Buffer) Income() []core.LineItem { return lineItems(b.income) }

// Expenses returns a copy of the expense list.
func (b *Buffer) Expenses() []core.LineItem { return lineItems(b.expenses) }

// Items returns a copy of the list of kind, with row IDs.
func (b *Buffer) Items(kind core.Kind) []Item {
	return slices.Clone(*b.list(kind))
}

// IndexOf returns the current position of the row with id, or NoIndex.
func (b *Buffer) IndexOf(kind core.Kind, id uuid.UUID) int {
	for i, it := range *b.list(kind) {
		if it.ID == id {
			return i
		}
	}
	return NoIndex
}

func (b *Buffer) AddIncome(ctx context.Context, label, amount string) error {
	return b.Add(ctx, core.KindIncome, label, amount)
}

func (b *Buffer) AddExpense(ctx context.Context, label, amount string) error {
	return b.Add(ctx, core.KindExpense, label, amount)
}

// Add appends a validated line item and commits.
func (b *Buffer) Add(ctx context.Context, kind core.Kind, label, amount string) error {
	if err := b.ready(); err != nil {
		return err
	}
	li, err := core.NewLineItem(label, amount)
	if err != nil {
		return err
	}
	return b.mutate(ctx, func() {
		b.appendItem(kind, li)
	})
}

// Edit replaces the line item at index and commits. The row keeps its ID.
func (b *Buffer) Edit(ctx context.Context, kind core.Kind, index int, label, amount string) error {
	if err := b.ready(); err != nil {
		return err
	}
	if err := b.checkIndex(kind, index); err != nil {
		return err
	}
	li, err := core.NewLineItem(label, amount)
	if err != nil {
		return err
	}
	return b.mutate(ctx, func() {
		(*b.list(kind))[index].LineItem = li
	})
}

// Delete removes the line item at index and commits.
func (b *Buffer) Delete(ctx context.Context, kind core.Kind, index int) error {
	if err := b.ready(); err != nil {
		return err
	}
	if err := b.checkIndex(kind, index); err != nil {
		return err
	}
	return b.mutate(ctx, func() {
		list := b.list(kind)
		*list = slices.Delete(*list, index, index+1)
	})
}

// Commit recomputes the day's totals, overwrites the DayRecord for the
// buffer date and saves the full ledger. On a failed save the ledger entry
// is restored and the error wraps ErrStorageUnavailable.
func (b *Buffer) Commit(ctx context.Context) error {
	if err := b.ready(); err != nil {
		return err
	}
	prev, had := b.ledger[b.date]
	b.ledger[b.date] = core.NewDayRecord(lineItems(b.income), lineItems(b.expenses))

	if err := b.save(ctx, b.ledger); err != nil {
		if had {
			b.ledger[b.date] = prev
		} else {
			delete(b.ledger, b.date)
		}
		if !errors.Is(err, core.ErrStorageUnavailable) {
			err = fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
		}
		return fmt.Errorf("commit %s: %w", b.date, err)
	}
	return nil
}

// mutate applies fn and commits, putting the lists back if the commit fails.
func (b *Buffer) mutate(ctx context.Context, fn func()) error {
	income, expenses := slices.Clone(b.income), slices.Clone(b.expenses)
	fn()
	if err := b.Commit(ctx); err != nil {
		b.income, b.expenses = income, expenses
		return err
	}
	return nil
}

func (b *Buffer) ready() error {
	if !b.hydrated {
		return core.ErrNoDateSelected
	}
	return nil
}

func (b *Buffer) checkIndex(kind core.Kind, index int) error {
	n := len(*b.list(kind))
	if index == NoIndex {
		return core.ErrNoSelection
	}
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %s index %d out of range [0, %d)", core.ErrNoSelection, kind, index, n)
	}
	return nil
}

func (b *Buffer) list(kind core.Kind) *[]Item {
	if kind == core.KindExpense {
		return &b.expenses
	}
	return &b.income
}

// rowNamespace scopes row IDs to this program.
var rowNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("moneyrider:row"))

// appendItem adds li at the end of its list with the first ID, counting
// identical rows, that no other row of the list holds.
func (b *Buffer) appendItem(kind core.Kind, li core.LineItem) {
	list := b.list(kind)
	for n := 0; ; n++ {
		id := uuid.NewSHA1(rowNamespace,
			[]byte(fmt.Sprintf("%s/%s/%d/%s/%s", b.date, kind, n, li.Label, li.Amount)))
		if b.IndexOf(kind, id) == NoIndex {
			*list = append(*list, Item{ID: id, LineItem: li})
			return
		}
	}
}

func lineItems(items []Item) []core.LineItem {
	out := make([]core.LineItem, len(items))
	for i, it := range items {
		out[i] = it.LineItem
	}
	return out
}
