// Package services holds the session that drives sign-in, day editing and
// aggregation, and the read-only ledger audit.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"moneyrider/internal/accounts"
	"moneyrider/internal/buffer"
	"moneyrider/internal/cache"
	"moneyrider/internal/core"
	"moneyrider/internal/log"
	"moneyrider/internal/store"
)

// DefaultRangeCacheSize is the number of memoized range queries per session.
const DefaultRangeCacheSize = 64

// State is the sign-in state of a Session.
type State int

const (
	StateLoggedOut State = iota
	StateAuthenticating
	StateLoggedIn
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAuthenticating:
		return "authenticating"
	case StateLoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// Authenticator is the part of the account directory a session needs.
type Authenticator interface {
	Register(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) error
}

// Session owns the signed-in user's ledger and the edit buffer over it.
// All methods are serialized by one mutex.
type Session struct {
	mu      sync.Mutex
	auth    Authenticator
	ledgers store.LedgerStore
	logger  *log.Logger
	ranges  cache.Cache[core.RangeSummary]
	lenient bool

	state  State
	user   string
	ledger core.Ledger
	buf    *buffer.Buffer
}

type Option func(*Session)

func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRangeCacheSize bounds the range query memo. Zero disables it.
func WithRangeCacheSize(n int) Option {
	return func(s *Session) { s.ranges = cache.New[core.RangeSummary](n) }
}

// WithLenientLoad makes SignIn treat an unreadable ledger as empty instead
// of failing. The next save overwrites the unreadable data.
func WithLenientLoad(lenient bool) Option {
	return func(s *Session) { s.lenient = lenient }
}

func NewSession(auth Authenticator, ledgers store.LedgerStore, opts ...Option) *Session {
	s := &Session{
		auth:    auth,
		ledgers: ledgers,
		logger:  log.Discard(),
		ranges:  cache.New[core.RangeSummary](DefaultRangeCacheSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentSession)
	return s
}

// State returns the current sign-in state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in username.
func (s *Session) User() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.state == StateLoggedIn
}

// Register creates an account. It does not sign in.
func (s *Session) Register(ctx context.Context, username, password string) error {
	return s.auth.Register(ctx, username, password)
}

// SignIn authenticates and opens the user's ledger. Any previous session
// state is discarded first. On failure the session is logged out.
func (s *Session) SignIn(ctx context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.state = StateAuthenticating
	username = accounts.NormalizeUsername(username)

	if err := s.auth.Authenticate(ctx, username, password); err != nil {
		s.state = StateLoggedOut
		s.logger.WarnFields(ctx, "Sign in rejected", log.NewFields().
			WithOperation(log.OpSignIn).
			WithUser(username).
			WithError(err))
		return err
	}

	ledger, err := s.ledgers.LoadLedger(ctx, username)
	if err != nil {
		if !s.lenient || !errors.Is(err, core.ErrStorageUnavailable) {
			s.state = StateLoggedOut
			return fmt.Errorf("open ledger: %w", err)
		}
		s.logger.WarnFields(ctx, "Ledger unreadable, starting empty", log.NewFields().
			WithOperation(log.OpLoad).
			WithUser(username).
			WithError(err))
		ledger = core.Ledger{}
	}

	s.user = username
	s.ledger = ledger
	s.buf = buffer.New(ledger, s.save)
	s.state = StateLoggedIn

	s.logger.InfoContext(ctx, "Signed in",
		log.FieldOperation, log.OpSignIn,
		log.FieldUsername, username,
		log.FieldDays, len(ledger))
	return nil
}

// SignOut drops the ledger and the buffer.
func (s *Session) SignOut(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoggedIn {
		s.logger.InfoContext(ctx, "Signed out",
			log.FieldOperation, log.OpSignOut,
			log.FieldUsername, s.user)
	}
	s.reset()
}

func (s *Session) reset() {
	s.state = StateLoggedOut
	s.user = ""
	s.ledger = nil
	s.buf = nil
	s.ranges.Purge()
}

// save is the buffer's SaveFunc. A successful save invalidates memoized
// range totals.
func (s *Session) save(ctx context.Context, l core.Ledger) error {
	if err := s.ledgers.SaveLedger(ctx, s.user, l); err != nil {
		return err
	}
	s.ranges.Purge()
	return nil
}

// Ledger returns a copy of the signed-in user's ledger.
func (s *Session) Ledger() (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.signedIn(); err != nil {
		return nil, err
	}
	return s.ledger.Clone(), nil
}

// Select hydrates the edit buffer for date.
func (s *Session) Select(ctx context.Context, date core.DateKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.signedIn(); err != nil {
		return err
	}
	if err := s.buf.Hydrate(date); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Date selected",
		log.FieldUsername, s.user,
		log.FieldDate, date.String())
	return nil
}

// SelectedDate returns the date the buffer holds.
func (s *Session) SelectedDate() (core.DateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.signedIn(); err != nil {
		return "", err
	}
	date, ok := s.buf.Date()
	if !ok {
		return "", core.ErrNoDateSelected
	}
	return date, nil
}

func (s *Session) ListIncome() ([]core.LineItem, error) {
	return s.list(core.KindIncome)
}

func (s *Session) ListExpenses() ([]core.LineItem, error) {
	return s.list(core.KindExpense)
}

func (s *Session) list(kind core.Kind) ([]core.LineItem, error) {
	items, err := s.Items(kind)
	if err != nil {
		return nil, err
	}
	out := make([]core.LineItem, len(items))
	for i, it := range items {
		out[i] = it.LineItem
	}
	return out, nil
}

// Items returns the buffer rows of kind with their row IDs.
func (s *Session) Items(kind core.Kind) ([]buffer.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selected(); err != nil {
		return nil, err
	}
	return s.buf.Items(kind), nil
}

func (s *Session) AddIncome(ctx context.Context, label, amount string) error {
	return s.add(ctx, core.KindIncome, label, amount)
}

func (s *Session) AddExpense(ctx context.Context, label, amount string) error {
	return s.add(ctx, core.KindExpense, label, amount)
}

// AddCategorizedExpense adds an expense labelled by category, or by custom
// when category is CategoryOther.
func (s *Session) AddCategorizedExpense(ctx context.Context, category, custom, amount string) error {
	label, err := core.ResolveExpenseLabel(category, custom)
	if err != nil {
		return err
	}
	return s.add(ctx, core.KindExpense, label, amount)
}

func (s *Session) EditIncome(ctx context.Context, index int, label, amount string) error {
	return s.edit(ctx, core.KindIncome, index, label, amount)
}

func (s *Session) EditExpense(ctx context.Context, index int, label, amount string) error {
	return s.edit(ctx, core.KindExpense, index, label, amount)
}

// EditCategorizedExpense is EditExpense with the label resolved as in
// AddCategorizedExpense. An empty category keeps the row's current label,
// or selects CategoryOther when custom is set.
func (s *Session) EditCategorizedExpense(ctx context.Context, index int, category, custom, amount string) error {
	if strings.TrimSpace(category) == "" {
		if strings.TrimSpace(custom) != "" {
			category = core.CategoryOther
		} else {
			current, err := s.expenseLabel(index)
			if err != nil {
				return err
			}
			category, custom = core.SplitExpenseLabel(current)
		}
	}
	label, err := core.ResolveExpenseLabel(category, custom)
	if err != nil {
		return err
	}
	return s.edit(ctx, core.KindExpense, index, label, amount)
}

func (s *Session) expenseLabel(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selected(); err != nil {
		return "", err
	}
	items := s.buf.Items(core.KindExpense)
	if index < 0 || index >= len(items) {
		return "", fmt.Errorf("%w: expense index %d out of range [0, %d)", core.ErrNoSelection, index, len(items))
	}
	return items[index].Label, nil
}

// IndexOf resolves a row ID from Items to the row's current index.
func (s *Session) IndexOf(kind core.Kind, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selected(); err != nil {
		return buffer.NoIndex, err
	}
	index := s.buf.IndexOf(kind, id)
	if index == buffer.NoIndex {
		return buffer.NoIndex, fmt.Errorf("%w: no %s row with id %s", core.ErrNoSelection, kind, id)
	}
	return index, nil
}

func (s *Session) DeleteIncome(ctx context.Context, index int) error {
	return s.delete(ctx, core.KindIncome, index)
}

func (s *Session) DeleteExpense(ctx context.Context, index int) error {
	return s.delete(ctx, core.KindExpense, index)
}

func (s *Session) add(ctx context.Context, kind core.Kind, label, amount string) error {
	return s.mutate(ctx, log.OpCreate, kind, appendPosition, label, amount, func(b *buffer.Buffer) error {
		return b.Add(ctx, kind, label, amount)
	})
}

func (s *Session) edit(ctx context.Context, kind core.Kind, index int, label, amount string) error {
	return s.mutate(ctx, log.OpUpdate, kind, fixed(index), label, amount, func(b *buffer.Buffer) error {
		return b.Edit(ctx, kind, index, label, amount)
	})
}

func (s *Session) delete(ctx context.Context, kind core.Kind, index int) error {
	return s.mutate(ctx, log.OpDelete, kind, fixed(index), "", "", func(b *buffer.Buffer) error {
		return b.Delete(ctx, kind, index)
	})
}

// mutate runs one buffer operation under the session lock and logs it.
// position reports the affected row from the list length before the change.
func (s *Session) mutate(ctx context.Context, op string, kind core.Kind, position func([]buffer.Item) int,
	label, amount string, fn func(b *buffer.Buffer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selected(); err != nil {
		return err
	}

	index := position(s.buf.Items(kind))
	date, _ := s.buf.Date()
	fields := log.NewFields().
		WithOperation(op).
		WithUser(s.user).
		WithDate(date.String()).
		WithLineItem(kind.String(), index, label, amount)

	if err := fn(s.buf); err != nil {
		s.logger.WarnFields(ctx, "Ledger change rejected", fields.WithError(err))
		return err
	}

	rec := s.ledger[date]
	s.logger.InfoFields(ctx, "Ledger changed", fields.WithTotals(rec.Income.String(), rec.Expenses.String()))
	return nil
}

// appendPosition is where Add puts the new row.
func appendPosition(items []buffer.Item) int { return len(items) }

func fixed(index int) func([]buffer.Item) int {
	return func([]buffer.Item) int { return index }
}

// DayTotals returns the stored totals of date, zero when it has no record.
func (s *Session) DayTotals(date core.DateKey) (core.Totals, error) {
	if err := date.Validate(); err != nil {
		return core.Totals{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.signedIn(); err != nil {
		return core.Totals{}, err
	}
	return core.DayTotals(s.ledger[date]), nil
}

// HasDay reports whether date has a record, zeroed or not.
func (s *Session) HasDay(date core.DateKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.signedIn(); err != nil {
		return false, err
	}
	return s.ledger.Has(date), nil
}

// RangeTotals aggregates [start, end]. Results are memoized until the next
// successful save or sign-in change.
func (s *Session) RangeTotals(ctx context.Context, start, end core.DateKey) (core.RangeSummary, error) {
	if err := start.Validate(); err != nil {
		return core.RangeSummary{}, err
	}
	if err := end.Validate(); err != nil {
		return core.RangeSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.signedIn(); err != nil {
		return core.RangeSummary{}, err
	}

	key := start.String() + ".." + end.String()
	if sum, ok := s.ranges.Get(key); ok {
		return sum, nil
	}
	sum, err := core.RangeTotals(s.ledger, start, end)
	if err != nil {
		return core.RangeSummary{}, err
	}
	s.ranges.Set(key, sum)

	s.logger.DebugContext(ctx, "Range aggregated",
		log.FieldOperation, log.OpAggregate,
		log.FieldUsername, s.user,
		log.FieldStartDate, start.String(),
		log.FieldEndDate, end.String(),
		log.FieldDays, sum.Days,
		log.FieldCount, s.ranges.Size())
	return sum, nil
}

func (s *Session) signedIn() error {
	if s.state != StateLoggedIn {
		return core.ErrNotSignedIn
	}
	return nil
}

func (s *Session) selected() error {
	if err := s.signedIn(); err != nil {
		return err
	}
	if _, ok := s.buf.Date(); !ok {
		return core.ErrNoDateSelected
	}
	return nil
}
