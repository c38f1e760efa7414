// Package accounts holds the account directory: registration and password
// checks against the username to password map.
package accounts

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"moneyrider/internal/core"
	"moneyrider/internal/log"
	"moneyrider/internal/store"
)

type Directory struct {
	mu      sync.Mutex
	store   store.AccountStore
	ledgers store.LedgerStore
	scheme  Scheme
	logger  *log.Logger
}

type Option func(*Directory)

// WithScheme sets the password scheme. Plain is the default.
func WithScheme(s Scheme) Option {
	return func(d *Directory) { d.scheme = s }
}

func WithLogger(l *log.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

func NewDirectory(accounts store.AccountStore, ledgers store.LedgerStore, opts ...Option) *Directory {
	d := &Directory{
		store:   accounts,
		ledgers: ledgers,
		scheme:  Plain{},
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithComponent(log.ComponentAccounts)
	return d
}

// NormalizeUsername trims surrounding whitespace, the form under which
// usernames are stored.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// Register adds an account and creates an empty ledger for it. The full
// account map is rewritten on success.
func (d *Directory) Register(ctx context.Context, username, password string) error {
	username = NormalizeUsername(username)
	if err := core.ValidateUsername(username); err != nil {
		return err
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password is empty", core.ErrInvalidInput)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	accounts, err := d.store.LoadAccounts(ctx)
	if err != nil {
		return err
	}
	if _, exists := accounts[username]; exists {
		return fmt.Errorf("%w: %s", core.ErrDuplicateUsername, username)
	}

	stored, err := d.scheme.Hash(password)
	if err != nil {
		return err
	}
	// ledger first: a failed registration must leave no account behind
	if err := d.ledgers.SaveLedger(ctx, username, core.Ledger{}); err != nil {
		return err
	}
	accounts[username] = stored
	if err := d.store.SaveAccounts(ctx, accounts); err != nil {
		return err
	}

	d.logger.InfoFields(ctx, "Account registered", log.NewFields().
		WithOperation(log.OpRegister).
		WithUser(username))
	return nil
}

// Authenticate checks password against the stored entry for username.
// Unknown users and wrong passwords give the same ErrInvalidCredentials.
func (d *Directory) Authenticate(ctx context.Context, username, password string) error {
	username = NormalizeUsername(username)

	d.mu.Lock()
	defer d.mu.Unlock()

	accounts, err := d.store.LoadAccounts(ctx)
	if err != nil {
		return err
	}
	stored, exists := accounts[username]
	if !exists {
		return core.ErrInvalidCredentials
	}
	ok, rehash := d.scheme.Verify(stored, password)
	if !ok {
		return core.ErrInvalidCredentials
	}

	if rehash {
		d.upgrade(ctx, accounts, username, password)
	}
	return nil
}

// upgrade replaces a legacy entry with the current scheme's form. Failure
// is logged and leaves the old entry, which still verifies.
func (d *Directory) upgrade(ctx context.Context, accounts map[string]string, username, password string) {
	stored, err := d.scheme.Hash(password)
	if err == nil {
		accounts[username] = stored
		err = d.store.SaveAccounts(ctx, accounts)
	}
	if err != nil {
		d.logger.WarnFields(ctx, "Password upgrade failed", log.NewFields().
			WithUser(username).
			WithError(err))
		return
	}
	d.logger.InfoContext(ctx, "Password upgraded",
		log.FieldUsername, username,
		"scheme", d.scheme.Name())
}

// Exists reports whether username is registered.
func (d *Directory) Exists(ctx context.Context, username string) (bool, error) {
	accounts, err := d.store.LoadAccounts(ctx)
	if err != nil {
		return false, err
	}
	_, ok := accounts[NormalizeUsername(username)]
	return ok, nil
}

// Usernames returns every registered username, sorted.
func (d *Directory) Usernames(ctx context.Context) ([]string, error) {
	accounts, err := d.store.LoadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(accounts))
	for name := range accounts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
