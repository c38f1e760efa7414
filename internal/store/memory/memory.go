package memory

import (
	"context"
	"fmt"
	"sync"

	"moneyrider/internal/core"
	"moneyrider/internal/store"
	"moneyrider/internal/store/jsonfile"
)

// Store keeps accounts and ledgers in process memory. Values are deep copied
// on the way in and out, so callers never share state with the store.
type Store struct {
	mu       sync.Mutex
	accounts map[string]string
	ledgers  map[string]core.Ledger

	// failSaves makes SaveLedger and SaveAccounts fail with
	// ErrStorageUnavailable, to exercise rollback paths.
	failSaves bool
}

func New() *Store {
	return &Store{
		accounts: map[string]string{},
		ledgers:  map[string]core.Ledger{},
	}
}

// NewFromFiles seeds a memory store from an accounts file and users
// directory in the JSON file layout. Later saves stay in memory.
func NewFromFiles(ctx context.Context, accountsPath, usersDir string) (*Store, error) {
	src := jsonfile.New(accountsPath, usersDir, nil)
	accounts, err := src.LoadAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed accounts: %w", err)
	}
	s := New()
	s.accounts = accounts
	for username := range accounts {
		l, err := src.LoadLedger(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("seed ledger of %s: %w", username, err)
		}
		s.ledgers[username] = l
	}
	return s, nil
}

// SetFailSaves toggles failing saves.
func (s *Store) SetFailSaves(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = fail
}

// LoadAccounts implements store.AccountStore.
func (s *Store) LoadAccounts(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.CloneAccounts(s.accounts), nil
}

// SaveAccounts implements store.AccountStore.
func (s *Store) SaveAccounts(_ context.Context, accounts map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return fmt.Errorf("%w: memory store saves disabled", core.ErrStorageUnavailable)
	}
	s.accounts = store.CloneAccounts(accounts)
	return nil
}

// LoadLedger implements store.LedgerStore.
func (s *Store) LoadLedger(_ context.Context, username string) (core.Ledger, error) {
	if err := core.ValidateUsername(username); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[username]
	if !ok {
		return core.Ledger{}, nil
	}
	return l.Clone(), nil
}

// SaveLedger implements store.LedgerStore.
func (s *Store) SaveLedger(_ context.Context, username string, l core.Ledger) error {
	if err := core.ValidateUsername(username); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return fmt.Errorf("%w: memory store saves disabled", core.ErrStorageUnavailable)
	}
	s.ledgers[username] = l.Clone()
	return nil
}
