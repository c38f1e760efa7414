// Package jsonfile stores accounts and ledgers as JSON files: one accounts
// file mapping username to password and one ledger file per user under a
// users directory.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"moneyrider/internal/core"
	"moneyrider/internal/log"
)

const (
	fileMode = 0o644
	dirMode  = 0o755
)

type Store struct {
	mu           sync.Mutex
	accountsPath string
	usersDir     string
	logger       *log.Logger
}

// New returns a store for the given accounts file and users directory.
// Nothing is created until the first save.
func New(accountsPath, usersDir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{
		accountsPath: accountsPath,
		usersDir:     usersDir,
		logger:       logger.WithComponent(log.ComponentStorage),
	}
}

// LedgerPath returns the file holding username's ledger.
func (s *Store) LedgerPath(username string) (string, error) {
	if err := core.ValidateUsername(username); err != nil {
		return "", err
	}
	return filepath.Join(s.usersDir, username+".json"), nil
}

// LoadAccounts implements store.AccountStore.
func (s *Store) LoadAccounts(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.accountsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read accounts: %v", core.ErrStorageUnavailable, err)
	}

	accounts := map[string]string{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &accounts); err != nil {
			return nil, fmt.Errorf("%w: parse accounts %s: %v", core.ErrStorageUnavailable, s.accountsPath, err)
		}
	}
	s.logger.DebugContext(ctx, "Accounts loaded",
		log.FieldPath, s.accountsPath,
		log.FieldCount, len(accounts))
	return accounts, nil
}

// SaveAccounts implements store.AccountStore.
func (s *Store) SaveAccounts(ctx context.Context, accounts map[string]string) error {
	if accounts == nil {
		accounts = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(accounts); err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFileAtomic(s.accountsPath, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: write accounts: %v", core.ErrStorageUnavailable, err)
	}
	s.logger.DebugContext(ctx, "Accounts saved",
		log.FieldPath, s.accountsPath,
		log.FieldCount, len(accounts))
	return nil
}

// LoadLedger implements store.LedgerStore.
func (s *Store) LoadLedger(ctx context.Context, username string) (core.Ledger, error) {
	path, err := s.LedgerPath(username)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Ledger{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open ledger: %v", core.ErrStorageUnavailable, err)
	}
	defer f.Close()

	ledger, err := core.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrStorageUnavailable, path, err)
	}
	s.logger.DebugContext(ctx, "Ledger loaded",
		log.FieldUsername, username,
		log.FieldPath, path,
		log.FieldDays, len(ledger))
	return ledger, nil
}

// SaveLedger implements store.LedgerStore. The file is replaced atomically.
func (s *Store) SaveLedger(ctx context.Context, username string, l core.Ledger) error {
	path, err := s.LedgerPath(username)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := core.EncodeLedger(&buf, l); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: write ledger: %v", core.ErrStorageUnavailable, err)
	}
	s.logger.DebugContext(ctx, "Ledger saved",
		log.FieldUsername, username,
		log.FieldPath, path,
		log.FieldDays, len(l))
	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// over path, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
