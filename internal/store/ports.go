// Package store declares the persistence ports of the ledger. Backends live
// in subpackages (jsonfile, memory) and in internal/storage (sqlite).
package store

import (
	"context"

	"moneyrider/internal/core"
)

// Ports for outbound adapters.
type (
	// AccountStore persists the username to password map as a whole.
	AccountStore interface {
		// LoadAccounts returns the full map. A store with no accounts yet
		// returns an empty map.
		LoadAccounts(ctx context.Context) (map[string]string, error)

		// SaveAccounts replaces the full map.
		SaveAccounts(ctx context.Context, accounts map[string]string) error
	}

	// LedgerStore persists one Ledger per user.
	LedgerStore interface {
		// LoadLedger returns the user's ledger, or an empty one when the
		// user has none stored. Unreadable data is ErrStorageUnavailable.
		LoadLedger(ctx context.Context, username string) (core.Ledger, error)

		// SaveLedger replaces the user's stored ledger with l.
		SaveLedger(ctx context.Context, username string, l core.Ledger) error
	}

	// Store is a backend serving both ports.
	Store interface {
		AccountStore
		LedgerStore
	}
)

// CloneAccounts copies an account map; nil becomes an empty map.
func CloneAccounts(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
