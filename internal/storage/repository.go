package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"moneyrider/internal/core"
	"moneyrider/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores accounts and ledgers in a SQLite database. It
// implements store.AccountStore and store.LedgerStore.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadAccounts implements store.AccountStore
func (r *SQLiteRepository) LoadAccounts(ctx context.Context) (map[string]string, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list accounts: %v", core.ErrStorageUnavailable, err)
	}
	accounts := make(map[string]string, len(rows))
	for _, row := range rows {
		accounts[row.Username] = row.Password
	}
	return accounts, nil
}

// SaveAccounts implements store.AccountStore. The table is replaced in one
// transaction.
func (r *SQLiteRepository) SaveAccounts(ctx context.Context, accounts map[string]string) error {
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteAccounts(ctx); err != nil {
			return fmt.Errorf("delete accounts: %w", err)
		}
		for username, password := range accounts {
			if err := q.InsertAccount(ctx, Account{Username: username, Password: password}); err != nil {
				return fmt.Errorf("insert account %s: %w", username, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}

	r.logger.DebugContext(ctx, "Accounts saved to SQLite", log.FieldCount, len(accounts))
	return nil
}

// LoadLedger implements store.LedgerStore. A user without rows has an empty
// ledger.
func (r *SQLiteRepository) LoadLedger(ctx context.Context, username string) (core.Ledger, error) {
	if err := core.ValidateUsername(username); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListLedgerDays(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: list ledger days: %v", core.ErrStorageUnavailable, err)
	}

	ledger := make(core.Ledger, len(rows))
	for _, row := range rows {
		date, rec, err := dayFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
		}
		ledger[date] = rec
	}

	r.logger.DebugContext(ctx, "Ledger loaded from SQLite",
		log.FieldUsername, username,
		log.FieldDays, len(ledger))
	return ledger, nil
}

// SaveLedger implements store.LedgerStore. All rows of the user are
// replaced in one transaction.
func (r *SQLiteRepository) SaveLedger(ctx context.Context, username string, l core.Ledger) error {
	if err := core.ValidateUsername(username); err != nil {
		return err
	}

	rows := make([]LedgerDay, 0, len(l))
	for _, date := range l.Dates() {
		row, err := rowFromDay(username, date, l[date])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteLedgerDays(ctx, username); err != nil {
			return fmt.Errorf("delete ledger days: %w", err)
		}
		for _, row := range rows {
			if err := q.InsertLedgerDay(ctx, row); err != nil {
				return fmt.Errorf("insert ledger day %s: %w", row.Day, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}

	r.logger.DebugContext(ctx, "Ledger saved to SQLite",
		log.FieldUsername, username,
		log.FieldDays, len(rows))
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(r.queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func rowFromDay(username string, date core.DateKey, rec core.DayRecord) (LedgerDay, error) {
	entries, err := json.Marshal(nonNil(rec.Entries))
	if err != nil {
		return LedgerDay{}, fmt.Errorf("encode entries of %s: %w", date, err)
	}
	expenseEntries, err := json.Marshal(nonNil(rec.ExpenseEntries))
	if err != nil {
		return LedgerDay{}, fmt.Errorf("encode expense entries of %s: %w", date, err)
	}
	return LedgerDay{
		Username:       username,
		Day:            date.String(),
		Income:         rec.Income.String(),
		Expenses:       rec.Expenses.String(),
		Entries:        string(entries),
		ExpenseEntries: string(expenseEntries),
	}, nil
}

func dayFromRow(row LedgerDay) (core.DateKey, core.DayRecord, error) {
	date, err := core.ParseDateKey(row.Day)
	if err != nil {
		return "", core.DayRecord{}, err
	}
	income, err := decimal.NewFromString(row.Income)
	if err != nil {
		return "", core.DayRecord{}, fmt.Errorf("income of %s: %w", row.Day, err)
	}
	expenses, err := decimal.NewFromString(row.Expenses)
	if err != nil {
		return "", core.DayRecord{}, fmt.Errorf("expenses of %s: %w", row.Day, err)
	}
	var entries, expenseEntries []core.LineItem
	if err := json.Unmarshal([]byte(row.Entries), &entries); err != nil {
		return "", core.DayRecord{}, fmt.Errorf("entries of %s: %w", row.Day, err)
	}
	if err := json.Unmarshal([]byte(row.ExpenseEntries), &expenseEntries); err != nil {
		return "", core.DayRecord{}, fmt.Errorf("expense entries of %s: %w", row.Day, err)
	}
	return date, core.DayRecord{
		Income:         income,
		Expenses:       expenses,
		Entries:        nonNil(entries),
		ExpenseEntries: nonNil(expenseEntries),
	}, nil
}

func nonNil(items []core.LineItem) []core.LineItem {
	if items == nil {
		return []core.LineItem{}
	}
	return items
}
