package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Account struct {
	Username string
	Password string
}

type LedgerDay struct {
	Username       string
	Day            string
	Income         string
	Expenses       string
	Entries        string
	ExpenseEntries string
}

const listAccounts = `SELECT username, password FROM accounts ORDER BY username`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.Username, &i.Password); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAccounts = `DELETE FROM accounts`

func (q *Queries) DeleteAccounts(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAccounts)
	return err
}

const insertAccount = `INSERT INTO accounts (username, password) VALUES (?, ?)`

func (q *Queries) InsertAccount(ctx context.Context, arg Account) error {
	_, err := q.db.ExecContext(ctx, insertAccount, arg.Username, arg.Password)
	return err
}

const listLedgerDays = `SELECT username, day, income, expenses, entries, expense_entries
FROM ledger_days
WHERE username = ?
ORDER BY day`

func (q *Queries) ListLedgerDays(ctx context.Context, username string) ([]LedgerDay, error) {
	rows, err := q.db.QueryContext(ctx, listLedgerDays, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerDay
	for rows.Next() {
		var i LedgerDay
		if err := rows.Scan(
			&i.Username,
			&i.Day,
			&i.Income,
			&i.Expenses,
			&i.Entries,
			&i.ExpenseEntries,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteLedgerDays = `DELETE FROM ledger_days WHERE username = ?`

func (q *Queries) DeleteLedgerDays(ctx context.Context, username string) error {
	_, err := q.db.ExecContext(ctx, deleteLedgerDays, username)
	return err
}

const insertLedgerDay = `INSERT INTO ledger_days (username, day, income, expenses, entries, expense_entries)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertLedgerDay(ctx context.Context, arg LedgerDay) error {
	_, err := q.db.ExecContext(ctx, insertLedgerDay,
		arg.Username,
		arg.Day,
		arg.Income,
		arg.Expenses,
		arg.Entries,
		arg.ExpenseEntries,
	)
	return err
}
