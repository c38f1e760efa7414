package services

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"moneyrider/internal/core"
	"moneyrider/internal/log"
	"moneyrider/internal/store"
)

// UserLister lists registered usernames.
type UserLister interface {
	Usernames(ctx context.Context) ([]string, error)
}

// Finding is one problem found by an audit.
type Finding struct {
	Username string
	Date     core.DateKey // empty when the whole ledger failed to load
	Record   core.DayRecord
	Err      error
}

func (f Finding) String() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Username, f.Err)
	}
	want := core.NewDayRecord(f.Record.Entries, f.Record.ExpenseEntries)
	return fmt.Sprintf("%s %s: cached income=%s expenses=%s, items sum to income=%s expenses=%s",
		f.Username, f.Date, f.Record.Income, f.Record.Expenses, want.Income, want.Expenses)
}

// AuditReport lists DayRecords whose cached totals disagree with their line
// items and ledgers that could not be loaded.
type AuditReport struct {
	Users        int
	Days         int
	Inconsistent []Finding
	Unreadable   []Finding
}

// OK reports whether the audit found nothing.
func (r AuditReport) OK() bool {
	return len(r.Inconsistent) == 0 && len(r.Unreadable) == 0
}

// Auditor checks stored ledgers without changing them.
type Auditor struct {
	users       UserLister
	ledgers     store.LedgerStore
	concurrency int
	logger      *log.Logger
}

func NewAuditor(users UserLister, ledgers store.LedgerStore, concurrency int, logger *log.Logger) *Auditor {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Auditor{
		users:       users,
		ledgers:     ledgers,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentAudit),
	}
}

type userAudit struct {
	days         int
	inconsistent []Finding
	unreadable   *Finding
}

// Audit loads every user's ledger, at most concurrency at a time. Findings
// are ordered by username, then date.
func (a *Auditor) Audit(ctx context.Context) (AuditReport, error) {
	names, err := a.users.Usernames(ctx)
	if err != nil {
		return AuditReport{}, fmt.Errorf("list users: %w", err)
	}
	slices.Sort(names)

	results := make([]userAudit, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.auditUser(gctx, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AuditReport{}, err
	}

	report := AuditReport{Users: len(names)}
	for _, r := range results {
		report.Days += r.days
		report.Inconsistent = append(report.Inconsistent, r.inconsistent...)
		if r.unreadable != nil {
			report.Unreadable = append(report.Unreadable, *r.unreadable)
		}
	}

	a.logger.InfoContext(ctx, "Audit finished",
		log.FieldOperation, log.OpAudit,
		log.FieldCount, report.Users,
		log.FieldDays, report.Days,
		"inconsistent", len(report.Inconsistent),
		"unreadable", len(report.Unreadable))
	return report, nil
}

func (a *Auditor) auditUser(ctx context.Context, username string) userAudit {
	l, err := a.ledgers.LoadLedger(ctx, username)
	if err != nil {
		a.logger.WarnFields(ctx, "Ledger unreadable", log.NewFields().
			WithOperation(log.OpAudit).
			WithUser(username).
			WithError(err))
		return userAudit{unreadable: &Finding{Username: username, Err: err}}
	}
	out := userAudit{days: len(l)}
	for _, date := range l.Dates() {
		rec := l[date]
		if !rec.Consistent() {
			out.inconsistent = append(out.inconsistent, Finding{Username: username, Date: date, Record: rec})
		}
	}
	return out
}
