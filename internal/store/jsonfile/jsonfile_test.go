package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moneyrider/internal/core"
	"moneyrider/internal/store"
)

var _ store.Store = (*Store)(nil)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "accounts.json"), filepath.Join(dir, "users"), nil), dir
}

func mustItem(t *testing.T, label, amount string) core.LineItem {
	t.Helper()
	it, err := core.NewLineItem(label, amount)
	if err != nil {
		t.Fatalf("NewLineItem(%q, %q): %v", label, amount, err)
	}
	return it
}

func TestAccountsRoundTrip(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	got, err := s.LoadAccounts(ctx)
	if err != nil {
		t.Fatalf("LoadAccounts on missing file: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty accounts, got %v", got)
	}

	want := map[string]string{"bob": "hunter2", "alice": "pw123"}
	if err := s.SaveAccounts(ctx, want); err != nil {
		t.Fatalf("SaveAccounts: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "accounts.json"))
	if err != nil {
		t.Fatalf("read accounts file: %v", err)
	}
	wantRaw := "{\n  \"alice\": \"pw123\",\n  \"bob\": \"hunter2\"\n}\n"
	if string(raw) != wantRaw {
		t.Errorf("accounts file =\n%s\nwant\n%s", raw, wantRaw)
	}

	got, err = s.LoadAccounts(ctx)
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if len(got) != 2 || got["alice"] != "pw123" || got["bob"] != "hunter2" {
		t.Errorf("LoadAccounts = %v, want %v", got, want)
	}
}

func TestLoadAccountsCorrupt(t *testing.T) {
	s, dir := newTestStore(t)
	if err := os.WriteFile(filepath.Join(dir, "accounts.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := s.LoadAccounts(context.Background())
	if !errors.Is(err, core.ErrStorageUnavailable) {
		t.Errorf("LoadAccounts error = %v, want ErrStorageUnavailable", err)
	}
}

func TestLoadLedgerMissingIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	l, err := s.LoadLedger(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if l == nil || len(l) != 0 {
		t.Errorf("LoadLedger = %v, want empty non-nil ledger", l)
	}
}

func TestSaveEmptyLedgerWritesBraces(t *testing.T) {
	s, dir := newTestStore(t)
	if err := s.SaveLedger(context.Background(), "alice", core.Ledger{}); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "users", "alice.json"))
	if err != nil {
		t.Fatalf("read ledger file: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "{}" {
		t.Errorf("ledger file = %q, want {}", raw)
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	want := core.Ledger{
		core.MustParseDateKey("2024-03-01"): core.NewDayRecord(
			[]core.LineItem{mustItem(t, "salary", "500")},
			[]core.LineItem{mustItem(t, "Food", "120.5")},
		),
		core.MustParseDateKey("2024-03-02"): core.NewDayRecord(nil, nil),
	}
	if err := s.SaveLedger(ctx, "alice", want); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}
	got, err := s.LoadLedger(ctx, "alice")
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestSaveLedgerOverwrites(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()
	day := core.MustParseDateKey("2024-03-01")

	first := core.Ledger{day: core.NewDayRecord([]core.LineItem{mustItem(t, "a", "1")}, nil)}
	second := core.Ledger{day: core.NewDayRecord([]core.LineItem{mustItem(t, "b", "2")}, nil)}
	if err := s.SaveLedger(ctx, "alice", first); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveLedger(ctx, "alice", second); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadLedger(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(second) {
		t.Errorf("LoadLedger = %+v, want %+v", got, second)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "users"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the ledger file, found %d entries", len(entries))
	}
}

func TestLoadLedgerCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated", `{"2024-03-01": {"income": 5`},
		{"not an object", `[1, 2, 3]`},
		{"bad date key", `{"March 1": {"income": 0, "expenses": 0, "entries": [], "expense_entries": []}}`},
		{"bad line item", `{"2024-03-01": {"income": 0, "expenses": 0, "entries": [["x"]], "expense_entries": []}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, dir := newTestStore(t)
			users := filepath.Join(dir, "users")
			if err := os.MkdirAll(users, 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(users, "alice.json"), []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := s.LoadLedger(context.Background(), "alice")
			if !errors.Is(err, core.ErrStorageUnavailable) {
				t.Errorf("LoadLedger error = %v, want ErrStorageUnavailable", err)
			}
		})
	}
}

func TestLedgerPathRejectsTraversal(t *testing.T) {
	s, _ := newTestStore(t)
	for _, name := range []string{"", "..", "../evil", `a\b`, "a/b"} {
		if _, err := s.LedgerPath(name); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("LedgerPath(%q) error = %v, want ErrInvalidInput", name, err)
		}
		if err := s.SaveLedger(context.Background(), name, core.Ledger{}); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("SaveLedger(%q) error = %v, want ErrInvalidInput", name, err)
		}
	}
}

func TestSaveLedgerUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "users")
	// a regular file where the users directory should be
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(filepath.Join(dir, "accounts.json"), blocker, nil)
	err := s.SaveLedger(context.Background(), "alice", core.Ledger{})
	if !errors.Is(err, core.ErrStorageUnavailable) {
		t.Errorf("SaveLedger error = %v, want ErrStorageUnavailable", err)
	}
}
