package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"eventmigrate/backend/internal/importer"
	"eventmigrate/backend/internal/source"

	"golang.org/x/crypto/bcrypt"
)

type fakeImporter struct {
	req importer.Request
	err error
}

func (f *fakeImporter) ImportEvents(ctx context.Context, req importer.Request) ([]string, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	slugs := make([]string, len(req.EventIDs))
	for i := range req.EventIDs {
		slugs[i] = "event-" + string(rune('a'+i))
	}
	return slugs, nil
}

type fakeAccounts struct {
	eventIDs []int64
	userErr  error
}

func (f *fakeAccounts) FindEventIDs(ctx context.Context) ([]int64, error) {
	return f.eventIDs, nil
}

func (f *fakeAccounts) FindUserID(ctx context.Context, email string) (int64, error) {
	return 7, f.userErr
}

func (f *fakeAccounts) UserEvents(ctx context.Context, userID int64) ([]source.EventSummary, error) {
	return []source.EventSummary{{ID: 12, Identifier: "conf2024", Title: "Conference", SelectedDate: "2024-05-01", Status: "LIVE"}}, nil
}

type harness struct {
	imp      *fakeImporter
	accounts *fakeAccounts
	closed   int
	apiKeys  []string
}

func (h *harness) deps() Deps {
	return Deps{
		Importer: func(ctx context.Context) (Importer, func(), error) {
			return h.imp, func() { h.closed++ }, nil
		},
		Accounts: func(apiKey string) (Accounts, error) {
			h.apiKeys = append(h.apiKeys, apiKey)
			return h.accounts, nil
		},
		Migrate: func(ctx context.Context) ([]string, error) {
			return []string{"001_init.sql"}, nil
		},
	}
}

func run(t *testing.T, deps Deps, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SOURCE_API_KEY", "")
	cmd := NewRootCmd(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportCommand(t *testing.T) {
	h := &harness{imp: &fakeImporter{}, accounts: &fakeAccounts{}}
	out, err := run(t, h.deps(), "", "import", "--organizer", "acme", "--api-key", "k", "--event", "12", "--event", "13", "--orders")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := h.imp.req.EventIDs; len(got) != 2 || got[0] != 12 || got[1] != 13 {
		t.Fatalf("unexpected event ids %v", got)
	}
	if !h.imp.req.WithOrders || h.imp.req.WithVouchers || h.imp.req.Organizer != "acme" {
		t.Fatalf("unexpected request %#v", h.imp.req)
	}
	if out != "12\tevent-a\n13\tevent-b\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if h.closed != 1 {
		t.Fatalf("expected resources closed once, got %d", h.closed)
	}
}

func TestImportCommandAllEvents(t *testing.T) {
	h := &harness{imp: &fakeImporter{}, accounts: &fakeAccounts{eventIDs: []int64{5, 6, 7}}}
	if _, err := run(t, h.deps(), "", "import", "--organizer", "acme", "--api-key", "k", "--all"); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(h.imp.req.EventIDs) != 3 || h.apiKeys[0] != "k" {
		t.Fatalf("unexpected request %#v", h.imp.req)
	}
}

func TestImportCommandValidation(t *testing.T) {
	h := &harness{imp: &fakeImporter{}, accounts: &fakeAccounts{}}
	if _, err := run(t, h.deps(), "", "import", "--organizer", "acme", "--event", "1"); err == nil {
		t.Fatalf("expected error without api key")
	}
	if _, err := run(t, h.deps(), "", "import", "--organizer", "acme", "--api-key", "k"); err == nil {
		t.Fatalf("expected error without events")
	}
	if _, err := run(t, h.deps(), "", "import", "--organizer", "acme", "--api-key", "k", "--all", "--event", "1"); err == nil {
		t.Fatalf("expected error for --all with --event")
	}
	if h.closed != 0 {
		t.Fatalf("importer should not be opened for invalid input")
	}
}

func TestImportCommandReportsFailingEvent(t *testing.T) {
	h := &harness{imp: &fakeImporter{err: &importer.EventImportError{EventID: 13, Err: errors.New("boom")}}, accounts: &fakeAccounts{}}
	out, err := run(t, h.deps(), "", "import", "--organizer", "acme", "--api-key", "k", "--event", "13")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(out, "event 13 failed") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestEventsCommand(t *testing.T) {
	h := &harness{imp: &fakeImporter{}, accounts: &fakeAccounts{}}
	out, err := run(t, h.deps(), "", "events", "--api-key", "k", "--email", "ada@example.com")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if !strings.Contains(out, "conf2024") || !strings.HasPrefix(out, "ID") {
		t.Fatalf("unexpected output %q", out)
	}

	h.accounts.userErr = source.ErrAccountNotFound
	if _, err := run(t, h.deps(), "", "events", "--api-key", "k", "--email", "ada@example.com"); !errors.Is(err, source.ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
}

func TestMigrateCommand(t *testing.T) {
	h := &harness{}
	out, err := run(t, h.deps(), "", "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if out != "applied 001_init.sql\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := run(t, Deps{}, "s3cret\n", "hash-password", "--cost", "4")
	if err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	hash := strings.TrimSpace(out)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Fatalf("hash does not match: %v", err)
	}
	if _, err := run(t, Deps{}, "\n", "hash-password"); err == nil {
		t.Fatalf("expected error for empty password")
	}
}
