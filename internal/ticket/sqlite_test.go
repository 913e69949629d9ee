package ticket

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/h1v3-io/tix/pkg/protocol"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteEmpty(t *testing.T) {
	s := newTestSQLite(t)
	tickets, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tickets) != 0 {
		t.Fatalf("expected 0 tickets, got %d", len(tickets))
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	created := time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)

	in := []*protocol.Ticket{
		{
			ID: "t-002", Title: "Second", Description: "stored first", CreationDate: created.Add(time.Hour),
			Status: protocol.TicketOpen, Notes: []protocol.Note{},
		},
		{
			ID: "t-001", Title: "Printer jam", Description: "out of toner", PhoneNumber: "555-1234",
			CreationDate: created, Status: protocol.TicketPending,
			Notes: []protocol.Note{
				{Text: "Toner ordered", Timestamp: created.Add(time.Minute)},
				{Text: "Toner arrived", Timestamp: created.Add(2 * time.Minute)},
			},
		},
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(out))
	}
	// Store order is preserved, not ID order.
	for i := range in {
		assertSameTicket(t, in[i], out[i])
	}
}

func TestSQLiteSaveReplaces(t *testing.T) {
	s := newTestSQLite(t)
	created := time.Now().Truncate(time.Second)

	first := []*protocol.Ticket{
		{ID: "a", Title: "a", Description: "a", CreationDate: created, Status: protocol.TicketOpen,
			Notes: []protocol.Note{{Text: "n", Timestamp: created}}},
		{ID: "b", Title: "b", Description: "b", CreationDate: created, Status: protocol.TicketOpen},
	}
	s.Save(first)
	s.Save(first[1:])

	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 || out[0].ID != "b" {
		t.Fatalf("expected only ticket b, got %+v", out)
	}

	var notes int
	s.DB().QueryRow(`SELECT COUNT(*) FROM ticket_notes`).Scan(&notes)
	if notes != 0 {
		t.Errorf("expected orphaned notes to be removed, got %d", notes)
	}
}

func TestSQLiteStoreIntegration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.db")
	backend, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	st, err := Open(backend, discardLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := st.Create("Printer jam", "out of toner", "555-1234"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.AddNote("0", "Toner ordered"); err != nil {
		t.Fatalf("note: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	backend, err = NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	st, err = Open(backend, discardLogger())
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer backend.Close()
	e, err := st.Get(0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.Ticket.Title != "Printer jam" || len(e.Ticket.Notes) != 1 {
		t.Errorf("unexpected ticket after reopen: %+v", e.Ticket)
	}
}
