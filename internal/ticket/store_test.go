package ticket

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/h1v3-io/tix/pkg/protocol"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*Store, *JSONFile) {
	t.Helper()
	f := NewJSONFile(filepath.Join(t.TempDir(), "tickets.json"))
	s, err := Open(f, discardLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, f
}

// seedStore writes tickets directly through the backend and opens a store over them.
func seedStore(t *testing.T, tickets []*protocol.Ticket) *Store {
	t.Helper()
	f := NewJSONFile(filepath.Join(t.TempDir(), "tickets.json"))
	if err := f.Save(tickets); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := Open(f, discardLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestCreatePersists(t *testing.T) {
	s, f := newTestStore(t)

	e, err := s.Create("Printer jam", "3rd floor printer out of toner", "555-1234")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Index != 0 || s.Len() != 1 {
		t.Fatalf("expected one ticket at index 0, got index %d len %d", e.Index, s.Len())
	}

	loaded, err := f.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 persisted ticket, got %d", len(loaded))
	}
	assertSameTicket(t, e.Ticket, loaded[0])
}

func TestCreateRejectsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	cases := []struct{ title, desc string }{
		{"", "desc"},
		{"title", ""},
		{"   ", "desc"},
	}
	for _, tt := range cases {
		if _, err := s.Create(tt.title, tt.desc, ""); !errors.Is(err, ErrEmptyField) {
			t.Errorf("Create(%q, %q): expected ErrEmptyField, got %v", tt.title, tt.desc, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("expected no tickets after rejected creates, got %d", s.Len())
	}

	if _, err := s.Create("title", "desc", ""); err != nil {
		t.Errorf("empty phone should be allowed: %v", err)
	}
}

func TestScenario(t *testing.T) {
	s, f := newTestStore(t)

	e, _ := s.Create("Printer jam", "3rd floor printer out of toner", "555-1234")
	if e.Ticket.Status != protocol.TicketOpen || !e.Ticket.IsOpen() || len(e.Ticket.Notes) != 0 {
		t.Fatalf("unexpected new ticket: %+v", e.Ticket)
	}

	if _, err := s.AddNote("0", "Toner ordered"); err != nil {
		t.Fatalf("note: %v", err)
	}
	if len(e.Ticket.Notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(e.Ticket.Notes))
	}

	if _, err := s.SetPending("0"); err != nil {
		t.Fatalf("pending: %v", err)
	}
	if e.Ticket.Status != protocol.TicketPending || !e.Ticket.IsOpen() {
		t.Fatalf("expected pending and open, got %q", e.Ticket.Status)
	}

	if _, err := s.CloseTicket("0"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if e.Ticket.IsOpen() || e.Ticket.Status != protocol.TicketClosed {
		t.Fatalf("expected closed, got %q", e.Ticket.Status)
	}

	loaded, _ := f.Load()
	if loaded[0].Status != protocol.TicketClosed || len(loaded[0].Notes) != 1 {
		t.Errorf("persisted state mismatch: %+v", loaded[0])
	}

	if _, err := s.Reopen("0"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !e.Ticket.IsOpen() {
		t.Error("expected reopened ticket to be open")
	}
	if _, err := s.Reopen("0"); !errors.Is(err, protocol.ErrAlreadyOpen) {
		t.Errorf("expected ErrAlreadyOpen, got %v", err)
	}
}

func TestUnpend(t *testing.T) {
	s, _ := newTestStore(t)
	s.Create("a", "b", "")

	if _, err := s.Unpend("0"); !errors.Is(err, protocol.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for open ticket, got %v", err)
	}
	s.SetPending("0")
	e, err := s.Unpend("0")
	if err != nil {
		t.Fatalf("unpend: %v", err)
	}
	if e.Ticket.Status != protocol.TicketOpen {
		t.Errorf("expected open, got %q", e.Ticket.Status)
	}
}

func TestEdits(t *testing.T) {
	s, f := newTestStore(t)
	s.Create("Old", "old desc", "111")

	if _, err := s.SetTitle("0", "New"); err != nil {
		t.Fatalf("title: %v", err)
	}
	if _, err := s.SetDescription("0", "new desc"); err != nil {
		t.Fatalf("description: %v", err)
	}
	if _, err := s.SetPhone("0", ""); err != nil {
		t.Fatalf("phone: %v", err)
	}
	if _, err := s.SetTitle("0", " "); !errors.Is(err, ErrEmptyField) {
		t.Errorf("expected ErrEmptyField for blank title, got %v", err)
	}
	if _, err := s.SetDescription("0", ""); !errors.Is(err, ErrEmptyField) {
		t.Errorf("expected ErrEmptyField for blank description, got %v", err)
	}
	if _, err := s.AddNote("0", ""); !errors.Is(err, ErrEmptyField) {
		t.Errorf("expected ErrEmptyField for blank note, got %v", err)
	}

	loaded, _ := f.Load()
	got := loaded[0]
	if got.Title != "New" || got.Description != "new desc" || got.PhoneNumber != "" {
		t.Errorf("unexpected persisted ticket: %+v", got)
	}
}

func TestNotesMonotonic(t *testing.T) {
	s, _ := newTestStore(t)
	e, _ := s.Create("a", "b", "")

	prev := 0
	ops := []func(){
		func() { s.AddNote("0", "one") },
		func() { s.SetPending("0") },
		func() { s.AddNote("0", "one") },
		func() { s.CloseTicket("0") },
		func() { s.Reopen("0") },
		func() { s.SetTitle("0", "c") },
		func() { s.AddNote("0", "three") },
	}
	for i, op := range ops {
		op()
		if n := len(e.Ticket.Notes); n < prev {
			t.Fatalf("step %d: notes shrank from %d to %d", i, prev, n)
		} else {
			prev = n
		}
	}
	if prev != 3 {
		t.Errorf("expected 3 notes (duplicates kept), got %d", prev)
	}
}

func TestResolve(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	s := seedStore(t, []*protocol.Ticket{
		{ID: "abcd-1111", Title: "a", Description: "a", CreationDate: created, Status: protocol.TicketOpen},
		{ID: "abcd-2222", Title: "b", Description: "b", CreationDate: created, Status: protocol.TicketOpen},
		{ID: "ffff-3333", Title: "c", Description: "c", CreationDate: created, Status: protocol.TicketOpen},
	})

	cases := []struct {
		ref   string
		index int
		err   error
	}{
		{"1", 1, nil},
		{" 2 ", 2, nil},
		{"3", 0, ErrNotFound},
		{"-1", 0, ErrNotFound},
		{"", 0, ErrNotFound},
		{"abcd-2222", 1, nil},
		{"ffff", 2, nil},
		{"abcd", 0, ErrAmbiguous},
		{"abc", 0, ErrNotFound},
		{"zzzz", 0, ErrNotFound},
	}
	for _, tt := range cases {
		e, err := s.Resolve(tt.ref)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("Resolve(%q): expected %v, got %v", tt.ref, tt.err, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Resolve(%q): %v", tt.ref, err)
			continue
		}
		if e.Index != tt.index {
			t.Errorf("Resolve(%q) = index %d, want %d", tt.ref, e.Index, tt.index)
		}
	}

	if s.IndexOf("ffff-3333") != 2 || s.IndexOf("nope") != -1 {
		t.Error("IndexOf returned unexpected values")
	}
}

func TestMutationOnMissingTicket(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.AddNote("0", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.CloseTicket("5"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	s := seedStore(t, []*protocol.Ticket{
		{ID: "1", Title: "Printer Jam", Description: "Toner empty", PhoneNumber: "555-1234", CreationDate: created, Status: protocol.TicketOpen},
		{ID: "2", Title: "printer offline", Description: "network", PhoneNumber: "555-9999", CreationDate: created, Status: protocol.TicketPending},
		{ID: "3", Title: "Printer fire", Description: "TONER smoke", PhoneNumber: "555-1234", CreationDate: created, Status: protocol.TicketClosed},
	})

	cases := []struct {
		field SearchField
		term  string
		want  []int
	}{
		{FieldTitle, "PRINTER", []int{0, 1}},
		{FieldTitle, "jam", []int{0}},
		{FieldDescription, "toner", []int{0}},
		{FieldPhone, "1234", []int{0}},
		{FieldPhone, "555", []int{0, 1}},
		{FieldTitle, "scanner", nil},
		{FieldTitle, "  ", nil},
	}
	for _, tt := range cases {
		got := s.Search(tt.field, tt.term)
		if len(got) != len(tt.want) {
			t.Errorf("Search(%s, %q): got %d results, want %d", tt.field, tt.term, len(got), len(tt.want))
			continue
		}
		for i, e := range got {
			if e.Index != tt.want[i] {
				t.Errorf("Search(%s, %q)[%d] = index %d, want %d", tt.field, tt.term, i, e.Index, tt.want[i])
			}
			if !e.Ticket.IsOpen() {
				t.Errorf("Search(%s, %q) returned closed ticket %d", tt.field, tt.term, e.Index)
			}
		}
	}
}

func TestQueries(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	s := seedStore(t, []*protocol.Ticket{
		{ID: "1", Title: "a", Description: "a", CreationDate: created, Status: protocol.TicketOpen},
		{ID: "2", Title: "b", Description: "b", CreationDate: created, Status: protocol.TicketPending},
		{ID: "3", Title: "c", Description: "c", CreationDate: created, Status: protocol.TicketClosed},
		{ID: "4", Title: "d", Description: "d", CreationDate: created, Status: protocol.TicketOpen},
	})

	if n := len(s.OpenTickets()); n != 3 {
		t.Errorf("expected 3 open (incl. pending), got %d", n)
	}
	if n := len(s.PendingTickets()); n != 1 {
		t.Errorf("expected 1 pending, got %d", n)
	}
	closed := s.ClosedTickets()
	if len(closed) != 1 || closed[0].Index != 2 {
		t.Errorf("unexpected closed set: %+v", closed)
	}
	if n := len(s.List(Filter{Limit: 2})); n != 2 {
		t.Errorf("expected limit 2, got %d", n)
	}
}

func TestGroupedSortsNewestFirst(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.Local)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)
	s := seedStore(t, []*protocol.Ticket{
		{ID: "o1", Title: "o1", Description: "x", CreationDate: t1, Status: protocol.TicketOpen},
		{ID: "o3", Title: "o3", Description: "x", CreationDate: t3, Status: protocol.TicketOpen},
		{ID: "c2", Title: "c2", Description: "x", CreationDate: t2, Status: protocol.TicketClosed},
		{ID: "o2", Title: "o2", Description: "x", CreationDate: t2, Status: protocol.TicketOpen},
		{ID: "o2b", Title: "o2b", Description: "x", CreationDate: t2, Status: protocol.TicketOpen},
	})

	g := s.Grouped()
	var ids []string
	for _, e := range g.Open {
		ids = append(ids, e.Ticket.ID)
	}
	want := []string{"o3", "o2", "o2b", "o1"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
	if len(g.Pending) != 0 {
		t.Errorf("expected no pending, got %d", len(g.Pending))
	}
	if len(g.Closed) != 1 || g.Closed[0].Index != 2 {
		t.Errorf("expected closed c2 at index 2, got %+v", g.Closed)
	}
	// Display indices still refer to store positions.
	if g.Open[0].Index != 1 {
		t.Errorf("expected newest open ticket at store index 1, got %d", g.Open[0].Index)
	}
}

func TestCloseFlushes(t *testing.T) {
	s, f := newTestStore(t)
	s.Create("a", "b", "")
	s.tickets[0].AddNote("unsaved")

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	loaded, _ := f.Load()
	if len(loaded[0].Notes) != 1 {
		t.Errorf("expected shutdown save to persist note, got %+v", loaded[0].Notes)
	}
}

func TestParseField(t *testing.T) {
	for in, want := range map[string]SearchField{"title": FieldTitle, "Desc": FieldDescription, "phone": FieldPhone} {
		got, err := ParseField(in)
		if err != nil || got != want {
			t.Errorf("ParseField(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseField("owner"); err == nil {
		t.Error("expected error for unknown field")
	}
}

// flakyBackend keeps tickets in memory and fails saves while broken is set.
type flakyBackend struct {
	saved  []*protocol.Ticket
	broken bool
}

var errDiskFull = errors.New("disk full")

func (b *flakyBackend) Load() ([]*protocol.Ticket, error) { return b.saved, nil }

func (b *flakyBackend) Save(tickets []*protocol.Ticket) error {
	if b.broken {
		return errDiskFull
	}
	b.saved = make([]*protocol.Ticket, len(tickets))
	for i, t := range tickets {
		c := *t
		b.saved[i] = &c
	}
	return nil
}

func (b *flakyBackend) Close() error { return nil }

func TestFailedSaveRollsBack(t *testing.T) {
	b := &flakyBackend{}
	s, err := Open(b, discardLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Create("VPN", "Cannot connect", "555-0100"); err != nil {
		t.Fatalf("create: %v", err)
	}
	b.broken = true

	if _, err := s.Create("Printer jam", "Out of toner", ""); !errors.Is(err, errDiskFull) {
		t.Fatalf("create err = %v, want disk full", err)
	}
	if s.Len() != 1 {
		t.Errorf("failed create left %d tickets, want 1", s.Len())
	}

	steps := []struct {
		name string
		fn   func() (Entry, error)
	}{
		{"title", func() (Entry, error) { return s.SetTitle("0", "VPN outage") }},
		{"description", func() (Entry, error) { return s.SetDescription("0", "Whole floor") }},
		{"phone", func() (Entry, error) { return s.SetPhone("0", "") }},
		{"note", func() (Entry, error) { return s.AddNote("0", "Rebooted router") }},
		{"pending", func() (Entry, error) { return s.SetPending("0") }},
		{"close", func() (Entry, error) { return s.CloseTicket("0") }},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			if _, err := step.fn(); !errors.Is(err, errDiskFull) {
				t.Fatalf("err = %v, want disk full", err)
			}
			e, _ := s.Get(0)
			want := b.saved[0]
			if e.Ticket.Title != want.Title || e.Ticket.Description != want.Description ||
				e.Ticket.PhoneNumber != want.PhoneNumber || e.Ticket.Status != want.Status ||
				len(e.Ticket.Notes) != len(want.Notes) {
				t.Errorf("ticket changed after failed save: %+v, saved %+v", e.Ticket, want)
			}
		})
	}

	// Once the disk recovers, nothing rejected earlier reaches it.
	b.broken = false
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(b.saved) != 1 || b.saved[0].Title != "VPN" || b.saved[0].Status != protocol.TicketOpen {
		t.Errorf("saved after recovery = %+v", b.saved)
	}
}
