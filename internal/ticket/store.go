package ticket

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/h1v3-io/tix/pkg/protocol"
)

// Backend persists the full ticket collection.
type Backend interface {
	// Load returns every stored ticket in order. No stored data is not an error.
	Load() ([]*protocol.Ticket, error)
	// Save replaces the stored collection with tickets.
	Save(tickets []*protocol.Ticket) error
	// Close releases backend resources.
	Close() error
}

// SearchField selects the ticket text a search matches against.
type SearchField string

const (
	FieldTitle       SearchField = "title"
	FieldDescription SearchField = "description"
	FieldPhone       SearchField = "phone"
)

// ParseField converts a user-supplied field name.
func ParseField(s string) (SearchField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "title":
		return FieldTitle, nil
	case "description", "desc":
		return FieldDescription, nil
	case "phone", "phone_number":
		return FieldPhone, nil
	}
	return "", fmt.Errorf("unknown search field %q (title|description|phone)", s)
}

// Filter constrains ticket list queries.
type Filter struct {
	Status   *protocol.TicketStatus
	OpenOnly bool        // excludes closed tickets
	Field    SearchField // with Query: case-insensitive substring match
	Query    string
	Limit    int // 0 = no limit
}

func (f Filter) match(t *protocol.Ticket) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.OpenOnly && !t.IsOpen() {
		return false
	}
	if f.Query != "" {
		var text string
		switch f.Field {
		case FieldDescription:
			text = t.Description
		case FieldPhone:
			text = t.PhoneNumber
		default:
			text = t.Title
		}
		if !strings.Contains(strings.ToLower(text), strings.ToLower(f.Query)) {
			return false
		}
	}
	return true
}

// Entry pairs a ticket with its current display index in the store.
type Entry struct {
	Index  int
	Ticket *protocol.Ticket
}

// Groups is the "show all" partition of the store.
type Groups struct {
	Open    []Entry
	Pending []Entry
	Closed  []Entry
}

// Store is the in-memory ticket collection. Every mutation rewrites the
// whole collection through the backend. A Store is not safe for concurrent use.
type Store struct {
	backend Backend
	logger  *slog.Logger
	tickets []*protocol.Ticket
}

// Open loads the collection from backend.
func Open(backend Backend, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tickets, err := backend.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("Tickets loaded successfully", "count", len(tickets))
	return &Store{backend: backend, logger: logger, tickets: tickets}, nil
}

// Len returns the number of tickets.
func (s *Store) Len() int {
	return len(s.tickets)
}

// All returns every ticket in store order.
func (s *Store) All() []Entry {
	return s.List(Filter{})
}

// Get returns the ticket at display index i.
func (s *Store) Get(i int) (Entry, error) {
	if i < 0 || i >= len(s.tickets) {
		return Entry{}, fmt.Errorf("%w: index %d", ErrNotFound, i)
	}
	return Entry{Index: i, Ticket: s.tickets[i]}, nil
}

// IndexOf returns the display index of the ticket with the given ID, or -1.
func (s *Store) IndexOf(id string) int {
	for i, t := range s.tickets {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Resolve looks up a ticket by display index, full ID, or an ID prefix of at
// least four characters.
func (s *Store) Resolve(ref string) (Entry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Entry{}, fmt.Errorf("%w: empty reference", ErrNotFound)
	}
	if i, err := strconv.Atoi(ref); err == nil {
		return s.Get(i)
	}
	if i := s.IndexOf(ref); i >= 0 {
		return Entry{Index: i, Ticket: s.tickets[i]}, nil
	}
	if len(ref) < 4 {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}

	found := -1
	for i, t := range s.tickets {
		if strings.HasPrefix(t.ID, ref) {
			if found >= 0 {
				return Entry{}, fmt.Errorf("%w: %q", ErrAmbiguous, ref)
			}
			found = i
		}
	}
	if found < 0 {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	return Entry{Index: found, Ticket: s.tickets[found]}, nil
}

// Create appends a new open ticket and persists the collection.
func (s *Store) Create(title, description, phone string) (Entry, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return Entry{}, fmt.Errorf("%w: title and description cannot be empty", ErrEmptyField)
	}

	t := protocol.NewTicket(title, description, strings.TrimSpace(phone))
	s.tickets = append(s.tickets, t)
	e := Entry{Index: len(s.tickets) - 1, Ticket: t}
	if err := s.Save(); err != nil {
		s.tickets = s.tickets[:e.Index]
		return Entry{}, err
	}
	s.logger.Info("Ticket added", "index", e.Index, "title", title)
	return e, nil
}

// SetTitle replaces a ticket's title.
func (s *Store) SetTitle(ref, title string) (Entry, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Entry{}, fmt.Errorf("%w: title", ErrEmptyField)
	}
	return s.update(ref, "Ticket title updated", func(t *protocol.Ticket) { t.Title = title })
}

// SetDescription replaces a ticket's description.
func (s *Store) SetDescription(ref, description string) (Entry, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Entry{}, fmt.Errorf("%w: description", ErrEmptyField)
	}
	return s.update(ref, "Ticket description updated", func(t *protocol.Ticket) { t.Description = description })
}

// SetPhone replaces a ticket's phone number. An empty number is allowed.
func (s *Store) SetPhone(ref, phone string) (Entry, error) {
	phone = strings.TrimSpace(phone)
	return s.update(ref, "Ticket phone updated", func(t *protocol.Ticket) { t.PhoneNumber = phone })
}

// AddNote appends a note to a ticket.
func (s *Store) AddNote(ref, text string) (Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, fmt.Errorf("%w: note", ErrEmptyField)
	}
	return s.update(ref, "Ticket note added", func(t *protocol.Ticket) { t.AddNote(text) })
}

// SetPending moves an open ticket to pending.
func (s *Store) SetPending(ref string) (Entry, error) {
	return s.transition(ref, protocol.ActionPending, "Changed ticket to pending")
}

// Unpend moves a pending ticket back to open.
func (s *Store) Unpend(ref string) (Entry, error) {
	return s.transition(ref, protocol.ActionUnpend, "Reopened ticket from pending")
}

// CloseTicket closes an open or pending ticket.
func (s *Store) CloseTicket(ref string) (Entry, error) {
	return s.transition(ref, protocol.ActionClose, "Ticket closed")
}

// Reopen reopens a closed ticket. Reopening an open ticket returns
// protocol.ErrAlreadyOpen.
func (s *Store) Reopen(ref string) (Entry, error) {
	return s.transition(ref, protocol.ActionReopen, "Ticket reopened")
}

func (s *Store) transition(ref string, action protocol.Action, msg string) (Entry, error) {
	e, err := s.Resolve(ref)
	if err != nil {
		return Entry{}, err
	}
	return s.commit(e, msg, func(t *protocol.Ticket) error {
		if err := t.Apply(action); err != nil {
			return fmt.Errorf("ticket %d: %w", e.Index, err)
		}
		return nil
	})
}

func (s *Store) update(ref, msg string, fn func(t *protocol.Ticket)) (Entry, error) {
	e, err := s.Resolve(ref)
	if err != nil {
		return Entry{}, err
	}
	return s.commit(e, msg, func(t *protocol.Ticket) error {
		fn(t)
		return nil
	})
}

// commit applies fn to the ticket and saves. If fn or the save fails the
// ticket is left as it was.
func (s *Store) commit(e Entry, msg string, fn func(t *protocol.Ticket) error) (Entry, error) {
	before := *e.Ticket
	if err := fn(e.Ticket); err != nil {
		*e.Ticket = before
		return e, err
	}
	if err := s.Save(); err != nil {
		*e.Ticket = before
		return e, err
	}
	s.logger.Info(msg, "index", e.Index, "id", e.Ticket.ID)
	return e, nil
}

// Save writes the whole collection to the backend.
func (s *Store) Save() error {
	if err := s.backend.Save(s.tickets); err != nil {
		s.logger.Error("Tickets save failed", "error", err)
		return err
	}
	s.logger.Debug("Tickets saved successfully", "count", len(s.tickets))
	return nil
}

// Close saves the collection and releases the backend.
func (s *Store) Close() error {
	saveErr := s.Save()
	if err := s.backend.Close(); err != nil && saveErr == nil {
		return fmt.Errorf("ticket store: close: %w", err)
	}
	return saveErr
}

// List returns tickets matching the filter in store order.
func (s *Store) List(f Filter) []Entry {
	var out []Entry
	for i, t := range s.tickets {
		if !f.match(t) {
			continue
		}
		out = append(out, Entry{Index: i, Ticket: t})
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// OpenTickets returns every ticket that is not closed, pending included.
func (s *Store) OpenTickets() []Entry {
	return s.List(Filter{OpenOnly: true})
}

// PendingTickets returns tickets in the pending state.
func (s *Store) PendingTickets() []Entry {
	st := protocol.TicketPending
	return s.List(Filter{Status: &st})
}

// ClosedTickets returns closed tickets.
func (s *Store) ClosedTickets() []Entry {
	st := protocol.TicketClosed
	return s.List(Filter{Status: &st})
}

// Search matches term against field, case-insensitively, over open tickets only.
func (s *Store) Search(field SearchField, term string) []Entry {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	s.logger.Info("Searching for ticket", "field", string(field), "term", strings.ToLower(term))
	return s.List(Filter{OpenOnly: true, Field: field, Query: term})
}

// Grouped partitions the store into open, pending and closed groups, each
// ordered newest first.
func (s *Store) Grouped() Groups {
	all := s.All()
	SortByCreatedDesc(all)

	var g Groups
	for _, e := range all {
		switch e.Ticket.Status {
		case protocol.TicketPending:
			g.Pending = append(g.Pending, e)
		case protocol.TicketClosed:
			g.Closed = append(g.Closed, e)
		default:
			g.Open = append(g.Open, e)
		}
	}
	return g
}

// SortByCreatedDesc orders entries newest first. Tickets created in the same
// second keep their relative order.
func SortByCreatedDesc(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Ticket.CreationDate.After(entries[j].Ticket.CreationDate)
	})
}
