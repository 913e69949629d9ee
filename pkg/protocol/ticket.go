package protocol

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the fixed timestamp format used for creation dates and notes.
const TimeLayout = "01-02-2006 15:04:05"

// TicketStatus represents the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketOpen    TicketStatus = "open"
	TicketPending TicketStatus = "pending"
	TicketClosed  TicketStatus = "closed"
)

// Valid reports whether s is one of the three known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketPending, TicketClosed:
		return true
	}
	return false
}

// Label is the capitalized form shown in rendered tickets.
func (s TicketStatus) Label() string {
	switch s {
	case TicketPending:
		return "Pending"
	case TicketClosed:
		return "Closed"
	default:
		return "Open"
	}
}

// Note is a timestamped annotation. Notes are never edited or removed.
type Note struct {
	Text      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticket is one trackable support record.
type Ticket struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	PhoneNumber  string       `json:"phone_number"`
	CreationDate time.Time    `json:"creation_date"`
	Notes        []Note       `json:"notes"`
	Status       TicketStatus `json:"status"`
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().Truncate(time.Second) }

// NewTicket builds an open ticket stamped with the current time.
// Callers are responsible for rejecting empty titles and descriptions.
func NewTicket(title, description, phone string) *Ticket {
	return &Ticket{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  description,
		PhoneNumber:  phone,
		CreationDate: now(),
		Notes:        []Note{},
		Status:       TicketOpen,
	}
}

// SetStatus overwrites the status without checking the transition.
func (t *Ticket) SetStatus(s TicketStatus) {
	t.Status = s
}

// AddNote appends a note stamped with the current time.
func (t *Ticket) AddNote(text string) {
	t.Notes = append(t.Notes, Note{Text: text, Timestamp: now()})
}

// Close marks the ticket closed.
func (t *Ticket) Close() {
	t.Status = TicketClosed
}

// IsOpen reports whether the ticket is still active. Pending tickets are open.
func (t *Ticket) IsOpen() bool {
	return t.Status != TicketClosed
}

// String renders the ticket as a multi-line text block.
func (t *Ticket) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s - %s - %s\n", t.Status.Label(), t.CreationDate.Format(TimeLayout), t.Title, t.PhoneNumber)
	fmt.Fprintf(&b, "    Description: %s\n", t.Description)
	b.WriteString("    Notes:\n")
	if len(t.Notes) == 0 {
		b.WriteString("        No notes\n")
		return b.String()
	}
	for _, n := range t.Notes {
		fmt.Fprintf(&b, "        Note (%s): %s\n", n.Timestamp.Format(TimeLayout), n.Text)
	}
	return b.String()
}
