package ticket

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/h1v3-io/tix/pkg/protocol"
)

// legacyNoteLayout matches note timestamps written by older versions of the
// file format, which dropped the day-of-month directive.
const legacyNoteLayout = "01-d-2006 15:04:05"

// record is the on-disk shape of a ticket in the JSON file.
type record struct {
	ID           string       `json:"id,omitempty"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	PhoneNumber  string       `json:"phone_number"`
	Notes        []noteRecord `json:"notes"`
	IsOpen       *bool        `json:"is_open"`
	Status       string       `json:"status,omitempty"`
	CreationDate string       `json:"creation_date"`
}

type noteRecord struct {
	Note      string `json:"note"`
	Timestamp string `json:"timestamp"`
}

func toRecord(t *protocol.Ticket) record {
	open := t.IsOpen()
	notes := make([]noteRecord, 0, len(t.Notes))
	for _, n := range t.Notes {
		notes = append(notes, noteRecord{Note: n.Text, Timestamp: n.Timestamp.Format(protocol.TimeLayout)})
	}
	return record{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		PhoneNumber:  t.PhoneNumber,
		Notes:        notes,
		IsOpen:       &open,
		Status:       string(t.Status),
		CreationDate: t.CreationDate.Format(protocol.TimeLayout),
	}
}

func fromRecord(r record) (*protocol.Ticket, error) {
	created, err := time.ParseInLocation(protocol.TimeLayout, r.CreationDate, time.Local)
	if err != nil {
		return nil, fmt.Errorf("ticket %q: creation_date: %w", r.Title, err)
	}

	notes := make([]protocol.Note, 0, len(r.Notes))
	for i, n := range r.Notes {
		ts, err := parseNoteTime(n.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("ticket %q: notes[%d].timestamp: %w", r.Title, i, err)
		}
		notes = append(notes, protocol.Note{Text: n.Note, Timestamp: ts})
	}

	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	isOpen := true
	if r.IsOpen != nil {
		isOpen = *r.IsOpen
	}

	return &protocol.Ticket{
		ID:           id,
		Title:        r.Title,
		Description:  r.Description,
		PhoneNumber:  r.PhoneNumber,
		CreationDate: created,
		Notes:        notes,
		Status:       normalizeStatus(r.Status, isOpen),
	}, nil
}

// normalizeStatus folds the legacy (status, is_open) pair into one status.
// A closed status with is_open still set is what a reopen used to leave behind,
// so it reads back as open.
func normalizeStatus(status string, isOpen bool) protocol.TicketStatus {
	if !isOpen {
		return protocol.TicketClosed
	}
	if protocol.TicketStatus(status) == protocol.TicketPending {
		return protocol.TicketPending
	}
	return protocol.TicketOpen
}

func parseNoteTime(s string) (time.Time, error) {
	ts, err := time.ParseInLocation(protocol.TimeLayout, s, time.Local)
	if err == nil {
		return ts, nil
	}
	if legacy, lerr := time.ParseInLocation(legacyNoteLayout, s, time.Local); lerr == nil {
		return legacy, nil
	}
	return time.Time{}, err
}
