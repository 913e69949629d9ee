package ticket

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/h1v3-io/tix/pkg/protocol"
)

// SQLite is a Backend that stores tickets in a SQLite database. It keeps the
// whole-collection contract: Save replaces every row in one transaction.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) a SQLite database and runs migrations.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ticket store: open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ticket store: wal: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			id            TEXT PRIMARY KEY,
			position      INTEGER NOT NULL,
			title         TEXT NOT NULL,
			description   TEXT NOT NULL,
			phone_number  TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL DEFAULT 'open',
			creation_date TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ticket_notes (
			ticket_id TEXT NOT NULL REFERENCES tickets(id),
			seq       INTEGER NOT NULL,
			note      TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			PRIMARY KEY (ticket_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_position ON tickets(position);
	`)
	if err != nil {
		return fmt.Errorf("ticket store: migrate: %w", err)
	}
	return nil
}

// Load returns all tickets in stored order.
func (s *SQLite) Load() ([]*protocol.Ticket, error) {
	rows, err := s.db.Query(`SELECT id, title, description, phone_number, status, creation_date FROM tickets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("ticket store: load: %w", err)
	}
	defer rows.Close()

	tickets := []*protocol.Ticket{}
	byID := make(map[string]*protocol.Ticket)
	for rows.Next() {
		var t protocol.Ticket
		var status, created string
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.PhoneNumber, &status, &created); err != nil {
			return nil, fmt.Errorf("ticket store: load scan: %w", err)
		}
		t.Status = protocol.TicketStatus(status)
		if !t.Status.Valid() {
			t.Status = protocol.TicketOpen
		}
		t.CreationDate, err = time.ParseInLocation(protocol.TimeLayout, created, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: ticket %s: creation_date: %w", ErrMalformed, t.ID, err)
		}
		t.Notes = []protocol.Note{}
		tickets = append(tickets, &t)
		byID[t.ID] = &t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ticket store: load: %w", err)
	}

	if err := s.loadNotes(byID); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (s *SQLite) loadNotes(byID map[string]*protocol.Ticket) error {
	rows, err := s.db.Query(`SELECT ticket_id, note, timestamp FROM ticket_notes ORDER BY ticket_id, seq`)
	if err != nil {
		return fmt.Errorf("ticket store: load notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ticketID, text, ts string
		if err := rows.Scan(&ticketID, &text, &ts); err != nil {
			return fmt.Errorf("ticket store: scan note: %w", err)
		}
		t, ok := byID[ticketID]
		if !ok {
			continue
		}
		stamp, err := time.ParseInLocation(protocol.TimeLayout, ts, time.Local)
		if err != nil {
			return fmt.Errorf("%w: ticket %s: note timestamp: %w", ErrMalformed, ticketID, err)
		}
		t.Notes = append(t.Notes, protocol.Note{Text: text, Timestamp: stamp})
	}
	return rows.Err()
}

// Save replaces all stored tickets with the given sequence.
func (s *SQLite) Save(tickets []*protocol.Ticket) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("ticket store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ticket_notes`); err != nil {
		return fmt.Errorf("ticket store: clear notes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM tickets`); err != nil {
		return fmt.Errorf("ticket store: clear tickets: %w", err)
	}

	for i, t := range tickets {
		_, err := tx.Exec(`INSERT INTO tickets (id, position, title, description, phone_number, status, creation_date) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ID, i, t.Title, t.Description, t.PhoneNumber, string(t.Status), t.CreationDate.Format(protocol.TimeLayout))
		if err != nil {
			return fmt.Errorf("ticket store: save ticket %s: %w", t.ID, err)
		}
		for seq, n := range t.Notes {
			_, err := tx.Exec(`INSERT INTO ticket_notes (ticket_id, seq, note, timestamp) VALUES (?, ?, ?, ?)`,
				t.ID, seq, n.Text, n.Timestamp.Format(protocol.TimeLayout))
			if err != nil {
				return fmt.Errorf("ticket store: save note: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ticket store: commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection (for testing or direct access).
func (s *SQLite) DB() *sql.DB {
	return s.db
}
