package ticket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/h1v3-io/tix/pkg/protocol"
)

// JSONFile is a Backend that keeps every ticket in a single JSON array,
// rewritten in full on each save.
type JSONFile struct {
	path string
}

// NewJSONFile returns a backend for the file at path. The file is not
// touched until Load or Save is called.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the backing file path.
func (f *JSONFile) Path() string {
	return f.path
}

// Load reads all tickets. A missing or empty file yields no tickets.
func (f *JSONFile) Load() ([]*protocol.Ticket, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*protocol.Ticket{}, nil
		}
		return nil, fmt.Errorf("ticket store: read %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []*protocol.Ticket{}, nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, f.path, err)
	}

	tickets := make([]*protocol.Ticket, 0, len(records))
	for i, r := range records {
		t, err := fromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: record %d: %w", ErrMalformed, f.path, i, err)
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// Save replaces the file with the given tickets. Readers see either the old
// or the new file, never a partial one.
func (f *JSONFile) Save(tickets []*protocol.Ticket) error {
	records := make([]record, 0, len(tickets))
	for _, t := range tickets {
		records = append(records, toRecord(t))
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("ticket store: marshal: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ticket store: mkdir %s: %w", dir, err)
	}

	if err := atomic.WriteFile(f.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("ticket store: write %s: %w", f.path, err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (f *JSONFile) Close() error {
	return nil
}
