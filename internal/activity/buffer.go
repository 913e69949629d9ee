package activity

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// TimeLayout prefixes every activity line.
const TimeLayout = "2006-01-02 15:04:05"

// Entry is one recorded action.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   map[string]any
}

// Line formats the entry as it appears in the activity log file.
func (e Entry) Line() string {
	var b strings.Builder
	b.WriteString(e.Time.Format(TimeLayout))
	b.WriteString(" - ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Attrs[k])
	}
	return b.String()
}

// Buffer keeps the most recent entries in a fixed-size ring.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	size    int
	pos     int
	count   int
}

// NewBuffer creates a ring that holds up to size entries.
func NewBuffer(size int) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Write records an entry, evicting the oldest when full.
func (b *Buffer) Write(e Entry) {
	b.mu.Lock()
	b.entries[b.pos] = e
	b.pos = (b.pos + 1) % b.size
	if b.count < b.size {
		b.count++
	}
	b.mu.Unlock()
}

// Recent returns up to limit entries, oldest first. limit <= 0 returns all.
func (b *Buffer) Recent(limit int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := 0
	if b.count == b.size {
		start = b.pos
	}
	out := make([]Entry, 0, b.count)
	for i := 0; i < b.count; i++ {
		out = append(out, b.entries[(start+i)%b.size])
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Last returns the newest entry.
func (b *Buffer) Last() (Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return Entry{}, false
	}
	return b.entries[(b.pos-1+b.size)%b.size], true
}

// Reset drops all entries.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.pos, b.count = 0, 0
	b.mu.Unlock()
}
