package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/h1v3-io/tix/internal/ticket"
)

const rule = "----------------"

func header(b *strings.Builder, label string) {
	fmt.Fprintf(b, "\n-------------- %s TICKETS %s\n", strings.ToUpper(label), rule)
}

// Entry renders one ticket prefixed with its display index.
func Entry(e ticket.Entry) string {
	return fmt.Sprintf("Ticket ID: %d - %s\n", e.Index, e.Ticket)
}

func section(b *strings.Builder, label string, entries []ticket.Entry) {
	header(b, label)
	if len(entries) == 0 {
		fmt.Fprintf(b, "No %s Tickets found\n\n", label)
		return
	}
	for _, e := range entries {
		b.WriteString(Entry(e))
		b.WriteString("\n")
	}
}

// All renders the grouped view: open, pending, then closed, each labeled.
func All(g ticket.Groups) string {
	var b strings.Builder
	section(&b, "Open", g.Open)
	section(&b, "Pending", g.Pending)
	section(&b, "Closed", g.Closed)
	return b.String()
}

// OpenList renders tickets that are not closed.
func OpenList(entries []ticket.Entry) string {
	var b strings.Builder
	section(&b, "Open", entries)
	return b.String()
}

// PendingList renders tickets waiting on someone else.
func PendingList(entries []ticket.Entry) string {
	var b strings.Builder
	section(&b, "Pending", entries)
	return b.String()
}

// ClosedList renders closed tickets.
func ClosedList(entries []ticket.Entry) string {
	var b strings.Builder
	section(&b, "Closed", entries)
	return b.String()
}

// SearchResults renders matches by their store index.
func SearchResults(entries []ticket.Entry) string {
	if len(entries) == 0 {
		return "No matching tickets found\n"
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(Entry(e))
		b.WriteString("\n")
	}
	return b.String()
}

// WrapWidth is the number of columns text wraps at for the given terminal
// width. Larger fonts wrap sooner, as a bigger typeface would.
func (s Settings) WrapWidth(columns int) int {
	size := s.FontSize
	if size < MinFontSize {
		size = DefaultFontSize
	}
	w := columns * DefaultFontSize / size
	if w > columns {
		w = columns
	}
	if w < 20 {
		w = min(20, columns)
	}
	return w
}

// Style returns the display-area style for a terminal of the given width.
func (s Settings) Style(columns int) lipgloss.Style {
	theme, ok := ThemeByName(s.Theme)
	if !ok {
		theme = Themes[0]
	}
	fg := theme.Foreground
	if s.TextColor != "" {
		fg = lipgloss.Color(s.TextColor)
	}
	return lipgloss.NewStyle().
		Background(theme.Background).
		Foreground(fg).
		Bold(s.Bold).
		Align(s.Align.position()).
		Width(s.WrapWidth(columns))
}

// Apply styles text for display in a terminal of the given width.
func (s Settings) Apply(text string, columns int) string {
	return s.Style(columns).Render(text)
}
