// Package tui is the interactive terminal front end of the ticket desk.
// Every command collects its arguments through a dialog, performs one store
// operation, and redraws the display area.
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/h1v3-io/tix/internal/activity"
	"github.com/h1v3-io/tix/internal/render"
	"github.com/h1v3-io/tix/internal/ticket"
	"github.com/h1v3-io/tix/pkg/protocol"
)

// ProjectURL is shown on the About panel.
const ProjectURL = "https://github.com/erfwerm"

const aboutText = `Ticket System

A small desk tool for keeping track of support requests: create a
ticket, add notes as work happens, park it as pending while waiting
on someone else, and close it when it is done.

Tickets are kept in a single file next to an activity log of every
action taken.
`

type mode int

const (
	modeAll mode = iota
	modeOpen
	modePending
	modeClosed
	modeSearch
	modeLog
	modeAbout
	modeHelp
)

// chrome is the number of rows outside the display area: header, prompt, status.
const chrome = 3

// Options wires a Model to its collaborators.
type Options struct {
	Store    *ticket.Store
	Log      *activity.Log    // activity log file; may be nil
	Recent   *activity.Buffer // recent activity; may be nil
	Logger   *slog.Logger
	Settings render.Settings
	Keys     *KeyMap // nil uses DefaultKeyMap
}

// Model is the bubbletea model for the ticket desk.
type Model struct {
	store    *ticket.Store
	log      *activity.Log
	recent   *activity.Buffer
	logger   *slog.Logger
	settings render.Settings
	keys     KeyMap

	viewport viewport.Model
	input    textinput.Model
	dialog   *dialog

	mode    mode
	results []ticket.Entry
	status  string
	warning bool
	width   int
	height  int
}

// New creates a Model showing all tickets.
func New(opts Options) Model {
	keys := DefaultKeyMap
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	input := textinput.New()
	input.Prompt = "> "

	m := Model{
		store:    opts.Store,
		log:      opts.Log,
		recent:   opts.Recent,
		logger:   logger,
		settings: opts.Settings,
		keys:     keys,
		viewport: viewport.New(80, 20),
		input:    input,
		mode:     modeAll,
		status:   "Loaded tickets successfully",
	}
	m.refresh()
	return m
}

// Settings returns the current view settings.
func (m Model) Settings() render.Settings {
	return m.settings
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chrome, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.dialog != nil {
			return m.updateDialog(msg)
		}
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Back):
		if m.mode != modeAll {
			m.show(modeAll)
		}

	case m.mode == modeLog && key.Matches(msg, k.ClearLog):
		m.confirmClearLog()

	case key.Matches(msg, k.New):
		m.startNew()
	case key.Matches(msg, k.Note):
		m.startTicketCommand("Update Ticket", field{label: "Enter note:"}, "", func(m *Model, ref string, v []string) (ticket.Entry, error) {
			return m.store.AddNote(ref, v[0])
		})
	case key.Matches(msg, k.Close):
		m.startTicketCommand("Close Ticket", field{}, "Are you sure you want to close this ticket?", func(m *Model, ref string, _ []string) (ticket.Entry, error) {
			return m.store.CloseTicket(ref)
		})
	case key.Matches(msg, k.Reopen):
		m.startTicketCommand("Reopen Ticket", field{}, "", func(m *Model, ref string, _ []string) (ticket.Entry, error) {
			return m.store.Reopen(ref)
		})
	case key.Matches(msg, k.Pending):
		m.startTicketCommand("Set to Pending", field{}, "", func(m *Model, ref string, _ []string) (ticket.Entry, error) {
			return m.store.SetPending(ref)
		})
	case key.Matches(msg, k.Unpend):
		m.startTicketCommand("Reopen Pending Ticket", field{}, "", func(m *Model, ref string, _ []string) (ticket.Entry, error) {
			return m.store.Unpend(ref)
		})
	case key.Matches(msg, k.EditTitle):
		m.startTicketCommand("Update Title", field{label: "Enter new title:"}, "", func(m *Model, ref string, v []string) (ticket.Entry, error) {
			return m.store.SetTitle(ref, v[0])
		})
	case key.Matches(msg, k.EditDesc):
		m.startTicketCommand("Update Description", field{label: "Enter new description:"}, "", func(m *Model, ref string, v []string) (ticket.Entry, error) {
			return m.store.SetDescription(ref, v[0])
		})
	case key.Matches(msg, k.EditPhone):
		m.startTicketCommand("Update Phone", field{label: "Enter new phone (optional):", optional: true}, "", func(m *Model, ref string, v []string) (ticket.Entry, error) {
			return m.store.SetPhone(ref, v[0])
		})
	case key.Matches(msg, k.Save):
		if err := m.store.Save(); err != nil {
			m.warn("Save failed: %v", err)
		} else {
			m.inform("Tickets saved")
		}
	case key.Matches(msg, k.Refresh):
		m.show(modeAll)

	case key.Matches(msg, k.SearchTitle):
		m.startSearch(ticket.FieldTitle, "Enter ticket title to search for:")
	case key.Matches(msg, k.SearchDesc):
		m.startSearch(ticket.FieldDescription, "Enter description to search for:")
	case key.Matches(msg, k.SearchPhone):
		m.startSearch(ticket.FieldPhone, "Enter phone number to search for:")

	case key.Matches(msg, k.ShowOpen):
		m.show(modeOpen)
	case key.Matches(msg, k.ShowPending):
		m.show(modePending)
	case key.Matches(msg, k.ShowClosed):
		m.show(modeClosed)
	case key.Matches(msg, k.ShowAll):
		m.show(modeAll)

	case key.Matches(msg, k.Theme):
		next := m.settings.NextTheme()
		m.apply(next, "Changed mode to "+next.Theme, "theme", next.Theme)
	case key.Matches(msg, k.ChooseTheme):
		m.startTheme()
	case key.Matches(msg, k.FontUp):
		next := m.settings.IncreaseFont()
		m.apply(next, "Changing font size", "size", next.FontSize)
	case key.Matches(msg, k.FontDown):
		next := m.settings.DecreaseFont()
		m.apply(next, "Changing font size", "size", next.FontSize)
	case key.Matches(msg, k.Bold):
		next := m.settings.ToggleBold()
		state := "OFF"
		if next.Bold {
			state = "ON"
		}
		m.apply(next, "Bold is now "+state)
	case key.Matches(msg, k.AlignLeft):
		m.apply(m.settings.WithAlign(render.AlignLeft), "Aligning text to the left")
	case key.Matches(msg, k.AlignCenter):
		m.apply(m.settings.WithAlign(render.AlignCenter), "Aligning text to the center")
	case key.Matches(msg, k.AlignRight):
		m.apply(m.settings.WithAlign(render.AlignRight), "Aligning text to the right")
	case key.Matches(msg, k.TextColor):
		m.startTextColor()
	case key.Matches(msg, k.ResetView):
		m.apply(m.settings.Reset(), "Resetting all settings")

	case key.Matches(msg, k.ViewLog):
		m.show(modeLog)
	case key.Matches(msg, k.About):
		m.logger.Info("About page opened", "url", ProjectURL)
		m.show(modeAbout)
	case key.Matches(msg, k.Help):
		m.show(modeHelp)

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply switches to new view settings and records the change.
func (m *Model) apply(next render.Settings, msg string, args ...any) {
	m.settings = next
	m.logger.Info(msg, args...)
	m.inform("%s", msg)
	m.refresh()
}

func (m Model) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.dialog
	if msg.Type == tea.KeyEsc || msg.Type == tea.KeyCtrlC {
		m.dialog = nil
		m.input.Blur()
		m.inform("Cancelled")
		return m, nil
	}

	if d.asking {
		switch strings.ToLower(msg.String()) {
		case "y":
			m.dialog = nil
			d.run(&m, d.values)
		case "n":
			m.dialog = nil
			m.inform("Cancelled")
		}
		return m, nil
	}

	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	value := m.input.Value()
	f := d.current()
	if !f.optional && blank(value) {
		m.dialog = nil
		m.input.Blur()
		m.warn("%s cancelled or invalid input.", d.title)
		return m, nil
	}
	if f.check != nil {
		if err := f.check(&m, value); err != nil {
			m.dialog = nil
			m.input.Blur()
			m.warn("%v", err)
			return m, nil
		}
	}
	d.values = append(d.values, value)
	m.input.Reset()

	if !d.complete() {
		return m, nil
	}
	m.input.Blur()
	if d.confirm != "" {
		d.asking = true
		return m, nil
	}
	m.dialog = nil
	d.run(&m, d.values)
	return m, nil
}

func (m *Model) open(d *dialog) {
	m.dialog = d
	m.input.Reset()
	m.input.Focus()
	if len(d.fields) == 0 {
		m.input.Blur()
		d.asking = true
	}
}

func checkTicketRef(m *Model, value string) error {
	if _, err := m.store.Resolve(value); err != nil {
		return errors.New("Invalid ticket ID.")
	}
	return nil
}

func (m *Model) startNew() {
	m.open(&dialog{
		title: "New Ticket",
		fields: []field{
			{label: "Title:"},
			{label: "Phone Number:", optional: true},
			{label: "Description:"},
		},
		run: func(m *Model, v []string) {
			e, err := m.store.Create(v[0], v[2], v[1])
			if errors.Is(err, ticket.ErrEmptyField) {
				m.warn("Title and description cannot be empty.")
				return
			}
			if err != nil {
				m.fail(err)
				return
			}
			m.done(e, "Ticket added")
		},
	})
}

// startTicketCommand asks for a ticket ID, then for extra (when it has a
// label), then for confirm (when set), and finally runs op.
func (m *Model) startTicketCommand(title string, extra field, confirm string, op func(m *Model, ref string, values []string) (ticket.Entry, error)) {
	fields := []field{{label: "Enter ticket ID:", check: checkTicketRef}}
	if extra.label != "" {
		fields = append(fields, extra)
	}
	m.open(&dialog{
		title:   title,
		fields:  fields,
		confirm: confirm,
		run: func(m *Model, v []string) {
			e, err := op(m, v[0], v[1:])
			if err != nil {
				m.fail(err)
				return
			}
			m.done(e, title)
		},
	})
}

func (m *Model) startSearch(f ticket.SearchField, label string) {
	m.open(&dialog{
		title:  "Search",
		fields: []field{{label: label}},
		run: func(m *Model, v []string) {
			m.results = m.store.Search(f, v[0])
			m.inform("%d matching tickets", len(m.results))
			m.show(modeSearch)
		},
	})
}

func themeNames() string {
	names := make([]string, len(render.Themes))
	for i, t := range render.Themes {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

func (m *Model) startTheme() {
	m.open(&dialog{
		title:  "Color Mode",
		fields: []field{{label: "Mode (" + themeNames() + "):"}},
		run: func(m *Model, v []string) {
			next, err := m.settings.WithTheme(strings.ToLower(strings.TrimSpace(v[0])))
			if err != nil {
				m.warn("%v", err)
				return
			}
			m.apply(next, "Changed mode to "+next.Theme, "theme", next.Theme)
		},
	})
}

func (m *Model) startTextColor() {
	m.open(&dialog{
		title:  "Text Color",
		fields: []field{{label: "Font color:"}},
		run: func(m *Model, v []string) {
			next, err := m.settings.WithTextColor(v[0])
			if err != nil {
				m.warn("%v", err)
				return
			}
			m.apply(next, "Changing font color")
		},
	})
}

func (m *Model) confirmClearLog() {
	m.open(&dialog{
		title:   "Clear Log",
		confirm: "Clear the action log?",
		run: func(m *Model, _ []string) {
			if m.log == nil {
				return
			}
			if err := m.log.Clear(); err != nil {
				m.warn("%v", err)
				return
			}
			if m.recent != nil {
				m.recent.Reset()
			}
			m.inform("Log cleared")
			m.refresh()
		},
	})
}

// done reports a successful mutation and returns to the full listing.
func (m *Model) done(e ticket.Entry, what string) {
	if last, ok := m.lastActivity(); ok {
		m.inform("%s", last)
	} else {
		m.inform("%s: ticket %d", what, e.Index)
	}
	m.show(modeAll)
}

func (m *Model) fail(err error) {
	switch {
	case errors.Is(err, protocol.ErrAlreadyOpen):
		m.warn("This ticket is already open.")
	case errors.Is(err, protocol.ErrInvalidTransition):
		m.warn("That change is not allowed for this ticket's status.")
	case errors.Is(err, ticket.ErrNotFound), errors.Is(err, ticket.ErrAmbiguous):
		m.warn("Invalid ticket ID.")
	case errors.Is(err, ticket.ErrEmptyField):
		m.warn("Update cancelled or invalid input.")
	default:
		m.warn("Error: %v", err)
	}
}

func (m *Model) lastActivity() (string, bool) {
	if m.recent == nil {
		return "", false
	}
	e, ok := m.recent.Last()
	if !ok {
		return "", false
	}
	return e.Message, true
}

func (m *Model) inform(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.warning = false
}

func (m *Model) warn(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.warning = true
}

func (m *Model) show(md mode) {
	m.mode = md
	m.refresh()
	m.viewport.GotoTop()
}

// refresh recomputes the display text for the current mode.
func (m *Model) refresh() {
	var text string
	switch m.mode {
	case modeOpen:
		text = render.OpenList(m.store.OpenTickets())
	case modePending:
		text = render.PendingList(m.store.PendingTickets())
	case modeClosed:
		text = render.ClosedList(m.store.ClosedTickets())
	case modeSearch:
		text = render.SearchResults(m.results)
	case modeLog:
		text = m.logText()
	case modeAbout:
		text = aboutText + "\nProject page: " + ProjectURL + "\n"
	case modeHelp:
		text = m.helpText()
	default:
		text = render.All(m.store.Grouped())
	}
	m.viewport.SetContent(m.settings.Apply(text, m.viewport.Width))
}

func (m *Model) logText() string {
	if m.log == nil {
		return "No action log configured\n"
	}
	content, err := m.log.Read()
	if err != nil {
		return fmt.Sprintf("Cannot read action log: %v\n", err)
	}
	if content == "" {
		return "Action log is empty\n"
	}
	return "Action Log (" + m.log.Path() + ")  C: clear  esc: back\n\n" + content
}

func (m *Model) helpText() string {
	var b strings.Builder
	for _, s := range m.keys.Sections() {
		fmt.Fprintf(&b, "%s\n", s.Title)
		for _, kb := range s.Bindings {
			h := kb.Help()
			fmt.Fprintf(&b, "  %-8s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	hintStyle   = lipgloss.NewStyle().Faint(true)
	statusStyle = lipgloss.NewStyle().Reverse(true)
	warnStyle   = lipgloss.NewStyle().Reverse(true).Foreground(lipgloss.Color("196"))
)

func (m Model) View() string {
	header := titleStyle.Render("Ticket System") + "  " +
		hintStyle.Render("n new · a note · c close · r reopen · 3 all · ? help · q quit")

	var prompt string
	if m.dialog != nil {
		prompt = m.dialog.label()
		if !m.dialog.asking {
			prompt += " " + m.input.View()
		}
	}

	style := statusStyle
	if m.warning {
		style = warnStyle
	}
	status := style.Width(max(m.width, len(m.status))).Render(m.status)

	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), prompt, status)
}
