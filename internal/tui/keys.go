package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the menu commands of the ticket desk.
type KeyMap struct {
	// Tickets.
	New       key.Binding
	Note      key.Binding
	Close     key.Binding
	Reopen    key.Binding
	Pending   key.Binding
	Unpend    key.Binding
	EditTitle key.Binding
	EditDesc  key.Binding
	EditPhone key.Binding
	Save      key.Binding
	Refresh   key.Binding

	// Search.
	SearchTitle key.Binding
	SearchDesc  key.Binding
	SearchPhone key.Binding

	// Show.
	ShowOpen    key.Binding
	ShowPending key.Binding
	ShowClosed  key.Binding
	ShowAll     key.Binding

	// View settings.
	Theme       key.Binding
	ChooseTheme key.Binding
	FontUp      key.Binding
	FontDown    key.Binding
	Bold        key.Binding
	AlignLeft   key.Binding
	AlignCenter key.Binding
	AlignRight  key.Binding
	TextColor   key.Binding
	ResetView   key.Binding

	// Panels.
	ViewLog  key.Binding
	ClearLog key.Binding // only inside the log panel
	About    key.Binding
	Help     key.Binding
	Back     key.Binding

	Quit key.Binding
}

func binding(keys, help, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys), key.WithHelp(help, desc))
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	New:       binding("n", "n", "new ticket"),
	Note:      binding("a", "a", "add note"),
	Close:     binding("c", "c", "close ticket"),
	Reopen:    binding("r", "r", "reopen ticket"),
	Pending:   binding("p", "p", "set pending"),
	Unpend:    binding("o", "o", "reopen pending"),
	EditTitle: binding("t", "t", "edit title"),
	EditDesc:  binding("d", "d", "edit description"),
	EditPhone: binding("f", "f", "edit phone"),
	Save:      binding("w", "w", "save"),
	Refresh:   binding("g", "g", "refresh"),

	SearchTitle: binding("s", "s", "search title"),
	SearchDesc:  binding("x", "x", "search description"),
	SearchPhone: binding("h", "h", "search phone"),

	ShowOpen:    binding("1", "1", "show open"),
	ShowClosed:  binding("2", "2", "show closed"),
	ShowAll:     binding("3", "3", "show all"),
	ShowPending: binding("4", "4", "show pending"),

	Theme:       binding("m", "m", "next color mode"),
	ChooseTheme: binding("M", "M", "choose color mode"),
	FontUp:      binding("+", "+", "increase font"),
	FontDown:    binding("-", "-", "decrease font"),
	Bold:        binding("b", "b", "toggle bold"),
	AlignLeft:   binding("<", "<", "align left"),
	AlignCenter: binding("|", "|", "align center"),
	AlignRight:  binding(">", ">", "align right"),
	TextColor:   binding("k", "k", "text color"),
	ResetView:   binding("0", "0", "reset view"),

	ViewLog:  binding("l", "l", "view log"),
	ClearLog: binding("C", "C", "clear log"),
	About:    binding("i", "i", "about"),
	Help:     binding("?", "?", "help"),
	Back:     binding("esc", "esc", "back"),

	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Sections groups bindings for the help panel, in menu order.
func (k KeyMap) Sections() []Section {
	return []Section{
		{"Set", []key.Binding{k.New, k.Note, k.Close, k.Reopen, k.Pending, k.Unpend, k.EditTitle, k.EditDesc, k.EditPhone, k.Save, k.Refresh}},
		{"Search", []key.Binding{k.SearchTitle, k.SearchDesc, k.SearchPhone}},
		{"Show", []key.Binding{k.ShowOpen, k.ShowClosed, k.ShowAll, k.ShowPending}},
		{"Mode", []key.Binding{k.Theme, k.ChooseTheme}},
		{"Settings", []key.Binding{k.FontUp, k.FontDown, k.Bold, k.AlignLeft, k.AlignCenter, k.AlignRight, k.TextColor, k.ResetView}},
		{"Other", []key.Binding{k.ViewLog, k.ClearLog, k.About, k.Help, k.Back, k.Quit}},
	}
}

// Section is a titled group of bindings.
type Section struct {
	Title    string
	Bindings []key.Binding
}
