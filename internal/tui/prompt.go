package tui

import "strings"

// field is one question in a dialog.
type field struct {
	label    string
	optional bool
	// check runs as soon as the value is entered; an error aborts the dialog.
	check func(m *Model, value string) error
}

// dialog collects values one field at a time, optionally ends with a yes/no
// confirmation, then hands the values to run.
type dialog struct {
	title   string
	fields  []field
	values  []string
	confirm string // question asked after the fields, empty for none
	asking  bool   // waiting on the confirmation
	run     func(m *Model, values []string)
}

func (d *dialog) current() field {
	return d.fields[len(d.values)]
}

func (d *dialog) complete() bool {
	return len(d.values) == len(d.fields)
}

// label is the text shown before the input line.
func (d *dialog) label() string {
	if d.asking {
		return d.title + ": " + d.confirm + " (y/n)"
	}
	return d.title + ": " + d.current().label
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
