package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/h1v3-io/tix/internal/config"
	"github.com/h1v3-io/tix/internal/desk"
	"github.com/h1v3-io/tix/internal/render"
	"github.com/h1v3-io/tix/internal/ticket"
	"github.com/h1v3-io/tix/internal/tui"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tixctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	configPath := fs.String("config", "", "Path to config file (JSON or YAML)")
	dataDir := fs.String("data-dir", "", "Directory holding the ticket file and log")
	file := fs.String("file", "", "Ticket file name or path")
	backend := fs.String("backend", "", "Storage backend: json or sqlite")
	verbose := fs.BoolP("verbose", "v", false, "Write diagnostics to stderr")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	args = fs.Args()
	if len(args) == 0 {
		printUsage(stdout)
		return nil
	}

	// Commands that do not touch the ticket store.
	switch args[0] {
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	case "about":
		fmt.Fprintf(stdout, "tix ticket desk\nProject page: %s\n", tui.ProjectURL)
		return nil
	case "config":
		if len(args) < 3 || args[1] != "validate" {
			return usage(stderr, "tixctl config validate <path>")
		}
		return cmdConfigValidate(args[2], stdout)
	}

	cfg, err := desk.LoadConfig(*configPath, desk.Overrides{
		DataDir: *dataDir,
		File:    *file,
		Backend: *backend,
	})
	if err != nil {
		return err
	}
	var diag io.Writer
	if *verbose {
		diag = stderr
	}
	d, err := desk.Open(cfg, diag)
	if err != nil {
		return err
	}

	err = dispatch(d, args, stdout, stderr)
	if cerr := d.Close(); err == nil {
		err = cerr
	}
	return err
}

func dispatch(d *desk.Desk, args []string, stdout, stderr io.Writer) error {
	s := d.Store
	switch args[0] {
	case "add":
		return cmdAdd(s, args[1:], stdout, stderr)
	case "note":
		if len(args) < 3 {
			return usage(stderr, "tixctl note <ticket> <text>")
		}
		return report(stdout, "Note added to")(s.AddNote(args[1], strings.Join(args[2:], " ")))
	case "pending":
		if len(args) < 2 {
			return usage(stderr, "tixctl pending <ticket>")
		}
		return report(stdout, "Pending")(s.SetPending(args[1]))
	case "unpend":
		if len(args) < 2 {
			return usage(stderr, "tixctl unpend <ticket>")
		}
		return report(stdout, "Reopened from pending")(s.Unpend(args[1]))
	case "close":
		if len(args) < 2 {
			return usage(stderr, "tixctl close <ticket>")
		}
		return report(stdout, "Closed")(s.CloseTicket(args[1]))
	case "reopen":
		if len(args) < 2 {
			return usage(stderr, "tixctl reopen <ticket>")
		}
		return report(stdout, "Reopened")(s.Reopen(args[1]))
	case "edit":
		return cmdEdit(s, args[1:], stdout, stderr)
	case "search":
		if len(args) < 3 {
			return usage(stderr, "tixctl search <title|description|phone> <term>")
		}
		field, err := ticket.ParseField(args[1])
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, render.SearchResults(s.Search(field, strings.Join(args[2:], " "))))
		return nil
	case "show":
		which := "all"
		if len(args) > 1 {
			which = args[1]
		}
		return cmdShow(s, which, stdout, stderr)
	case "get":
		if len(args) < 2 {
			return usage(stderr, "tixctl get <ticket>")
		}
		e, err := s.Resolve(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "ID: %s\n%s", e.Ticket.ID, render.Entry(e))
		return nil
	case "log":
		if len(args) < 2 {
			return usage(stderr, "tixctl log <view|clear>")
		}
		return cmdLog(d, args[1], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
		printUsage(stderr)
		return errUsage
	}
}

// report prints a one-line confirmation for a successful store operation.
func report(w io.Writer, verb string) func(ticket.Entry, error) error {
	return func(e ticket.Entry, err error) error {
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s ticket %d: %s\n", verb, e.Index, e.Ticket.Title)
		return nil
	}
}

func cmdAdd(s *ticket.Store, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	title := fs.String("title", "", "Ticket title (required)")
	desc := fs.String("description", "", "Ticket description (required)")
	phone := fs.String("phone", "", "Caller phone number")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return report(stdout, "Added")(s.Create(*title, *desc, *phone))
}

func cmdEdit(s *ticket.Store, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		return usage(stderr, "tixctl edit <ticket> [--title T] [--description D] [--phone P]")
	}
	ref := args[0]
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	title := fs.String("title", "", "New title")
	desc := fs.String("description", "", "New description")
	phone := fs.String("phone", "", "New phone number (may be empty)")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}
	if fs.NFlag() == 0 {
		return usage(stderr, "tixctl edit <ticket> [--title T] [--description D] [--phone P]")
	}

	// Check the ref and every value before changing any field.
	if _, err := s.Resolve(ref); err != nil {
		return err
	}
	if fs.Changed("title") && strings.TrimSpace(*title) == "" {
		return fmt.Errorf("%w: title", ticket.ErrEmptyField)
	}
	if fs.Changed("description") && strings.TrimSpace(*desc) == "" {
		return fmt.Errorf("%w: description", ticket.ErrEmptyField)
	}
	if fs.Changed("title") {
		if err := report(stdout, "Retitled")(s.SetTitle(ref, *title)); err != nil {
			return err
		}
	}
	if fs.Changed("description") {
		if err := report(stdout, "Updated description of")(s.SetDescription(ref, *desc)); err != nil {
			return err
		}
	}
	if fs.Changed("phone") {
		if err := report(stdout, "Updated phone of")(s.SetPhone(ref, *phone)); err != nil {
			return err
		}
	}
	return nil
}

func cmdShow(s *ticket.Store, which string, stdout, stderr io.Writer) error {
	switch which {
	case "open":
		fmt.Fprint(stdout, render.OpenList(s.OpenTickets()))
	case "pending":
		fmt.Fprint(stdout, render.PendingList(s.PendingTickets()))
	case "closed":
		fmt.Fprint(stdout, render.ClosedList(s.ClosedTickets()))
	case "all":
		fmt.Fprint(stdout, render.All(s.Grouped()))
	default:
		return usage(stderr, "tixctl show <open|pending|closed|all>")
	}
	return nil
}

func cmdLog(d *desk.Desk, sub string, stdout, stderr io.Writer) error {
	switch sub {
	case "view":
		content, err := d.Log.Read()
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, content)
	case "clear":
		if err := d.Log.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Log cleared")
	default:
		return usage(stderr, "tixctl log <view|clear>")
	}
	return nil
}

func cmdConfigValidate(path string, stdout io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Config is valid.")
	fmt.Fprintf(stdout, "  Backend: %s\n", cfg.Data.Backend)
	fmt.Fprintf(stdout, "  Tickets: %s\n", cfg.TicketPath())
	fmt.Fprintf(stdout, "  Log:     %s\n", cfg.LogPath())
	fmt.Fprintf(stdout, "  Theme:   %s (font %d)\n", cfg.View.Theme, cfg.View.FontSize)
	return nil
}

func usage(w io.Writer, line string) error {
	fmt.Fprintf(w, "usage: %s\n", line)
	return errUsage
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `tixctl - ticket desk command line

Usage:
  tixctl [flags] <command> [args]

Commands:
  add --title T --description D [--phone P]   Create a ticket
  note <ticket> <text>                         Add a note
  pending <ticket>                             Set an open ticket to pending
  unpend <ticket>                              Reopen a pending ticket
  close <ticket>                               Close a ticket
  reopen <ticket>                              Reopen a closed ticket
  edit <ticket> [--title] [--description] [--phone]
                                               Change ticket fields
  search <title|description|phone> <term>      Search open tickets
  show [open|pending|closed|all]               List tickets
  get <ticket>                                 Show one ticket
  log <view|clear>                             Show or clear the action log
  about                                        Show project information
  config validate <path>                       Validate a config file

A <ticket> is a list index or a ticket ID (a unique prefix of 4+ characters works).

Flags:
  --config     Config file (default: TIX_* environment)
  --data-dir   Data directory override
  --file       Ticket file override
  --backend    json or sqlite
  -v           Diagnostics to stderr`)
}
