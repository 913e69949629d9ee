package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/h1v3-io/tix/internal/desk"
	"github.com/h1v3-io/tix/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON or YAML)")
	dataDir := flag.String("data-dir", "", "Directory holding the ticket file and log")
	file := flag.String("file", "", "Ticket file name or path")
	backend := flag.String("backend", "", "Storage backend: json or sqlite")
	verbose := flag.BoolP("verbose", "v", false, "Write diagnostics to stderr")
	flag.Parse()

	cfg, err := desk.LoadConfig(*configPath, desk.Overrides{
		DataDir: *dataDir,
		File:    *file,
		Backend: *backend,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI; diagnostics go to stderr only on request.
	var diag io.Writer
	if *verbose {
		diag = os.Stderr
	}
	d, err := desk.Open(cfg, diag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	model := tui.New(tui.Options{
		Store:    d.Store,
		Log:      d.Log,
		Recent:   d.Recent,
		Logger:   d.Logger,
		Settings: cfg.ViewSettings(),
	})

	_, runErr := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err := d.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error: saving tickets: %v\n", err)
		os.Exit(1)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
