// Package desk assembles a ticket store, its activity log and the logger
// that feeds it from a loaded configuration. Both binaries start here.
package desk

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/h1v3-io/tix/internal/activity"
	"github.com/h1v3-io/tix/internal/config"
	"github.com/h1v3-io/tix/internal/ticket"
)

// recentSize is how many activity entries are kept in memory for the status bar.
const recentSize = 200

// Overrides are command-line values that take precedence over the config.
type Overrides struct {
	DataDir string
	File    string
	Backend string
}

// LoadConfig reads the config file when path is set, otherwise the
// environment, then applies overrides and validates the result.
func LoadConfig(path string, o Overrides) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if o.DataDir != "" {
		cfg.Data.Dir = o.DataDir
	}
	if o.File != "" {
		cfg.Data.TicketFile = o.File
	}
	if o.Backend != "" {
		cfg.Data.Backend = o.Backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Desk is an opened ticket store with its activity log.
type Desk struct {
	Config *config.Config
	Store  *ticket.Store
	Log    *activity.Log
	Recent *activity.Buffer
	Logger *slog.Logger
}

// Open creates the data directory, opens the activity log and the configured
// backend, and loads the tickets. Diagnostics below INFO go to diag, which
// may be nil.
func Open(cfg *config.Config, diag io.Writer) (*Desk, error) {
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("desk: create data dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath()), 0o755); err != nil {
		return nil, fmt.Errorf("desk: create log dir: %w", err)
	}

	log := activity.Open(cfg.LogPath(), activity.Options{
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	recent := activity.NewBuffer(recentSize)

	var inner slog.Handler
	if diag != nil {
		inner = slog.NewTextHandler(diag, &slog.HandlerOptions{Level: cfg.LogLevel()})
	}
	logger := slog.New(activity.NewHandler(inner, log, recent))

	backend, err := openBackend(cfg)
	if err != nil {
		log.Close()
		return nil, err
	}
	store, err := ticket.Open(backend, logger)
	if err != nil {
		backend.Close()
		log.Close()
		return nil, fmt.Errorf("desk: load tickets from %s: %w", cfg.TicketPath(), err)
	}

	return &Desk{
		Config: cfg,
		Store:  store,
		Log:    log,
		Recent: recent,
		Logger: logger,
	}, nil
}

func openBackend(cfg *config.Config) (ticket.Backend, error) {
	switch cfg.Data.Backend {
	case config.BackendSQLite:
		db, err := ticket.NewSQLite(cfg.TicketPath())
		if err != nil {
			return nil, fmt.Errorf("desk: open %s: %w", cfg.TicketPath(), err)
		}
		return db, nil
	default:
		return ticket.NewJSONFile(cfg.TicketPath()), nil
	}
}

// Close saves the tickets and releases the backend and the activity log.
func (d *Desk) Close() error {
	err := d.Store.Close()
	if lerr := d.Log.Close(); err == nil {
		err = lerr
	}
	return err
}
