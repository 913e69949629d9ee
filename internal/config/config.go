package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/h1v3-io/tix/internal/render"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config is the top-level tix configuration.
type Config struct {
	Data DataConfig `json:"data" yaml:"data"`
	Log  LogConfig  `json:"log" yaml:"log"`
	View ViewConfig `json:"view" yaml:"view"`
}

// DataConfig locates the ticket store.
type DataConfig struct {
	Dir        string `json:"dir" yaml:"dir"`
	TicketFile string `json:"ticket_file,omitempty" yaml:"ticket_file,omitempty"` // default depends on backend
	Backend    string `json:"backend" yaml:"backend"`                               // "json" (default) or "sqlite"
}

// LogConfig holds activity log settings.
type LogConfig struct {
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	Level      string `json:"level" yaml:"level"`
}

// ViewConfig holds the initial display settings.
type ViewConfig struct {
	Theme     string `json:"theme" yaml:"theme"`
	FontSize  int    `json:"font_size" yaml:"font_size"`
	Bold      bool   `json:"bold" yaml:"bold"`
	Align     string `json:"align" yaml:"align"`
	TextColor string `json:"text_color,omitempty" yaml:"text_color,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	view := render.Default()
	return &Config{
		Data: DataConfig{Dir: ".", Backend: BackendJSON},
		Log: LogConfig{
			File:       "action_log.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Level:      "info",
		},
		View: ViewConfig{
			Theme:    view.Theme,
			FontSize: view.FontSize,
			Align:    string(view.Align),
		},
	}
}

// Load reads configuration from a file. Files ending in .yaml or .yml are
// parsed as YAML; anything else as JSON, which may carry comments and
// trailing commas. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv builds a config from defaults overridden by TIX_ environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	cfg.Data.Dir = getenv("TIX_DATA_DIR", cfg.Data.Dir)
	cfg.Data.TicketFile = getenv("TIX_TICKET_FILE", cfg.Data.TicketFile)
	cfg.Data.Backend = getenv("TIX_BACKEND", cfg.Data.Backend)
	cfg.Log.File = getenv("TIX_LOG_FILE", cfg.Log.File)
	cfg.Log.MaxSizeMB = getenvInt("TIX_LOG_MAX_SIZE", cfg.Log.MaxSizeMB)
	cfg.Log.MaxBackups = getenvInt("TIX_LOG_MAX_BACKUPS", cfg.Log.MaxBackups)
	cfg.Log.Level = getenv("TIX_LOG_LEVEL", cfg.Log.Level)
	cfg.View.Theme = getenv("TIX_THEME", cfg.View.Theme)
	cfg.View.FontSize = getenvInt("TIX_FONT_SIZE", cfg.View.FontSize)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for required fields and known values.
func (c *Config) Validate() error {
	var errs []string

	if c.Data.Dir == "" {
		errs = append(errs, "data.dir is required")
	}
	switch c.Data.Backend {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Sprintf("data.backend must be %q or %q, got %q", BackendJSON, BackendSQLite, c.Data.Backend))
	}

	if c.Log.File == "" {
		errs = append(errs, "log.file is required")
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, "log.max_size_mb must not be negative")
	}
	if c.Log.MaxBackups < 0 {
		errs = append(errs, "log.max_backups must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, "log.level: "+err.Error())
	}

	if err := c.ViewSettings().Validate(); err != nil {
		errs = append(errs, "view: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// TicketPath returns the ticket store location, resolved against the data dir.
func (c *Config) TicketPath() string {
	name := c.Data.TicketFile
	if name == "" {
		name = "tickets.json"
		if c.Data.Backend == BackendSQLite {
			name = "tickets.db"
		}
	}
	return c.resolve(name)
}

// LogPath returns the activity log location, resolved against the data dir.
func (c *Config) LogPath() string {
	return c.resolve(c.Log.File)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Data.Dir, name)
}

// ViewSettings converts the view section into render settings.
func (c *Config) ViewSettings() render.Settings {
	return render.Settings{
		Theme:     c.View.Theme,
		FontSize:  c.View.FontSize,
		Bold:      c.View.Bold,
		Align:     render.Align(strings.ToLower(c.View.Align)),
		TextColor: c.View.TextColor,
	}
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
