// Package activity records operator actions to an append-only text log.
package activity

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls rotation of the log file.
type Options struct {
	MaxSizeMB  int // rotate after this many megabytes; 0 uses the writer default
	MaxBackups int // rotated files to keep; 0 keeps all
}

// Log is the activity log file. One line per action.
type Log struct {
	mu   sync.Mutex
	path string
	w    *lumberjack.Logger
}

// Open returns a Log writing to path. The file is created on first append.
func Open(path string, opts Options) *Log {
	return &Log{
		path: path,
		w: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			LocalTime:  true,
		},
	}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes one entry as a line.
func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write([]byte(e.Line() + "\n")); err != nil {
		return fmt.Errorf("activity log: write: %w", err)
	}
	return nil
}

// Read returns the whole log. A log that was never written reads as empty.
func (l *Log) Read() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("activity log: read: %w", err)
	}
	return string(data), nil
}

// Clear empties the log file.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Close(); err != nil {
		return fmt.Errorf("activity log: close: %w", err)
	}
	if err := os.Truncate(l.path, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("activity log: truncate: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}
