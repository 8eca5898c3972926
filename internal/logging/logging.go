// Package logging configures the global slog logger for pinpaste.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Format selects the log output format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "text", "tint", "human":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatAuto, fmt.Errorf("unknown log format %q (want auto, text or json)", s)
}

// ParseLevel converts s to a slog.Level. An empty or unknown s yields def.
func ParseLevel(s string, def slog.Level) slog.Level {
	if s == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return def
	}
	return l
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Options configures NewHandler.
type Options struct {
	Format Format
	Level  slog.Level
	// Output defaults to os.Stderr.
	Output io.Writer
}

// NewHandler returns a colour handler for terminals (or FormatText) and a
// JSON handler otherwise.
func NewHandler(opts Options) slog.Handler {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	if opts.Format == FormatText || (opts.Format == FormatAuto && IsTTY(w)) {
		return tinter.NewHandler(w, &tinter.Options{
			Level:      opts.Level,
			TimeFormat: "15:04:05.000",
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level})
}

// Setup installs the handler described by opts as the slog default.
func Setup(opts Options) *slog.Logger {
	l := slog.New(NewHandler(opts))
	slog.SetDefault(l)
	return l
}

// OpenFile opens path for appending, creating its directory. A daemon started
// as a login item has no terminal, so its logs go here.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	return f, nil
}
