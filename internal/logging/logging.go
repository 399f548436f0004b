// Package logging builds the zerolog loggers used by the command-line tools.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New returns a timestamped logger writing to w at the given level. When
// console is set the output is rendered by zerolog.ConsoleWriter instead of
// JSON lines.
func New(w io.Writer, level zerolog.Level, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: !isTerminal(w)}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewConsole returns a human-readable logger on stderr.
func NewConsole(level zerolog.Level) zerolog.Logger {
	return New(os.Stderr, level, true)
}

// ParseLevel accepts zerolog level names, case-insensitively. An empty string
// selects info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
