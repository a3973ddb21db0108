package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New builds a logger on stdout. format is "console" (human readable, the
// default) or "json"; level is any zerolog level name plus "warning" and "off".
func New(level, format string) *zerolog.Logger {
	var w io.Writer = os.Stdout
	if !strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(level, w)
}

// NewWithWriter builds a logger writing JSON lines to w.
func NewWithWriter(level string, w io.Writer) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Str("service", "partyline").Logger()
	return &logger
}

func parseLevel(level string) zerolog.Level {
	switch s := strings.ToLower(strings.TrimSpace(level)); s {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "off":
		return zerolog.Disabled
	default:
		lvl, err := zerolog.ParseLevel(s)
		if err != nil {
			return zerolog.InfoLevel
		}
		return lvl
	}
}
