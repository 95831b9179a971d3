package cliconfig

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger returns a console logger on stderr at the given level. An unknown
// level falls back to info.
func Logger(level string) zerolog.Logger {
	return NewLogger(os.Stderr, level)
}

// NewLogger returns a console logger writing to w.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}).
		Level(lvl).
		With().Timestamp().Logger()
}
