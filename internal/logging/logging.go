package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"ragnotes/internal/config"
)

// New builds the application logger. Console format is human readable with
// RFC3339 timestamps; json emits one object per line.
func New(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	w := out
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: out != os.Stderr && out != os.Stdout}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()
}

// Open returns the writer logs should go to: the configured file when set,
// otherwise fallback. The returned close func is never nil.
func Open(cfg config.LogConfig, fallback io.Writer) (io.Writer, func() error, error) {
	if cfg.File == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
