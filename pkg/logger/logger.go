// Package logger builds the zerolog root logger the engine hands down to
// its services, repositories and jobs.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config controls the root logger
type Config struct {
	Level   string    // trace, debug, info, warn, error
	Pretty  bool      // human-readable console output for dev runs
	Service string    // value of the "service" field on every line
	Out     io.Writer // defaults to os.Stdout
}

// New builds the root logger. The level is carried on the logger itself
// rather than through zerolog's global level, so two loggers with different
// levels can coexist in one process.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return ctx.Logger()
}

// ParseLevel maps a config string to a zerolog level. Unknown or empty
// names fall back to info so a typo in the environment never silences or
// floods the logs.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
