// Package logging builds the zerolog loggers used across the sandbox.
// Output goes to stderr; stdout may carry the transport.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "EEPROXY_LOG_LEVEL"
	EnvLogTimestamp = "EEPROXY_LOG_TIMESTAMP"
	EnvLogNoColor   = "EEPROXY_LOG_NOCOLOR"
)

// Options control the console output.
type Options struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

// DefaultOptions derives options from a configured level name, then applies
// environment overrides.
func DefaultOptions(level string) Options {
	opts := Options{Level: zerolog.InfoLevel, Timestamp: true}
	if lvl, ok := ParseLevel(level); ok {
		opts.Level = lvl
	}
	applyEnvOverrides(&opts)
	return opts
}

// New returns a console logger on stderr tagged with component.
func New(component, level string) zerolog.Logger {
	return NewWithWriter(os.Stderr, component, DefaultOptions(level))
}

// NewWithWriter is New with an explicit destination and options.
func NewWithWriter(w io.Writer, component string, opts Options) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    opts.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !opts.Timestamp {
		output.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(output).Level(opts.Level).With().Str("component", component)
	if opts.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

// ParseLevel maps a level name to a zerolog level. The empty string is not
// a level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func applyEnvOverrides(opts *Options) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		opts.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		opts.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
