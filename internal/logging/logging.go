package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configure the global logger.
type Options struct {
	Level   string
	Format  string
	NoColor bool

	// Output defaults to stderr.
	Output io.Writer

	// Sinks additionally receive every event as a (category, message) pair.
	Sinks []Sink
}

// InitDefault installs a console logger before flags and config are parsed.
func InitDefault() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Init replaces the global logger according to opts.
func Init(opts Options) error {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return fmt.Errorf("invalid log level '%s': %w", opts.Level, err)
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    opts.NoColor,
			TimeFormat: time.Kitchen,
		}
	case FormatJSON:
	default:
		return fmt.Errorf("invalid log format '%s' (expected console or json)", opts.Format)
	}

	if len(opts.Sinks) > 0 {
		out = zerolog.MultiLevelWriter(out, NewSinkWriter(NewMultiSink(opts.Sinks...)))
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}
