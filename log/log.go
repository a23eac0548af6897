// Package log provides a leveled, structured logger shared by the whole
// node. It is a thin wrapper around zerolog exposing package-level helpers,
// so callers never carry a logger instance around.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

var (
	logger zerolog.Logger
	level  string
)

func init() {
	// usable out of the box; Init customizes level and output
	Init(LogLevelInfo, "stderr")
}

// Init initializes the global logger with the given level and output. Output
// accepts "stdout", "stderr" or a file path.
func Init(logLevel, output string) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr", "":
		out = os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		out = f
	}
	zl, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		zl = zerolog.InfoLevel
	}
	level = logLevel
	logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}).
		Level(zl).With().Timestamp().Logger()
}

// Level returns the configured log level string.
func Level() string {
	return level
}

// withFields attaches alternating key/value pairs to a zerolog event.
func withFields(ev *zerolog.Event, keyvals ...any) *zerolog.Event {
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		switch v := keyvals[i+1].(type) {
		case string:
			ev = ev.Str(key, v)
		case []byte:
			ev = ev.Str(key, fmt.Sprintf("%x", v))
		case error:
			ev = ev.AnErr(key, v)
		case int:
			ev = ev.Int(key, v)
		case uint64:
			ev = ev.Uint64(key, v)
		case time.Duration:
			ev = ev.Dur(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	return ev
}

func Debug(args ...any)                  { logger.Debug().Msg(fmt.Sprint(args...)) }
func Debugf(format string, args ...any)  { logger.Debug().Msgf(format, args...) }
func Debugw(msg string, keyvals ...any)  { withFields(logger.Debug(), keyvals...).Msg(msg) }
func Info(args ...any)                   { logger.Info().Msg(fmt.Sprint(args...)) }
func Infof(format string, args ...any)   { logger.Info().Msgf(format, args...) }
func Infow(msg string, keyvals ...any)   { withFields(logger.Info(), keyvals...).Msg(msg) }
func Warn(args ...any)                   { logger.Warn().Msg(fmt.Sprint(args...)) }
func Warnf(format string, args ...any)   { logger.Warn().Msgf(format, args...) }
func Warnw(msg string, keyvals ...any)   { withFields(logger.Warn(), keyvals...).Msg(msg) }
func Error(args ...any)                  { logger.Error().Msg(fmt.Sprint(args...)) }
func Errorf(format string, args ...any)  { logger.Error().Msgf(format, args...) }
func Errorw(err error, msg string)       { logger.Error().Err(err).Msg(msg) }
func Fatalf(format string, args ...any)  { logger.Fatal().Msgf(format, args...) }
