package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the structured logger shared by every process of the catalog.
// All entries carry a timestamp and the caller outside this package.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger writing to stdout.
// "development" logs to the console at debug level, "test" is silent
// and everything else writes JSON at info level.
func New(env string) *Logger {
	return newLogger(os.Stdout, env)
}

// ForService returns a logger that tags every entry with the process name
func ForService(env, service string) *Logger {
	return New(env).With("service", service)
}

func newLogger(w io.Writer, env string) *Logger {
	if env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(w).With().
		Timestamp().
		CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 1).
		Logger()

	switch env {
	case "development":
		zl = zl.Level(zerolog.DebugLevel)
	case "test":
		zl = zl.Level(zerolog.Disabled)
	default:
		zl = zl.Level(zerolog.InfoLevel)
	}

	return &Logger{zl: zl}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }

func (l *Logger) Debugf(format string, v ...interface{}) { l.zl.Debug().Msgf(format, v...) }

func (l *Logger) Info(msg string) { l.zl.Info().Msg(msg) }

func (l *Logger) Infof(format string, v ...interface{}) { l.zl.Info().Msgf(format, v...) }

func (l *Logger) Warn(msg string) { l.zl.Warn().Msg(msg) }

func (l *Logger) Warnf(format string, v ...interface{}) { l.zl.Warn().Msgf(format, v...) }

// Error logs msg with err attached under the "error" key
func (l *Logger) Error(msg string, err error) { l.zl.Error().Err(err).Msg(msg) }

// Errorf is Error with a formatted message
func (l *Logger) Errorf(err error, format string, v ...interface{}) {
	l.zl.Error().Err(err).Msgf(format, v...)
}

// Fatal logs and exits the process
func (l *Logger) Fatal(msg string, err error) { l.zl.Fatal().Err(err).Msg(msg) }

// Fatalf logs a formatted message and exits the process
func (l *Logger) Fatalf(err error, format string, v ...interface{}) {
	l.zl.Fatal().Err(err).Msgf(format, v...)
}

// With returns a child logger carrying key on every entry
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithFields returns a child logger carrying all fields on every entry
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

// Zerolog exposes the underlying logger for libraries that take one
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// SetGlobalLogger makes l the logger behind zerolog/log
func SetGlobalLogger(l *Logger) {
	log.Logger = l.zl
}
