package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	env string
	log zerolog.Logger
}

func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter builds a logger that writes to w instead of stdout.
func NewWithWriter(env string, w io.Writer) *Logger {
	var zl zerolog.Logger

	// Configure zerolog for dev vs prod
	if env == "dev" {
		// Human-friendly console output
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		// JSON structured logs for production
		zl = zerolog.New(w).With().Timestamp().Logger()
	}

	return &Logger{
		env: env,
		log: zl,
	}
}

// Nop discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{env: "test", log: zerolog.Nop()}
}

// Zerolog exposes the underlying logger for infrastructure clients.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.log
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log.Fatal().Msgf(format, args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		env: l.env,
		log: l.log.With().Interface(key, value).Logger(),
	}
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.log.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{
		env: l.env,
		log: ctx.Logger(),
	}
}

// Printf lets the logger back cron.PrintfLogger.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}
