// Package logging builds the zap loggers used across foothold.
package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger constructs a zap logger with the provided level (default warn).
// It uses console encoding, ISO8601 timestamps and writes to stderr so that
// stdout stays reserved for command output.
func NewLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	lvl := level
	if lvl == "" {
		lvl = "warn"
	}
	l, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(l)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.Sampling = nil
	return zcfg.Build()
}

// Init builds a logger and installs it as the zap global.
// The returned function restores the previous global.
func Init(level string) (func(), error) {
	logger, err := NewLogger(level)
	if err != nil {
		return nil, err
	}
	return zap.ReplaceGlobals(logger), nil
}

// WithComponent attaches a component field.
func WithComponent(logger *zap.Logger, component string) *zap.Logger {
	if component == "" {
		return logger
	}
	return logger.With(zap.String("component", component))
}

var (
	mysqlCreds    = regexp.MustCompile(`^([^:@/]+):([^@]*)@`)
	postgresCreds = regexp.MustCompile(`(password=)(\S+)`)
	urlCreds      = regexp.MustCompile(`(://[^:/@]+:)([^@]+)@`)
)

// RedactDSN masks passwords in MySQL, PostgreSQL key/value and URL style DSNs.
func RedactDSN(dsn string) string {
	out := urlCreds.ReplaceAllString(dsn, "${1}***@")
	out = postgresCreds.ReplaceAllString(out, "${1}***")
	if out == dsn {
		out = mysqlCreds.ReplaceAllString(dsn, "${1}:***@")
	}
	return out
}

// FieldDSN returns a zap field with a redacted DSN.
func FieldDSN(key, dsn string) zap.Field {
	return zap.String(key, RedactDSN(dsn))
}
