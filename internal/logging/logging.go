package logging

import (
	"fmt"

	"pgstruct-mcp/internal/safety"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger constructs a zap logger with the provided level (default info).
// It uses console encoding and ISO8601 timestamps.
func NewLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	lvl := level
	if lvl == "" {
		lvl = "info"
	}
	l, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(l)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.CallerKey = "caller"
	return zcfg.Build()
}

// Fields bundles common structured fields used across the service.
type Fields struct {
	Component  string
	ToolName   string
	Diagnostic string
	Schema     string
	Host       string
}

// WithFields attaches the non-empty fields to the logger.
func WithFields(logger *zap.Logger, f Fields) *zap.Logger {
	fields := make([]zap.Field, 0, 5)
	if f.Component != "" {
		fields = append(fields, zap.String("component", f.Component))
	}
	if f.ToolName != "" {
		fields = append(fields, zap.String("tool_name", f.ToolName))
	}
	if f.Diagnostic != "" {
		fields = append(fields, zap.String("diagnostic", f.Diagnostic))
	}
	if f.Schema != "" {
		fields = append(fields, zap.String("schema", f.Schema))
	}
	if f.Host != "" {
		fields = append(fields, FieldHost(f.Host))
	}
	return logger.With(fields...)
}

// WithComponent attaches a component field.
func WithComponent(logger *zap.Logger, component string) *zap.Logger {
	if component == "" {
		return logger
	}
	return logger.With(zap.String("component", component))
}

// WithTool attaches a tool_name field.
func WithTool(logger *zap.Logger, tool string) *zap.Logger {
	if tool == "" {
		return logger
	}
	return logger.With(zap.String("tool_name", tool))
}

// WithDiagnostic attaches the diagnostic id and schema.
func WithDiagnostic(logger *zap.Logger, diagnostic, schema string) *zap.Logger {
	return WithFields(logger, Fields{Diagnostic: diagnostic, Schema: schema})
}

// RedactDSN masks the password of a URL or key/value DSN.
func RedactDSN(dsn string) string { return safety.RedactDSN(dsn) }

// FieldDSN returns a zap field with a redacted DSN.
func FieldDSN(key, dsn string) zap.Field {
	return zap.String(key, RedactDSN(dsn))
}

func FieldHost(host string) zap.Field {
	return zap.String("host", host)
}
