package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ContextFields retrieves the request-scoped fields held by a context.
type ContextFields func(context.Context) []zap.Field

// NewZapLogFormatter creates a ZapLogFormatter that logs each request with the
// request-scoped fields of its context.
func NewZapLogFormatter(logger *zap.Logger, fields ContextFields) *ZapLogFormatter {
	return &ZapLogFormatter{
		logger: logger,
		fields: fields,
	}
}

// ZapLogFormatter implements chi's middleware.LogFormatter.
type ZapLogFormatter struct {
	logger *zap.Logger
	fields ContextFields
}

func (f ZapLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	logger := f.logger.With(
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	if f.fields != nil {
		logger = logger.With(f.fields(r.Context())...)
	}
	return logEntry{logger: logger}
}

type logEntry struct{ logger *zap.Logger }

func (e logEntry) Write(
	status, bytes int,
	_ http.Header,
	elapsed time.Duration,
	_ interface{},
) {

	var level func(string, ...zap.Field)
	switch {
	case status < http.StatusBadRequest:
		level = e.logger.Debug
	case status < http.StatusInternalServerError:
		level = e.logger.Warn
	default:
		level = e.logger.Error
	}

	level(
		"[HTTP Request]",
		zap.Int("status", status),
		zap.Int("bytes", bytes),
		zap.Duration("elapsed", elapsed),
	)
}

func (e logEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error(
		"[HTTP Request] handler panic",
		zap.Any("value", v),
		zap.ByteString("stack", stack),
	)
}
