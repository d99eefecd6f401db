package logger

import (
	"context"
	"runtime/debug"

	"github.com/graph-gophers/graphql-go/log"
	"go.uber.org/zap"
)

var _ log.Logger = (*PanicLogger)(nil)

// NewPanicLogger creates a PanicLogger instance.
func NewPanicLogger(logger *zap.Logger) *PanicLogger {
	return &PanicLogger{logger: logger}
}

// PanicLogger reports panics recovered while resolving fields.
type PanicLogger struct {
	logger *zap.Logger
}

// LogPanic implements the log.Logger interface.
func (l PanicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.logger.
		With(ContextFields(ctx)...).
		Error(
			"resolver panic",
			zap.Any("value", value),
			zap.ByteString("stack", debug.Stack()),
		)
}
