package logger

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader is the header a caller, typically the federation gateway,
// may use to propagate its request ID.
const RequestIDHeader = "X-Request-ID"

// key is a key used to store and retrieve a logger from the context.
// SA1029: should not use built-in type string as key for value; define your
// own type to avoid collisions.
type key string

var loggerCtxKey key = "logger_context_key"

// New creates a zap.Logger at the specified level. Development loggers are
// human readable; production loggers emit JSON.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("while parsing log level: %w", err)
	}

	config := zap.NewProductionConfig()
	if development {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	return config.Build()
}

// WithRequestID creates a new context with a requestID value.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, loggerCtxKey, requestID)
}

// requestIDFromCtx retrieves the requestID from the context if it exists.
func requestIDFromCtx(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(loggerCtxKey).(string)
	return val, ok
}

// ContextFields checks the context for a set of fields and returns them for
// use in a zap.Logger if they are available.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0)
	if requestID, ok := requestIDFromCtx(ctx); ok {
		fields = append(fields, zap.String("request_id", requestID))
	}
	return fields
}

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Middleware extends the incoming request's context with request scoped
// information critical to logging. A well-formed incoming request ID is
// reused, otherwise one is generated.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if !validRequestID.MatchString(requestID) {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := WithRequestID(r.Context(), requestID)
			r = r.WithContext(ctx)
			next.ServeHTTP(w, r)
		})
	}
}
