package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type ctxKey struct{}

func requestID(ctx context.Context) []zap.Field {
	id, ok := ctx.Value(ctxKey{}).(string)
	if !ok {
		return nil
	}
	return []zap.Field{zap.String("request_id", id)}
}

func TestZapLogFormatter(t *testing.T) {
	tests := map[string]struct {
		status int
		level  zapcore.Level
	}{
		"ok":           {status: http.StatusOK, level: zapcore.DebugLevel},
		"bad request":  {status: http.StatusBadRequest, level: zapcore.WarnLevel},
		"server error": {status: http.StatusServiceUnavailable, level: zapcore.ErrorLevel},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)

			handler := middleware.RequestLogger(NewZapLogFormatter(zap.New(core), requestID))(
				http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(test.status)
				}),
			)

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), ctxKey{}, "abc-123"))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			entries := logs.FilterMessage("[HTTP Request]").All()
			require.Len(t, entries, 1)
			require.Equal(t, test.level, entries[0].Level)

			fields := entries[0].ContextMap()
			require.Equal(t, "abc-123", fields["request_id"])
			require.Equal(t, http.MethodPost, fields["method"])
			require.Equal(t, int64(test.status), fields["status"])
		})
	}
}

func TestZapLogFormatterPanic(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	handler := middleware.RequestLogger(NewZapLogFormatter(zap.New(core), nil))(
		middleware.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	entries := logs.FilterMessage("[HTTP Request] handler panic").All()
	require.Len(t, entries, 1)
	require.Equal(t, "boom", entries[0].ContextMap()["value"])
}
