package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := map[string]struct {
		level string
		err   bool
	}{
		"info":    {level: "info"},
		"debug":   {level: "debug"},
		"unknown": {level: "verbose", err: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			logger, err := New(test.level, false)
			if test.err {
				require.Error(t, err)
				return
			}
			require.Nil(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestMiddleware(t *testing.T) {
	tests := map[string]struct {
		header   string
		expected func(*testing.T, string)
	}{
		"propagated": {
			header: "gateway-1234",
			expected: func(t *testing.T, id string) {
				require.Equal(t, "gateway-1234", id)
			},
		},
		"generated": {
			expected: func(t *testing.T, id string) {
				_, err := uuid.Parse(id)
				require.Nil(t, err)
			},
		},
		"malformed": {
			header: "bad id\n",
			expected: func(t *testing.T, id string) {
				_, err := uuid.Parse(id)
				require.Nil(t, err)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var got string
			handler := Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				var ok bool
				got, ok = requestIDFromCtx(r.Context())
				require.True(t, ok)
			}))

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if test.header != "" {
				req.Header.Set(RequestIDHeader, test.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			test.expected(t, got)
			require.Equal(t, got, rr.Header().Get(RequestIDHeader))
		})
	}
}

func TestContextFields(t *testing.T) {
	require.Empty(t, ContextFields(context.Background()))

	ctx := WithRequestID(context.Background(), "abc")
	require.Equal(t, []zap.Field{zap.String("request_id", "abc")}, ContextFields(ctx))
}

func TestLogPanic(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	ctx := WithRequestID(context.Background(), "abc")
	NewPanicLogger(zap.New(core)).LogPanic(ctx, "boom")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "resolver panic", entries[0].Message)
	require.Equal(t, "abc", entries[0].ContextMap()["request_id"])
	require.Equal(t, "boom", entries[0].ContextMap()["value"])
}
