package graph

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/db"
	"github.com/ispyb/fluorescence-scan/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandler(t *testing.T) {
	tests := map[string]struct {
		method   string
		body     string
		status   int
		expected string
		outcome  string
	}{
		"found": {
			method:   http.MethodPost,
			body:     `{"query":"{ fluorescenceScan(id: 42) { id status } }"}`,
			status:   http.StatusOK,
			expected: `{"data":{"fluorescenceScan":{"id":"42","status":"completed"}}}`,
			outcome:  "ok",
		},
		"absent": {
			method:   http.MethodPost,
			body:     `{"query":"{ fluorescenceScan(id: 9999) { id status } }"}`,
			status:   http.StatusOK,
			expected: `{"data":{"fluorescenceScan":null}}`,
			outcome:  "ok",
		},
		"variables": {
			method:   http.MethodPost,
			body:     `{"query":"query Scan($id: ID!) { fluorescenceScan(id: $id) { id } }","operationName":"Scan","variables":{"id":"43"}}`,
			status:   http.StatusOK,
			expected: `{"data":{"fluorescenceScan":{"id":"43"}}}`,
			outcome:  "ok",
		},
		"entities": {
			method: http.MethodPost,
			body: `{
				"query":"query($r: [_Any!]!) { _entities(representations: $r) { ... on FluorescenceScan { id } } }",
				"variables":{"r":[{"__typename":"FluorescenceScan","id":42}]}
			}`,
			status:   http.StatusOK,
			expected: `{"data":{"_entities":[{"id":"42"}]}}`,
			outcome:  "ok",
		},
		"malformed body": {
			method: http.MethodPost,
			body:   `{"query":`,
			status: http.StatusBadRequest,
		},
		"missing query": {
			method: http.MethodPost,
			body:   `{"variables":{}}`,
			status: http.StatusBadRequest,
		},
		"wrong method": {
			method: http.MethodPut,
			body:   `{"query":"{ fluorescenceScan(id: 42) { id } }"}`,
			status: http.StatusMethodNotAllowed,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			handler := NewHandler(
				zap.NewNop(),
				newSchema(t, db.NewStoreMock(db.WithScans(scans()...)), nil),
				m,
			)

			req := httptest.NewRequest(test.method, "/", strings.NewReader(test.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			resp := rr.Result()
			defer resp.Body.Close()

			require.Equal(t, test.status, resp.StatusCode)
			require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			if test.expected != "" {
				require.JSONEq(t, test.expected, rr.Body.String())
			}
			if test.outcome != "" {
				require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(test.outcome)))
			}
		})
	}
}

func TestHandlerPartial(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	handler := NewHandler(zap.NewNop(), newSchema(t, db.NewStoreMock(), nil), m)

	req := httptest.NewRequest(
		http.MethodPost,
		"/",
		strings.NewReader(`{"query":"{ fluorescenceScan(id: 42) { id } }"}`),
	)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"DATA_UNAVAILABLE"`)
	require.Contains(t, rr.Body.String(), `"data":{"fluorescenceScan":null}`)
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("partial")))
}
