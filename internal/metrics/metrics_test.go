package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveQuery(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveQuery("first", time.Now(), nil)
	m.ObserveQuery("first", time.Now(), nil)
	m.ObserveQuery("first", time.Now(), errors.New("connection refused"))

	require.Equal(t, 2.0, testutil.ToFloat64(m.StoreQueries.WithLabelValues("first", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StoreQueries.WithLabelValues("first", "error")))
}

func TestObserveOperation(t *testing.T) {
	tests := map[string]struct {
		hasData bool
		errs    int
		exp     string
	}{
		"ok":      {hasData: true, errs: 0, exp: "ok"},
		"partial": {hasData: true, errs: 1, exp: "partial"},
		"error":   {hasData: false, errs: 2, exp: "error"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := New(prometheus.NewRegistry())
			m.ObserveOperation(time.Now(), test.hasData, test.errs)

			require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(test.exp)))
		})
	}
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	require.Panics(t, func() { New(reg) })
}
