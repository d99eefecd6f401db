package db

import (
	"context"
	"os"
	"testing"
	"time"

	scanerrors "github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/errors"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/model"
	igorm "github.com/ispyb/fluorescence-scan/internal/gorm"
	"github.com/ispyb/fluorescence-scan/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// databaseURL must reference a MySQL or MariaDB database the fixture
// migrations may be applied to.
var databaseURL = os.Getenv("FLUORESCENCE_SCAN_TEST_DATABASE_URL")

const migrations = "file://testdata/migrations"

func TestFluorescenceScan(t *testing.T) {
	store, m := newStore(t)

	tests := map[string]struct {
		id     uint32
		status model.Status
		absent bool
	}{
		"completed":   {id: 42, status: model.StatusCompleted},
		"running":     {id: 43, status: model.StatusRunning},
		"pending":     {id: 45, status: model.StatusPending},
		"quarantined": {id: 44, absent: true},
		"absent":      {id: 9999, absent: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			scan, err := store.FluorescenceScan(ctx, test.id)
			require.Nil(t, err)
			if test.absent {
				require.Nil(t, scan)
				return
			}
			require.Equal(t, test.id, scan.ID)
			require.Equal(t, test.status, scan.Status)
		})
	}

	require.GreaterOrEqual(t, testutil.ToFloat64(m.StoreQuarantinedRows), 1.0)
}

func TestFluorescenceScansByIDs(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	scans, err := store.FluorescenceScansByIDs(ctx, []uint32{42, 44, 45, 9999})
	require.Nil(t, err)
	require.Len(t, scans, 2)
	require.Contains(t, scans, uint32(42))
	require.Contains(t, scans, uint32(45))
}

func TestFluorescenceScansBySession(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	scans, err := store.FluorescenceScansBySession(ctx, 7)
	require.Nil(t, err)
	require.Len(t, scans, 2)
	require.Equal(t, uint32(42), scans[0].ID)
	require.Equal(t, uint32(43), scans[1].ID)

	scans, err = store.FluorescenceScansBySession(ctx, 9999)
	require.Nil(t, err)
	require.Empty(t, scans)
}

func TestFluorescenceScanCancelled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scan, err := store.FluorescenceScan(ctx, 42)
	require.Nil(t, scan)
	require.ErrorIs(t, err, scanerrors.ErrDataUnavailable)
}

func newStore(t *testing.T) (*Store, *metrics.Metrics) {
	t.Helper()
	skipIfMissingDatabaseEnvVars(t)

	dbconn, err := Open(databaseURL, igorm.WithLogger(zap.NewNop()))
	require.Nil(t, err)
	require.Nil(t, Migrate(dbconn, migrations))

	m := metrics.New(prometheus.NewRegistry())
	return NewStore(zap.NewNop(), dbconn, m), m
}

func skipIfMissingDatabaseEnvVars(t *testing.T) {
	t.Helper()
	if databaseURL == "" {
		t.Skip("FLUORESCENCE_SCAN_TEST_DATABASE_URL not set")
	}
}
