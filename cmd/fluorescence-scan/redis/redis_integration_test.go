package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/db"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/model"
	"github.com/ispyb/fluorescence-scan/internal/metrics"
	iredis "github.com/ispyb/fluorescence-scan/internal/redis"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFluorescenceScanReadThrough(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	suite := iredis.InitSuite(ctx, t)
	require.Nil(t, suite.Redis.Del(ctx, keygen(42)).Err())

	var calls int
	scan := completedScan(42)
	store := db.NewStoreMock(
		db.WithFluorescenceScan(func(context.Context, uint32) (*model.FluorescenceScan, error) {
			calls++
			return &scan, nil
		}),
	)

	m := metrics.New(prometheus.NewRegistry())
	cache := New(zap.NewNop(), suite.Redis, store, m, time.Minute)

	first, err := cache.FluorescenceScan(ctx, 42)
	require.Nil(t, err)
	require.Equal(t, uint32(42), first.ID)

	second, err := cache.FluorescenceScan(ctx, 42)
	require.Nil(t, err)
	require.Equal(t, model.StatusCompleted, second.Status)

	require.Equal(t, 1, calls)
	require.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(resultMiss)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(resultHit)))
}

func TestFluorescenceScanAbsentNotCached(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	suite := iredis.InitSuite(ctx, t)
	require.Nil(t, suite.Redis.Del(ctx, keygen(9999)).Err())

	store := db.NewStoreMock(db.WithScans())
	cache := New(zap.NewNop(), suite.Redis, store, metrics.New(prometheus.NewRegistry()), time.Minute)

	scan, err := cache.FluorescenceScan(ctx, 9999)
	require.Nil(t, err)
	require.Nil(t, scan)

	exists, err := suite.Redis.Exists(ctx, keygen(9999)).Result()
	require.Nil(t, err)
	require.Equal(t, int64(0), exists)
}

func TestFluorescenceScanStoreError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	suite := iredis.InitSuite(ctx, t)
	require.Nil(t, suite.Redis.Del(ctx, keygen(42)).Err())

	errStore := errors.New("store unavailable")
	store := db.NewStoreMock(
		db.WithFluorescenceScan(func(context.Context, uint32) (*model.FluorescenceScan, error) {
			return nil, errStore
		}),
	)
	cache := New(zap.NewNop(), suite.Redis, store, metrics.New(prometheus.NewRegistry()), time.Minute)

	_, err := cache.FluorescenceScan(ctx, 42)
	require.ErrorIs(t, err, errStore)
}

func TestWriteBackAbandoned(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	suite := iredis.InitSuite(ctx, t)
	require.Nil(t, suite.Redis.Del(ctx, keygen(42)).Err())

	cache := New(zap.NewNop(), suite.Redis, db.NewStoreMock(), metrics.New(prometheus.NewRegistry()), time.Minute)

	abandoned, abandon := context.WithCancel(ctx)
	abandon()
	cache.writeBack(abandoned, completedScan(42))

	exists, err := suite.Redis.Exists(ctx, keygen(42)).Result()
	require.Nil(t, err)
	require.Equal(t, int64(0), exists)
}

func TestWriteBackMonotonic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	suite := iredis.InitSuite(ctx, t)
	require.Nil(t, suite.Redis.Del(ctx, keygen(42)).Err())

	cache := New(zap.NewNop(), suite.Redis, db.NewStoreMock(), metrics.New(prometheus.NewRegistry()), time.Minute)

	running := completedScan(42)
	running.Status = model.StatusRunning
	running.EndTime = nil

	cache.writeBack(ctx, running)
	cache.writeBack(ctx, completedScan(42))
	cache.writeBack(ctx, running)

	b, err := suite.Redis.Get(ctx, keygen(42)).Bytes()
	require.Nil(t, err)

	var cached model.FluorescenceScan
	require.Nil(t, decode(b, &cached))
	require.Equal(t, model.StatusCompleted, cached.Status)
}

func TestFluorescenceScansByIDsPartialHit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	suite := iredis.InitSuite(ctx, t)
	require.Nil(t, suite.Redis.Del(ctx, keygen(42), keygen(43), keygen(9999)).Err())

	var requested []uint32
	store := db.NewStoreMock(
		db.WithFluorescenceScansByIDs(func(_ context.Context, ids []uint32) (map[uint32]model.FluorescenceScan, error) {
			requested = ids
			found := make(map[uint32]model.FluorescenceScan)
			for _, id := range ids {
				if id != 9999 {
					found[id] = completedScan(id)
				}
			}
			return found, nil
		}),
	)
	cache := New(zap.NewNop(), suite.Redis, store, metrics.New(prometheus.NewRegistry()), time.Minute)
	cache.writeBack(ctx, completedScan(42))

	scans, err := cache.FluorescenceScansByIDs(ctx, []uint32{42, 43, 9999})
	require.Nil(t, err)
	require.Len(t, scans, 2)
	require.ElementsMatch(t, []uint32{43, 9999}, requested)
}

func completedScan(id uint32) model.FluorescenceScan {
	var (
		start = time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
		end   = start.Add(time.Minute)
		file  = "/dls/i03/data/xfe.dat"
	)
	return model.FluorescenceScan{
		ID:               id,
		SessionID:        7,
		Status:           model.StatusCompleted,
		StartTime:        &start,
		EndTime:          &end,
		ScanFileFullPath: &file,
	}
}
