package redis

import (
	"context"
	"os"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

// TestAddrEnv is the environment variable naming the redis server
// integration tests run against.
const TestAddrEnv = "FLUORESCENCE_SCAN_TEST_REDIS_ADDR"

// InitSuite connects to the redis server named by TestAddrEnv. The test is
// skipped if it is not set.
func InitSuite(ctx context.Context, t *testing.T) *Suite {
	t.Helper()

	addr := os.Getenv(TestAddrEnv)
	if addr == "" {
		t.Skipf("%s not set", TestAddrEnv)
	}

	rdb, err := Open(ctx, addr, "")
	require.Nil(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return &Suite{Redis: rdb}
}

type Suite struct {
	Redis *redis.Client
}
