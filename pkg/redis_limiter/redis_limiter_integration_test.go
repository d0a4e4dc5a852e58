//go:build integration

package redis_limiter

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLimiter_AcquireRelease(t *testing.T) {
	client := newRedisClient(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	ctx := context.Background()
	limiter := NewRedisLimiter(client, 2, "test:uploads:", time.Minute, log)

	require.NoError(t, limiter.Acquire(ctx, "user:1"))
	require.NoError(t, limiter.Acquire(ctx, "user:1"))
	assert.ErrorIs(t, limiter.Acquire(ctx, "user:1"), ErrLimitReached)

	// 其他用户不受影响
	require.NoError(t, limiter.Acquire(ctx, "user:2"))

	current, err := limiter.GetCurrent(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, 2, current)

	limiter.Release(ctx, "user:1")
	require.NoError(t, limiter.Acquire(ctx, "user:1"))

	limiter.Release(ctx, "user:1")
	limiter.Release(ctx, "user:1")
	current, err = limiter.GetCurrent(ctx, "user:1")
	require.NoError(t, err)
	assert.Zero(t, current)
	assert.Equal(t, 2, limiter.GetMaxConcurrent())
}
