//go:build integration

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/ListSense/internal/config"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// startRedis launches a Redis 7 container and returns a connected Client.
func startRedis(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewClient(config.RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestIntegration_ResultCache(t *testing.T) {
	client := startRedis(t)
	cache := NewResultCache(client, nil, WithPrefix("it:"))
	ctx := context.Background()

	want := []entity.Entity{{
		Type:             entity.KindList,
		ExtractionResult: entity.ExtractionResult{Name: "Fruit", Value: "Apple", Source: "apple", Confidence: 1, CharEnd: 5},
	}}
	got, hit, err := cache.GetOrCompute(ctx, "apple", nil, 1, func(context.Context) ([]entity.Entity, error) { return want, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, want, got)

	got, hit, err = cache.GetOrCompute(ctx, "apple", nil, 1, nil)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, got)

	n, err := cache.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIntegration_JobLock(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	a := NewJobLock(client, nil, "it:", "job", time.Second)
	b := NewJobLock(client, nil, "it:", "job", time.Second)

	ok, err := a.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// keep-alive renews past the original ttl
	time.Sleep(1500 * time.Millisecond)
	ok, err = b.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Unlock(ctx))
}

//Personal.AI order the ending
