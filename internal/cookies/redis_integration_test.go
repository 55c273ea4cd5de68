//go:build integration

package cookies

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisContainer(t *testing.T, ctx context.Context) (*RedisSource, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	src, err := NewRedisSource(ctx, fmt.Sprintf("%s:%s", host, port.Port()))
	require.NoError(t, err)

	cleanup := func() {
		_ = src.Close()
		_ = container.Terminate(ctx)
	}

	return src, cleanup
}

func TestIntegration_RedisSource(t *testing.T) {
	ctx := context.Background()
	src, cleanup := setupRedisContainer(t, ctx)
	defer cleanup()

	t.Run("absent cookie is not an error", func(t *testing.T) {
		raw, ok, err := src.Cookie(ctx, "jianshu.io")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, raw)
	})

	t.Run("set and read back", func(t *testing.T) {
		require.NoError(t, src.Set(ctx, "jianshu.io", "remember_user_token=abc123; path=/", 0))

		raw, ok, err := src.Cookie(ctx, "jianshu.io")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "remember_user_token=abc123; path=/", raw)
	})

	t.Run("ttl expires the entry", func(t *testing.T) {
		require.NoError(t, src.Set(ctx, "short.example.com", "a=1", time.Second))

		require.Eventually(t, func() bool {
			_, ok, err := src.Cookie(ctx, "short.example.com")
			return err == nil && !ok
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, src.Delete(ctx, "jianshu.io"))
		assert.ErrorIs(t, src.Delete(ctx, "jianshu.io"), ErrCookieNotFound)
	})
}
