package cache

import (
	"context"
	"testing"
	"time"

	"recipe-recommender/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCacheIsNoOp(t *testing.T) {
	service, err := NewService(&config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	defer service.Close()

	ctx := context.Background()
	materials := []string{"김치", "두부"}

	_, hit := service.Get(ctx, materials)
	assert.False(t, hit)

	// Set 在停用時不做事也不報錯
	assert.NoError(t, service.Set(ctx, materials, nil))
}

func TestEnabledCacheRequiresReachableRedis(t *testing.T) {
	_, err := NewService(&config.CacheConfig{
		Enabled: true,
		Addr:    "127.0.0.1:1", // 不可達
		TTL:     time.Minute,
	})
	assert.Error(t, err)
}
