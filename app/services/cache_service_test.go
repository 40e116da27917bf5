package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
)

func TestCacheService_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	cache := NewCacheService(time.Minute)
	cache.now = func() time.Time { return now }

	result := &models.RecordResult{Fingerprint: "sha256:abc", RulesVersion: "2024.1"}
	require.NoError(t, cache.Set(ctx, "2024.1:sha256:abc", result))

	got, found, err := cache.Get(ctx, "2024.1:sha256:abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Same(t, result, got)

	ttl, err := cache.GetTTL(ctx, "2024.1:sha256:abc")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	now = now.Add(2 * time.Minute)
	_, found, err = cache.Get(ctx, "2024.1:sha256:abc")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, cache.Size())

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.InDelta(t, 0.5, stats.HitRate, 0.0001)
}

func TestCacheService_InvalidateByRulesVersion(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(time.Hour)

	require.NoError(t, cache.Set(ctx, "old", &models.RecordResult{RulesVersion: "2023.2"}))
	require.NoError(t, cache.Set(ctx, "new", &models.RecordResult{RulesVersion: "2024.1"}))

	require.NoError(t, cache.InvalidateByRulesVersion(ctx, "2024.1"))

	exists, _ := cache.Exists(ctx, "old")
	assert.False(t, exists)
	exists, _ = cache.Exists(ctx, "new")
	assert.True(t, exists)
}

func TestCacheService_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	cache := NewCacheService(time.Minute)
	cache.now = func() time.Time { return now }
	require.NoError(t, cache.Set(ctx, "a", &models.RecordResult{}))

	now = now.Add(30 * time.Second)
	require.NoError(t, cache.Set(ctx, "b", &models.RecordResult{}))

	now = now.Add(45 * time.Second)
	cache.CleanupExpired()
	assert.Equal(t, 1, cache.Size())
}

func TestHybridCacheService_SyncsL2HitToL1(t *testing.T) {
	ctx := context.Background()
	l1 := NewCacheService(time.Minute)
	l2 := NewCacheService(time.Hour)
	hybrid := NewHybridCacheService(l1, l2, zap.NewNop())

	result := &models.RecordResult{RulesVersion: "2024.1"}
	require.NoError(t, l2.Set(ctx, "k", result))

	got, found, err := hybrid.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Same(t, result, got)

	exists, err := l1.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	_, found, err = hybrid.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	stats, err := hybrid.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.Equal(t, int64(1), stats.TotalItems)
}

func TestHybridCacheService_WritesBothLayers(t *testing.T) {
	ctx := context.Background()
	l1 := NewCacheService(time.Minute)
	l2 := NewCacheService(time.Hour)
	hybrid := NewHybridCacheService(l1, l2, zap.NewNop())

	require.NoError(t, hybrid.Set(ctx, "k", &models.RecordResult{RulesVersion: "2023.2"}))
	assert.Equal(t, 1, l1.Size())
	assert.Equal(t, 1, l2.Size())

	require.NoError(t, hybrid.InvalidateByRulesVersion(ctx, "2024.1"))
	assert.Equal(t, 0, l1.Size())
	assert.Equal(t, 0, l2.Size())

	require.NoError(t, hybrid.Close())
}
