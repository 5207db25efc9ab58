package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	asOf := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	tb := BuildTrialBalance(asOf, []AccountBalance{
		balance("1000", "Cash at Hand", accounts.AccountTypeAsset, "5000", "0"),
	})
	require.NoError(t, cache.Set(ctx, "tb:2025-06-30", tb))

	var cached TrialBalance
	hit, err := cache.Get(ctx, "tb:2025-06-30", &cached)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, len(tb.Rows), len(cached.Rows))
	require.True(t, cached.TotalDebit.Equal(tb.TotalDebit))
}

func TestCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	var cached TrialBalance
	hit, err := cache.Get(context.Background(), "tb:absent", &cached)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "bs:2025-06-30", map[string]string{"k": "v"}))
	mr.FastForward(2 * time.Minute)

	var cached map[string]string
	hit, err := cache.Get(ctx, "bs:2025-06-30", &cached)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheInvalidateDropsNamespace(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "tb:2025-06-30", map[string]string{"k": "v"}))
	require.NoError(t, cache.Set(ctx, "pl:2025-01-01:2025-06-30", map[string]string{"k": "v"}))
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, cache.Invalidate(ctx))

	var cached map[string]string
	hit, err := cache.Get(ctx, "tb:2025-06-30", &cached)
	require.NoError(t, err)
	require.False(t, hit)
	require.True(t, mr.Exists("other:key"))
}

func TestCacheNilClientIsNoop(t *testing.T) {
	cache := NewCache(nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "tb:x", map[string]string{"k": "v"}))
	var cached map[string]string
	hit, err := cache.Get(ctx, "tb:x", &cached)
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, cache.Invalidate(ctx))
}
