package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestCache(t *testing.T) *ListCache {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	c := New(client, "test:", time.Minute, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type page struct {
	Items []string
	Total int64
}

func TestDisabledCacheIsPassThrough(t *testing.T) {
	var c *ListCache
	calls := 0
	load := func(context.Context) (page, error) {
		calls++
		return page{Items: []string{"a"}, Total: 1}, nil
	}

	for i := 0; i < 2; i++ {
		got, err := GetOrLoad(context.Background(), c, "todos", "v", load)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Total)
	}
	assert.Equal(t, 2, calls)
	assert.NoError(t, c.Ping(context.Background()))
	c.Invalidate(context.Background(), "todos")
}

func TestVariantDistinguishesParameters(t *testing.T) {
	assert.Equal(t, Variant("milk", 0, 10), Variant("milk", 0, 10))
	assert.NotEqual(t, Variant("milk", 0, 10), Variant("milk", 1, 10))
	assert.NotContains(t, Variant("a*b"), "*")
}

func TestGetOrLoadCachesUntilInvalidated(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (page, error) {
		calls++
		return page{Items: []string{"x", "y"}, Total: 2}, nil
	}

	first, err := GetOrLoad(ctx, c, "todos", Variant(0, 10), load)
	require.NoError(t, err)
	second, err := GetOrLoad(ctx, c, "todos", Variant(0, 10), load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	c.Invalidate(ctx, "todos")
	_, err = GetOrLoad(ctx, c, "todos", Variant(0, 10), load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	hits, misses, _ := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	failing := errors.New("db down")
	_, err := GetOrLoad(ctx, c, "todos", "err", func(context.Context) (page, error) { return page{}, failing })
	assert.ErrorIs(t, err, failing)

	got, err := GetOrLoad(ctx, c, "todos", "err", func(context.Context) (page, error) { return page{Total: 3}, nil })
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Total)
}

func TestInvalidateDuringLoadDiscardsStaleResult(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		got, err := GetOrLoad(ctx, c, "todos", "all", func(context.Context) (page, error) {
			close(started)
			<-release
			return page{Total: 1}, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), got.Total)
	}()

	<-started
	c.Invalidate(ctx, "todos")
	close(release)
	<-done

	got, err := GetOrLoad(ctx, c, "todos", "all", func(context.Context) (page, error) {
		return page{Total: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Total)
}

func TestSharedLoadSurvivesCallerCancellation(t *testing.T) {
	c := setupTestCache(t)

	first, cancelFirst := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr atomic.Value

	firstDone := make(chan error, 1)
	go func() {
		_, err := GetOrLoad(first, c, "todos", "shared", func(ctx context.Context) (page, error) {
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				loadErr.Store(err)
				return page{}, err
			}
			return page{Total: 5}, nil
		})
		firstDone <- err
	}()

	<-started
	secondDone := make(chan page, 1)
	go func() {
		got, err := GetOrLoad(context.Background(), c, "todos", "shared", func(context.Context) (page, error) {
			return page{Total: 99}, nil
		})
		assert.NoError(t, err)
		secondDone <- got
	}()

	time.Sleep(20 * time.Millisecond)
	cancelFirst()
	assert.ErrorIs(t, <-firstDone, context.Canceled)
	close(release)

	assert.Equal(t, int64(5), (<-secondDone).Total)
	assert.Nil(t, loadErr.Load())
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (page, error) {
		calls.Add(1)
		<-release
		return page{Total: 7}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := GetOrLoad(ctx, c, "todos", "shared", load)
			assert.NoError(t, err)
			assert.Equal(t, int64(7), got.Total)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestCollectorReportsCounters(t *testing.T) {
	c := New(nil, "test:", time.Minute, zap.NewNop())
	c.stats.Hits.Add(3)
	c.stats.Misses.Add(1)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c.Collector()))

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		values[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, values["list_cache_hits_total"])
	assert.Equal(t, 1.0, values["list_cache_misses_total"])
	assert.Equal(t, 0.0, values["list_cache_errors_total"])
}
