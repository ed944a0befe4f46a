/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestLRUCache_AddGetEvict(t *testing.T) {
	metrics := NewPrometheusMetrics()
	cache, err := New[string, int](2, metrics.ForCache("locales"))
	require.NoError(t, err)

	cache.Add("de", 1)
	cache.Add("en", 2)
	_, ok := cache.Get("de") // "de" becomes the most recently used
	require.True(t, ok)

	cache.Add("fr", 3)
	require.Equal(t, 2, cache.Len())
	_, ok = cache.Get("en")
	require.False(t, ok, "least recently used entry must be evicted")

	val, ok := cache.Get("fr")
	require.True(t, ok)
	require.Equal(t, 3, val)

	require.Equal(t, 2.0, testutil.ToFloat64(metrics.HitsTotal.WithLabelValues("locales")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.MissesTotal.WithLabelValues("locales")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.EvictionsTotal.WithLabelValues("locales")))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.EntriesAmount.WithLabelValues("locales")))

	require.True(t, cache.Remove("fr"))
	require.False(t, cache.Remove("fr"))
	cache.Purge()
	require.Equal(t, 0, cache.Len())
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.EntriesAmount.WithLabelValues("locales")))
}

func TestPrometheusMetrics_ForCache(t *testing.T) {
	metrics := NewPrometheusMetrics()
	first, err := New[string, int](1, metrics.ForCache("first"))
	require.NoError(t, err)
	second, err := New[string, int](1, metrics.ForCache("second"))
	require.NoError(t, err)

	first.Add("a", 1)
	first.Add("b", 2)
	_, _ = second.Get("a")

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.EvictionsTotal.WithLabelValues("first")))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.EvictionsTotal.WithLabelValues("second")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.MissesTotal.WithLabelValues("second")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.EntriesAmount.WithLabelValues("first")))
	require.Equal(t, 2, testutil.CollectAndCount(metrics.EntriesAmount))

	metrics.MustRegister()
	metrics.Unregister()
}

func TestLRUCache_InvalidOptions(t *testing.T) {
	_, err := New[string, int](0, nil)
	require.Error(t, err)
	_, err = NewWithOpts[string, int](1, nil, Options{DefaultTTL: -time.Second})
	require.Error(t, err)
}

func TestLRUCache_TTL(t *testing.T) {
	cache, err := NewWithOpts[string, string](10, nil, Options{DefaultTTL: 50 * time.Millisecond})
	require.NoError(t, err)

	cache.Add("short", "a")
	cache.AddWithTTL("long", "b", time.Hour)
	time.Sleep(100 * time.Millisecond)

	_, ok := cache.Get("short")
	require.False(t, ok)
	val, ok := cache.Get("long")
	require.True(t, ok)
	require.Equal(t, "b", val)
	require.Equal(t, 1, cache.Len())
}

func TestLRUCache_GetOrAdd(t *testing.T) {
	cache, err := New[string, []int](10, nil)
	require.NoError(t, err)

	val, exists := cache.GetOrAdd("k", func() []int { return []int{1} })
	require.False(t, exists)
	require.Equal(t, []int{1}, val)

	val, exists = cache.GetOrAdd("k", func() []int { return []int{2} })
	require.True(t, exists)
	require.Equal(t, []int{1}, val)
}

func TestLRUCache_GetOrLoad(t *testing.T) {
	t.Run("concurrent loads are de-duplicated", func(t *testing.T) {
		cache, err := New[string, map[string]string](10, nil)
		require.NoError(t, err)

		var calls atomic.Int32
		release := make(chan struct{})
		load := func(projectID string) (map[string]string, error) {
			calls.Inc()
			<-release
			return map[string]string{"de": projectID + "-de"}, nil
		}

		const callers = 10
		var wg sync.WaitGroup
		results := make([]map[string]string, callers)
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = cache.GetOrLoad("p1", load)
			}(i)
		}
		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		require.Equal(t, int32(1), calls.Load())
		for i := range results {
			require.NoError(t, errs[i])
			require.Equal(t, "p1-de", results[i]["de"])
		}

		res, err := cache.GetOrLoad("p1", func(string) (map[string]string, error) {
			t.Fatal("load must not be called for the cached key")
			return nil, nil
		})
		require.NoError(t, err)
		require.Equal(t, "p1-de", res["de"])
	})

	t.Run("errors are not cached", func(t *testing.T) {
		cache, err := New[string, int](10, nil)
		require.NoError(t, err)

		loadErr := errors.New("unavailable")
		_, err = cache.GetOrLoad("k", func(string) (int, error) { return 0, loadErr })
		require.ErrorIs(t, err, loadErr)
		require.Equal(t, 0, cache.Len())

		val, err := cache.GetOrLoad("k", func(string) (int, error) { return 7, nil })
		require.NoError(t, err)
		require.Equal(t, 7, val)
	})

	t.Run("panic is propagated", func(t *testing.T) {
		cache, err := New[string, int](10, nil)
		require.NoError(t, err)
		require.PanicsWithValue(t, "boom", func() {
			_, _ = cache.GetOrLoad("k", func(string) (int, error) { panic("boom") })
		})
		require.Equal(t, 0, cache.Len())
	})
}
