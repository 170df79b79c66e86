package cache_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/xlformula/pkg/cache"
	"github.com/sandrolain/xlformula/pkg/metrics"
	"github.com/sandrolain/xlformula/pkg/parser"
	"github.com/sandrolain/xlformula/pkg/types"
)

func key(s string) cache.Key { return cache.Key{Source: s} }

func TestNew(t *testing.T) {
	c := cache.New(10)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 10, c.Capacity())
	assert.Equal(t, cache.DefaultCapacity, cache.New(0).Capacity())
}

func TestPutGet(t *testing.T) {
	c := cache.New(4)
	expr := parser.MustParse("1+2")
	c.Put(key("1+2"), expr)

	got, ok := c.Get(key("1+2"))
	require.True(t, ok)
	assert.Same(t, expr, got)

	_, ok = c.Get(key("missing"))
	assert.False(t, ok)

	_, ok = c.Get(cache.Key{Source: "1+2", MaxDepth: 8})
	assert.False(t, ok, "depth limit is part of the key")
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.New(3)
	for _, s := range []string{"1", "2", "3"} {
		c.Put(key(s), parser.MustParse(s))
	}
	_, ok := c.Get(key("1"))
	require.True(t, ok)

	c.Put(key("4"), parser.MustParse("4"))
	assert.Equal(t, 3, c.Len())

	_, ok = c.Get(key("2"))
	assert.False(t, ok, "2 was the least recently used")
	for _, s := range []string{"1", "3", "4"} {
		_, ok := c.Get(key(s))
		assert.True(t, ok, s)
	}
}

func TestPutReplaces(t *testing.T) {
	c := cache.New(2)
	first, second := parser.MustParse("1"), parser.MustParse("1")
	c.Put(key("1"), first)
	c.Put(key("1"), second)
	assert.Equal(t, 1, c.Len())
	got, _ := c.Get(key("1"))
	assert.Same(t, second, got)
}

func TestGetOrParse(t *testing.T) {
	c := cache.New(4)
	calls := 0
	parse := func() (*types.Expression, error) {
		calls++
		return parser.Parse("A*2")
	}

	a, err := c.GetOrParse(key("A*2"), parse)
	require.NoError(t, err)
	b, err := c.GetOrParse(key("A*2"), parse)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
}

func TestGetOrParseDoesNotCacheErrors(t *testing.T) {
	c := cache.New(4)
	boom := errors.New("boom")
	calls := 0
	parse := func() (*types.Expression, error) {
		calls++
		return nil, boom
	}
	for range 2 {
		_, err := c.GetOrParse(key("1+"), parse)
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func TestRemoveAndClear(t *testing.T) {
	c := cache.New(4)
	c.Put(key("1"), parser.MustParse("1"))
	c.Put(key("2"), parser.MustParse("2"))

	c.Remove(key("1"))
	_, ok := c.Get(key("1"))
	assert.False(t, ok)
	c.Remove(key("absent"))

	c.Clear()
	assert.Equal(t, 0, c.Len())
	c.Put(key("3"), parser.MustParse("3"))
	assert.Equal(t, 1, c.Len())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := cache.New(4, cache.WithMetrics(metrics.New(reg)))

	parse := func() (*types.Expression, error) { return parser.Parse("1") }
	for range 3 {
		_, err := c.GetOrParse(key("1"), parse)
		require.NoError(t, err)
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "xlformula_cache_lookups_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			got[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"hit": 2, "miss": 1}, got)

	n, err := testutil.GatherAndCount(reg, "xlformula_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestConcurrentAccess(t *testing.T) {
	c := cache.New(8)
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}[i%10]
			for range 100 {
				_, err := c.GetOrParse(key(src), func() (*types.Expression, error) {
					return parser.Parse(src)
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 8)
}
