package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/metrics"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(ttl time.Duration, max int) (*Cache[int], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[int](ttl, max, nil)
	c.now = clock.Now
	return c, clock
}

func TestKeyDependsOnAllParts(t *testing.T) {
	type opts struct{ Max int }
	base := Key("apple", []string{"name", "symbol"}, opts{Max: 10})
	assert.Len(t, base, 64)
	assert.Equal(t, base, Key("apple", []string{"name", "symbol"}, opts{Max: 10}))
	assert.NotEqual(t, base, Key("apples", []string{"name", "symbol"}, opts{Max: 10}))
	assert.NotEqual(t, base, Key("apple", []string{"symbol", "name"}, opts{Max: 10}))
	assert.NotEqual(t, base, Key("apple", []string{"name", "symbol"}, opts{Max: 5}))
}

func TestGetSetAndTTL(t *testing.T) {
	c, clock := newTestCache(5*time.Minute, 100)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", 7)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 7, v)

	clock.Advance(5*time.Minute - time.Second)
	_, ok = c.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry at exactly TTL is expired")
	assert.Equal(t, 0, c.Len(), "expired entry is removed on lookup")
}

func TestCapacityPurgesOldestHalf(t *testing.T) {
	c, clock := newTestCache(time.Hour, 100)
	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("k%03d", i), i)
		clock.Advance(time.Millisecond)
	}
	assert.Equal(t, 100, c.Len())

	c.Set("new", -1)
	assert.Equal(t, 51, c.Len())

	_, ok := c.Get("k000")
	assert.False(t, ok)
	_, ok = c.Get("k049")
	assert.False(t, ok)
	_, ok = c.Get("k050")
	assert.True(t, ok)
	_, ok = c.Get("new")
	assert.True(t, ok)
}

func TestCapacityNeverExceeded(t *testing.T) {
	c, clock := newTestCache(time.Hour, 100)
	for i := 0; i < 1000; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		clock.Advance(time.Microsecond)
		require.LessOrEqual(t, c.Len(), 100)
	}
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c, _ := newTestCache(time.Hour, 2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3)
	assert.Equal(t, 2, c.Len())
	v, _ := c.Get("a")
	assert.Equal(t, 3, v)
}

func TestStatsHitRate(t *testing.T) {
	c, _ := newTestCache(time.Hour, 10)
	assert.Equal(t, Stats{}, c.Stats())

	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	s := c.Stats()
	assert.Equal(t, 1, s.Size)
	assert.Equal(t, int64(3), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.InDelta(t, 0.75, s.HitRate, 1e-9)

	c.Clear()
	assert.Equal(t, Stats{}, c.Stats())
}

func TestPrune(t *testing.T) {
	c, clock := newTestCache(time.Minute, 10)
	c.Set("old", 1)
	clock.Advance(3 * time.Minute)
	c.Set("fresh", 2)

	assert.Equal(t, 1, c.Prune(2*time.Minute))
	assert.Equal(t, 1, c.Len())
}

func TestGetOrComputeSharesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(time.Hour, 10)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrCompute("q", func() (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	v, hit, err := c.GetOrCompute("q", func() (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, v)
}

func TestGetOrComputeError(t *testing.T) {
	c, _ := newTestCache(time.Hour, 10)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute("q", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestCacheMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := New[int](time.Hour, 2, m)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Get("c")
	c.Get("zzz")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheEvictionsTotal.WithLabelValues("capacity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheEntries))
}

func TestEvictionCountsDeletedEntries(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := New[int](time.Hour, 10, m)
	c.evictOldest()
	assert.Zero(t, testutil.ToFloat64(m.CacheEvictionsTotal.WithLabelValues("capacity")), "nothing to delete")

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	c.Set("k10", 10)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.CacheEvictionsTotal.WithLabelValues("capacity")))
	assert.Equal(t, 6, c.Len())
}
