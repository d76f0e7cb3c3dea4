package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Title string `json:"title"`
	Sold  int    `json:"sold"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, DefaultTTLs(), nil), mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "event:full:101", FullKey("gid://shopify/Product/101"))
	assert.Equal(t, "event:tickets:101", TicketsKey("101"))
	assert.Equal(t, "event:popular:10", PopularKey(10))

	type params struct {
		Page     int    `json:"page"`
		Category string `json:"category"`
	}
	a := ListKey(params{Page: 1, Category: "music_concerts"})
	assert.Equal(t, a, ListKey(params{Page: 1, Category: "music_concerts"}))
	assert.NotEqual(t, a, ListKey(params{Page: 2, Category: "music_concerts"}))
	assert.Contains(t, a, ListPrefix)
}

func TestGetSet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got entry
	assert.False(t, c.Get(ctx, "event:full:1", &got))

	c.Set(ctx, "event:full:1", entry{Title: "Jazz", Sold: 4}, time.Minute)
	require.True(t, c.Get(ctx, "event:full:1", &got))
	assert.Equal(t, entry{Title: "Jazz", Sold: 4}, got)

	mr.FastForward(61 * time.Second)
	assert.False(t, c.Get(ctx, "event:full:1", &got))
}

func TestGet_UndecodableEntryIsDropped(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("event:full:1", "{not json"))

	var got entry
	assert.False(t, c.Get(context.Background(), "event:full:1", &got))
	assert.False(t, mr.Exists("event:full:1"))
}

func TestInvalidateEvent(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	for _, k := range []string{
		FullKey("1"), TicketsKey("1"),
		FullKey("2"), TicketsKey("2"),
		ListKey(struct{ Page int }{1}), ListKey(struct{ Page int }{2}),
		PopularKey(10),
	} {
		c.Set(ctx, k, entry{Title: k}, time.Minute)
	}

	c.InvalidateEvent(ctx, "gid://shopify/Product/1")

	assert.False(t, mr.Exists(FullKey("1")))
	assert.False(t, mr.Exists(TicketsKey("1")))
	assert.False(t, mr.Exists(PopularKey(10)))
	assert.False(t, mr.Exists(ListKey(struct{ Page int }{1})))
	assert.False(t, mr.Exists(ListKey(struct{ Page int }{2})))
	// other events keep their own entries
	assert.True(t, mr.Exists(FullKey("2")))
	assert.True(t, mr.Exists(TicketsKey("2")))
}

func TestInvalidateAll(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	c.Set(ctx, FullKey("1"), entry{}, time.Minute)
	c.Set(ctx, TicketsKey("2"), entry{}, time.Minute)
	require.NoError(t, mr.Set("rl:ip:1", "keep"))

	c.InvalidateAll(ctx)

	assert.False(t, mr.Exists(FullKey("1")))
	assert.False(t, mr.Exists(TicketsKey("2")))
	assert.True(t, mr.Exists("rl:ip:1"))
}

func TestPassThroughMode(t *testing.T) {
	c := New(nil, DefaultTTLs(), nil)
	ctx := context.Background()
	assert.False(t, c.Enabled())

	c.Set(ctx, "k", entry{}, time.Minute)
	var got entry
	assert.False(t, c.Get(ctx, "k", &got))
	c.InvalidateEvent(ctx, "1")
	c.InvalidateAll(ctx)

	var loads int
	for i := 0; i < 3; i++ {
		v, err := Fetch(ctx, c, "k", time.Minute, func(context.Context) (entry, error) {
			loads++
			return entry{Title: "fresh"}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "fresh", v.Title)
	}
	assert.Equal(t, 3, loads)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, st.Enabled)
}

func TestStoreFailureDegrades(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	var got entry
	assert.False(t, c.Get(ctx, "k", &got))
	c.Set(ctx, "k", entry{}, time.Minute)
	c.InvalidateEvent(ctx, "1")

	v, err := Fetch(ctx, c, FullKey("1"), time.Minute, func(context.Context) (entry, error) {
		return entry{Title: "from catalog"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from catalog", v.Title)
}

func TestFetch_ReadThrough(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var loads int
	load := func(context.Context) (entry, error) {
		loads++
		return entry{Title: "Jazz", Sold: loads}, nil
	}

	first, err := Fetch(ctx, c, FullKey("1"), time.Minute, load)
	require.NoError(t, err)
	second, err := Fetch(ctx, c, FullKey("1"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads)

	c.InvalidateEvent(ctx, "1")
	third, err := Fetch(ctx, c, FullKey("1"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Sold)
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("catalog down")
	_, err := Fetch(context.Background(), c, FullKey("1"), time.Minute, func(context.Context) (entry, error) {
		return entry{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(FullKey("1")))
}

func TestFetch_CoalescesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var loads atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]entry, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(ctx, c, FullKey("1"), time.Minute, func(context.Context) (entry, error) {
				loads.Add(1)
				<-release
				return entry{Title: "shared"}, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	// let the goroutines pile up on the in-flight load
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for _, r := range results {
		assert.Equal(t, "shared", r.Title)
	}
}

func TestFetch_InvalidationDuringLoadIsNotOverwritten(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	v, err := Fetch(ctx, c, FullKey("1"), time.Minute, func(context.Context) (entry, error) {
		// a write path invalidates while the read is still loading
		c.InvalidateEvent(ctx, "1")
		return entry{Title: "stale"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", v.Title)
	assert.False(t, mr.Exists(FullKey("1")))
}

func TestStats(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	c.Set(ctx, FullKey("1"), entry{}, time.Minute)
	c.Set(ctx, FullKey("2"), entry{}, time.Minute)
	c.Set(ctx, PopularKey(5), entry{}, time.Minute)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, st.Enabled)
	assert.Equal(t, 2, st.Families["event:full"])
	assert.Equal(t, 1, st.Families["event:popular"])
	assert.Equal(t, 0, st.Families["event:list"])
}
