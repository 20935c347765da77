package query

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/softseven/studio-admin/internal/metrics"
	"github.com/softseven/studio-admin/internal/model"
)

type countingMetrics struct {
	metrics.Nop
	misses atomic.Int64
	shared atomic.Int64
}

func (m *countingMetrics) RecordCacheMiss(string)   { m.misses.Add(1) }
func (m *countingMetrics) RecordSharedFetch(string) { m.shared.Add(1) }

func TestNewKey_Canonical(t *testing.T) {
	t.Parallel()

	a := NewKey("messages", url.Values{"per_page": {"10"}, "page": {"2"}})
	b := NewKey("messages", model.PageParams{Page: 2, PerPage: 10})
	require.Equal(t, a, b)
	require.Equal(t, "messages?page=2&per_page=10", a.String())

	require.Equal(t, Resource("projects"), NewKey("projects", model.PageParams{}))
	require.Equal(t, Key{Resource: "project", Params: "5"}, NewKey("project", int64(5)))

	require.True(t, a.matches(Resource("messages")))
	require.True(t, a.matches(a))
	require.False(t, a.matches(NewKey("messages", url.Values{"page": {"3"}})))
	require.False(t, a.matches(Resource("projects")))
}

func TestFetch_ConcurrentSameKey_OneCall(t *testing.T) {
	t.Parallel()
	m := &countingMetrics{}
	c := New(WithMetrics(m))
	defer c.Close()

	const n = 8
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "v1", nil
	}

	key := NewKey("projects")
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, key, fn)
			if err != nil {
				t.Errorf("Fetch: %v", err)
			}
			results[i] = v
		}()
	}
	require.Eventually(t, func() bool { return m.misses.Load() == n }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		require.Equal(t, "v1", r)
	}
	require.Equal(t, int64(n), m.shared.Load())

	e, ok := c.Snapshot(key)
	require.True(t, ok)
	require.Equal(t, StatusSuccess, e.Status)
	require.Equal(t, "v1", e.Data)
}

func TestFetch_StaleTime_And_Invalidate(t *testing.T) {
	t.Parallel()
	c := New(WithStaleTime(time.Hour))
	defer c.Close()

	server := "v1"
	var calls int
	fn := func(context.Context) (string, error) {
		calls++
		return server, nil
	}
	ctx := context.Background()
	key := NewKey("studio-settings")

	v, err := Fetch(ctx, c, key, fn)
	require.NoError(t, err)
	require.Equal(t, "v1", v)

	server = "v2"
	v, _ = Fetch(ctx, c, key, fn)
	require.Equal(t, "v1", v, "fresh entry is served from cache")
	require.Equal(t, 1, calls)

	c.Invalidate(Resource("studio-settings"))
	e, _ := c.Snapshot(key)
	require.True(t, e.Stale)

	v, _ = Fetch(ctx, c, key, fn)
	require.Equal(t, "v2", v)
	require.Equal(t, 2, calls)
}

func TestFetch_DefaultStaleTime_AlwaysRefetches(t *testing.T) {
	t.Parallel()
	c := New()
	defer c.Close()

	var calls int
	fn := func(context.Context) (int, error) { calls++; return calls, nil }
	key := NewKey("messages")

	a, _ := Fetch(context.Background(), c, key, fn)
	b, _ := Fetch(context.Background(), c, key, fn)
	require.Equal(t, 1, a)
	require.Equal(t, 2, b)
	got, ok := Get[int](c, key)
	require.True(t, ok)
	require.Equal(t, 2, got)
}

func TestInvalidate_RefetchesSubscribed(t *testing.T) {
	t.Parallel()
	c := New(WithStaleTime(time.Hour))
	defer c.Close()

	var server atomic.Value
	server.Store("v1")
	fn := func(context.Context) (string, error) { return server.Load().(string), nil }
	key := NewKey("projects", model.PageParams{Page: 1})
	other := NewKey("messages")

	_, err := Fetch(context.Background(), c, key, fn)
	require.NoError(t, err)
	_, err = Fetch(context.Background(), c, other, fn)
	require.NoError(t, err)

	seen := make(chan Entry, 4)
	unsub := c.Subscribe(key, func(e Entry) { seen <- e })
	defer unsub()

	server.Store("v2")
	c.Invalidate(Resource("projects"))

	select {
	case e := <-seen:
		require.Equal(t, "v2", e.Data)
		require.Equal(t, StatusSuccess, e.Status)
		require.False(t, e.Stale)
	case <-time.After(time.Second):
		t.Fatal("subscriber was not refetched")
	}

	e, _ := c.Snapshot(other)
	require.False(t, e.Stale, "unrelated keys are untouched")
}

func TestFetch_InvalidatedDuringFlight_Discarded(t *testing.T) {
	t.Parallel()
	c := New()
	defer c.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	slow := func(context.Context) (string, error) {
		close(started)
		<-release
		return "old", nil
	}
	key := NewKey("messages")

	done := make(chan string)
	go func() {
		v, _ := Fetch(context.Background(), c, key, slow)
		done <- v
	}()
	<-started
	c.Invalidate(Resource("messages"))

	v, err := Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "new", nil })
	require.NoError(t, err)
	require.Equal(t, "new", v, "a read after invalidation starts a fresh request")

	close(release)
	require.Equal(t, "old", <-done)

	got, _ := Get[string](c, key)
	require.Equal(t, "new", got, "the older response must not overwrite the newer one")
}

func TestReset_DiscardsInFlight(t *testing.T) {
	t.Parallel()
	c := New()
	defer c.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	key := NewKey("users")
	done := make(chan struct{})
	go func() {
		_, _ = Fetch(context.Background(), c, key, func(context.Context) (string, error) {
			close(started)
			<-release
			return "previous session", nil
		})
		close(done)
	}()
	<-started
	c.Reset()
	close(release)
	<-done

	_, ok := c.Snapshot(key)
	require.False(t, ok)
	require.Empty(t, c.Keys())
}

func TestFetch_CallerCancel(t *testing.T) {
	t.Parallel()
	c := New()
	defer c.Close()

	release := make(chan struct{})
	defer close(release)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fetch(ctx, c, NewKey("projects"), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetch_ErrorKeepsData(t *testing.T) {
	t.Parallel()
	c := New()
	defer c.Close()
	key := NewKey("profile")
	boom := errors.New("boom")

	_, err := Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "p", nil })
	require.NoError(t, err)
	_, err = Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)

	e, _ := c.Snapshot(key)
	require.Equal(t, StatusError, e.Status)
	require.ErrorIs(t, e.Err, boom)
	require.Equal(t, "p", e.Data)
}
