// Package query is the injectable read cache shared by hooks: a keyed table of
// fetch results with request deduplication, invalidation and subscriptions.
package query

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/softseven/studio-admin/internal/metrics"
)

// Status is the state of a cache entry.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "pending"
	}
}

// Entry is a snapshot of one cached read.
type Entry struct {
	Key       Key
	Data      any // last successful value, kept across errors
	Status    Status
	Err       error
	UpdatedAt time.Time
	Stale     bool
	Epoch     uint64
}

type entry struct {
	Entry
	refetch func(context.Context) error
	subs    map[uint64]func(Entry)
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	epoch   uint64
	nextSub uint64
	group   singleflight.Group

	staleTime time.Duration
	now       func() time.Time
	log       *zap.Logger
	metrics   metrics.Recorder

	base   context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup
}

// Option customizes a Cache.
type Option func(*Cache)

// WithStaleTime lets reads within d of the last settled fetch be served from
// the cache. The default 0 refetches on every read.
func WithStaleTime(d time.Duration) Option { return func(c *Cache) { c.staleTime = d } }

// WithLogger sets the cache logger.
func WithLogger(l *zap.Logger) Option { return func(c *Cache) { c.log = l } }

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option { return func(c *Cache) { c.metrics = m } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: map[Key]*entry{},
		now:     time.Now,
		log:     zap.NewNop(),
		metrics: metrics.Nop{},
	}
	for _, o := range opts {
		o(c)
	}
	c.base, c.cancel = context.WithCancel(context.Background())
	return c
}

// Close stops background refetches and waits for them to return.
func (c *Cache) Close() {
	c.cancel()
	c.bg.Wait()
}

// Fetch returns the value under key, calling fn when the entry is missing or
// stale. Concurrent calls for one key share a single fn call. fn runs detached
// from ctx cancellation so other waiters still get the result; a caller whose
// ctx ends stops waiting immediately.
//
// The result is stored only if the key was not invalidated or reset while fn
// was running.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.fresh(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	c.register(key, func(ctx context.Context) error {
		_, err := Fetch(ctx, c, key, fn)
		return err
	})

	ch := c.group.DoChan(key.String(), func() (any, error) {
		epoch := c.begin(key)
		v, err := fn(context.WithoutCancel(ctx))
		c.settle(key, epoch, v, err)
		return v, err
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.RecordSharedFetch(key.Resource)
		}
		if res.Err != nil {
			return zero, res.Err
		}
		t, _ := res.Val.(T)
		return t, nil
	}
}

// Get returns the cached value under key if it holds a T.
func Get[T any](c *Cache, key Key) (T, bool) {
	var zero T
	e, ok := c.Snapshot(key)
	if !ok || e.Data == nil {
		return zero, false
	}
	t, ok := e.Data.(T)
	return t, ok
}

// Snapshot returns a copy of the entry under key.
func (c *Cache) Snapshot(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return e.Entry, true
}

// Keys lists every key currently held.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	return out
}

// Invalidate marks every entry matching one of patterns stale. A pattern with
// empty Params matches all params of its resource. Matching entries with live
// subscribers are refetched in the background; in-flight fetches for them are
// abandoned so the next read starts a new request.
func (c *Cache) Invalidate(patterns ...Key) {
	var refetch []func(context.Context) error

	c.mu.Lock()
	for _, p := range patterns {
		c.metrics.RecordInvalidation(p.Resource)
		for k, e := range c.entries {
			if !k.matches(p) {
				continue
			}
			c.epoch++
			e.Epoch = c.epoch
			e.Stale = true
			c.group.Forget(k.String())
			if len(e.subs) > 0 && e.refetch != nil {
				refetch = append(refetch, e.refetch)
			}
		}
	}
	c.mu.Unlock()

	for _, f := range refetch {
		c.bg.Add(1)
		go func() {
			defer c.bg.Done()
			if err := f(c.base); err != nil {
				c.log.Debug("cache: background refetch failed", zap.Error(err))
			}
		}()
	}
}

// Reset drops every entry and subscription. Results of fetches still in
// flight are discarded.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		c.group.Forget(k.String())
	}
	c.entries = map[Key]*entry{}
	c.epoch++
}

// Subscribe calls fn with the entry every time a fetch for key settles.
// The returned func removes the subscription.
func (c *Cache) Subscribe(key Key, fn func(Entry)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	c.nextSub++
	id := c.nextSub
	e.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(e.subs, id)
	}
}

// entry returns the entry for key, creating it. Caller holds c.mu.
func (c *Cache) entry(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		c.epoch++
		e = &entry{Entry: Entry{Key: key, Epoch: c.epoch}, subs: map[uint64]func(Entry){}}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) fresh(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if ok && c.staleTime > 0 && e.Status == StatusSuccess && !e.Stale &&
		c.now().Sub(e.UpdatedAt) < c.staleTime {
		c.metrics.RecordCacheHit(key.Resource)
		return e.Data, true
	}
	c.metrics.RecordCacheMiss(key.Resource)
	return nil, false
}

func (c *Cache) register(key Key, refetch func(context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(key).refetch = refetch
}

func (c *Cache) begin(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	if e.Status != StatusSuccess {
		e.Status = StatusPending
	}
	return e.Epoch
}

func (c *Cache) settle(key Key, epoch uint64, v any, err error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.Epoch != epoch {
		c.mu.Unlock()
		c.log.Debug("cache: discarded stale result", zap.String("key", key.String()))
		return
	}
	if err != nil {
		e.Status = StatusError
		e.Err = err
	} else {
		e.Data = v
		e.Status = StatusSuccess
		e.Err = nil
		e.Stale = false
	}
	e.UpdatedAt = c.now()
	snap := e.Entry
	subs := make([]func(Entry), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
