// Package query caches read results by key, shares in-flight fetches,
// and applies cache writes, invalidation and optimistic updates around
// mutations.
package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime    = 5 * time.Minute
	DefaultRetries      = 2
	DefaultRetryDelay   = 200 * time.Millisecond
	DefaultFetchTimeout = 30 * time.Second
)

// Key identifies a cached read, e.g. {Resource: "books"} or {Resource: "book", ID: "7"}.
type Key struct {
	Resource string
	ID       string
}

func (k Key) String() string {
	if k.ID == "" {
		return k.Resource
	}
	return k.Resource + ":" + k.ID
}

// FetchFunc loads the value for one key.
type FetchFunc func(ctx context.Context) (any, error)

// State is what consumers render for one key.
type State struct {
	Data       any
	HasData    bool
	Err        error
	IsLoading  bool
	IsFetching bool
	Stale      bool
	FetchedAt  time.Time
}

type entry struct {
	data        any
	hasData     bool
	err         error
	fetchedAt   time.Time
	failedAt    time.Time
	invalidated bool
	fetching    bool
	gen         uint64
	fetch       FetchFunc
}

// Client is a keyed read cache. The zero value is not usable; call New.
type Client struct {
	mu      sync.Mutex
	entries map[Key]*entry
	gen     uint64
	group   singleflight.Group

	staleTime    time.Duration
	retries      int
	retryDelay   time.Duration
	fetchTimeout time.Duration
	retryable    func(error) bool
	now          func() time.Time
	logger       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithStaleTime sets how long fetched data counts as fresh. It also bounds
// how long Query waits before retrying a failed entry.
func WithStaleTime(d time.Duration) Option {
	return func(c *Client) { c.staleTime = d }
}

// WithRetries sets how many times a failing fetch is retried.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = max(n, 0) }
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) { c.fetchTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithRetryPolicy decides which fetch errors are transient. Context
// cancellation is never retried regardless of the policy.
func WithRetryPolicy(fn func(error) bool) Option {
	return func(c *Client) { c.retryable = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Client with a five minute staleness window and two retries.
func New(opts ...Option) *Client {
	c := &Client{
		entries:      make(map[Key]*entry),
		staleTime:    DefaultStaleTime,
		retries:      DefaultRetries,
		retryDelay:   DefaultRetryDelay,
		fetchTimeout: DefaultFetchTimeout,
		retryable:    func(error) bool { return true },
		now:          time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) nextGen() uint64 {
	c.gen++
	return c.gen
}

func (c *Client) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{gen: c.nextGen()}
		c.entries[key] = e
	}
	return e
}

func (c *Client) staleLocked(e *entry) bool {
	return !e.hasData || e.invalidated || c.now().Sub(e.fetchedAt) >= c.staleTime
}

func (c *Client) stateLocked(e *entry) State {
	return State{
		Data:       e.data,
		HasData:    e.hasData,
		Err:        e.err,
		IsLoading:  !e.hasData && e.fetching,
		IsFetching: e.fetching,
		Stale:      c.staleLocked(e),
		FetchedAt:  e.fetchedAt,
	}
}

// Fetch returns fresh cached data for key, or waits for the shared fetch.
// Cancelling ctx stops the wait, not the shared fetch.
func (c *Client) Fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.fetch = fn
	if !c.staleLocked(e) {
		data := e.data
		c.mu.Unlock()
		c.logger.Debug("cache hit", zap.Stringer("key", key))
		return data, nil
	}
	ch := c.startLocked(key, e)
	c.mu.Unlock()

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Query returns the current state for key without blocking and starts a
// background fetch when the entry is missing or stale. An entry whose last
// fetch failed is retried once the staleness window has passed since the
// failure; Refetch and Invalidate retry it immediately.
func (c *Client) Query(key Key, fn FetchFunc) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	e.fetch = fn
	coolingDown := e.err != nil && c.now().Sub(e.failedAt) < c.staleTime
	if c.staleLocked(e) && !e.fetching && !coolingDown {
		c.startLocked(key, e)
	}
	return c.stateLocked(e)
}

// Peek returns the state for key without fetching.
func (c *Client) Peek(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return State{Stale: true}
	}
	return c.stateLocked(e)
}

// startLocked joins or starts the fetch for the entry's current generation.
func (c *Client) startLocked(key Key, e *entry) <-chan singleflight.Result {
	gen := e.gen
	fn := e.fetch
	e.fetching = true
	flight := fmt.Sprintf("%s#%d", key, gen)
	return c.group.DoChan(flight, func() (any, error) {
		return c.run(key, gen, fn)
	})
}

func (c *Client) run(key Key, gen uint64, fn FetchFunc) (any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	val, err := c.withRetry(ctx, key, fn)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.gen != gen {
		c.logger.Debug("discarding superseded fetch", zap.Stringer("key", key), zap.Uint64("gen", gen))
		return val, err
	}
	e.fetching = false
	// A finished flight may still be joinable until singleflight forgets it.
	e.gen = c.nextGen()
	if err != nil {
		// The entry keeps its staleness so the next read fetches again.
		e.err = err
		e.failedAt = c.now()
		c.logger.Warn("fetch failed", zap.Stringer("key", key), zap.Error(err))
		return val, err
	}
	e.data = val
	e.hasData = true
	e.err = nil
	e.invalidated = false
	e.fetchedAt = c.now()
	return val, nil
}

func (c *Client) withRetry(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}

		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || !c.retryable(err) {
			return nil, err
		}
		if attempt < c.retries {
			c.logger.Info("retrying fetch", zap.Stringer("key", key), zap.Int("attempt", attempt+1), zap.Error(err))
		}
	}
	return nil, lastErr
}

// Get returns the cached data for key, if any.
func (c *Client) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// SetData writes v as fresh data for key. Any in-flight fetch for the key
// is superseded.
func (c *Client) SetData(key Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	e.data = v
	e.hasData = true
	e.err = nil
	e.invalidated = false
	e.fetching = false
	e.fetchedAt = c.now()
	e.gen = c.nextGen()
}

// Invalidate marks keys stale and refetches in the background every key
// that has been read before.
func (c *Client) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		e, ok := c.entries[key]
		if !ok {
			continue
		}
		e.invalidated = true
		e.fetching = false
		e.gen = c.nextGen()
		if e.fetch != nil {
			c.startLocked(key, e)
		}
		c.logger.Debug("invalidated", zap.Stringer("key", key))
	}
}

// Refetch forces a background refresh of key.
func (c *Client) Refetch(key Key) {
	c.Invalidate(key)
}

// Remove drops keys from the cache.
func (c *Client) Remove(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

type snapshotEntry struct {
	exists      bool
	data        any
	hasData     bool
	err         error
	fetchedAt   time.Time
	failedAt    time.Time
	invalidated bool
}

// Snapshot is a point-in-time copy of some cache entries.
type Snapshot struct {
	entries map[Key]snapshotEntry
}

// Snapshot captures keys so they can be restored later.
func (c *Client) Snapshot(keys ...Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(keys)
}

func (c *Client) snapshotLocked(keys []Key) Snapshot {
	s := Snapshot{entries: make(map[Key]snapshotEntry, len(keys))}
	for _, key := range keys {
		e, ok := c.entries[key]
		if !ok {
			s.entries[key] = snapshotEntry{}
			continue
		}
		s.entries[key] = snapshotEntry{
			exists:      true,
			data:        e.data,
			hasData:     e.hasData,
			err:         e.err,
			fetchedAt:   e.fetchedAt,
			failedAt:    e.failedAt,
			invalidated: e.invalidated,
		}
	}
	return s
}

// Restore puts every entry of s back in one step.
func (c *Client) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, se := range s.entries {
		if !se.exists {
			delete(c.entries, key)
			continue
		}
		e := c.entryLocked(key)
		e.data = se.data
		e.hasData = se.hasData
		e.err = se.err
		e.fetchedAt = se.fetchedAt
		e.failedAt = se.failedAt
		e.invalidated = se.invalidated
		e.fetching = false
		e.gen = c.nextGen()
	}
}
