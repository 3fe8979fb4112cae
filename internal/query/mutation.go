package query

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrRolledBack marks a failed mutation whose optimistic cache changes were reverted.
var ErrRolledBack = errors.New("optimistic update rolled back")

// Optimistic applies the expected effect of a mutation to one cached key.
// Update receives the cached value and must return a new value without
// modifying it. Keys without cached data are left alone.
type Optimistic struct {
	Key    Key
	Update func(old any) any
}

// Write is a cache write performed after a mutation succeeds.
type Write struct {
	Key   Key
	Value any
}

// Mutation describes the cache effects around one write to the backend.
type Mutation struct {
	// Optimistic changes are applied before the write and restored if it
	// fails. Their keys are refetched once the write settles.
	Optimistic []Optimistic
	// Writes returns the values to store once the write succeeds.
	Writes func(result any) []Write
	// Remove is dropped from the cache on success.
	Remove []Key
	// Invalidate is refetched on success.
	Invalidate []Key
}

// Mutate runs fn with the cache effects described by m. On failure the
// cache is unchanged, except that optimistic changes are rolled back and
// the returned error wraps ErrRolledBack.
func (c *Client) Mutate(ctx context.Context, m Mutation, fn func(ctx context.Context) (any, error)) (any, error) {
	optimisticKeys := make([]Key, 0, len(m.Optimistic))
	for _, o := range m.Optimistic {
		optimisticKeys = append(optimisticKeys, o.Key)
	}

	var snapshot Snapshot
	if len(m.Optimistic) > 0 {
		c.mu.Lock()
		snapshot = c.snapshotLocked(optimisticKeys)
		for _, o := range m.Optimistic {
			e, ok := c.entries[o.Key]
			if !ok || !e.hasData {
				continue
			}
			e.data = o.Update(e.data)
			e.fetching = false
			e.gen = c.nextGen()
		}
		c.mu.Unlock()
	}

	result, err := fn(ctx)
	if err != nil {
		if len(m.Optimistic) == 0 {
			return nil, err
		}
		c.Restore(snapshot)
		c.Invalidate(optimisticKeys...)
		c.logger.Warn("mutation failed, optimistic changes reverted", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRolledBack, err)
	}

	if m.Writes != nil {
		for _, w := range m.Writes(result) {
			c.SetData(w.Key, w.Value)
		}
	}
	c.Remove(m.Remove...)
	c.Invalidate(dedupe(append(append([]Key{}, m.Invalidate...), optimisticKeys...))...)
	return result, nil
}

func dedupe(keys []Key) []Key {
	seen := make(map[Key]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// FetchAs is Fetch with a typed result.
func FetchAs[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// QueryAs is Query with a typed Data field.
func QueryAs[T any](c *Client, key Key, fn func(ctx context.Context) (T, error)) (T, State) {
	st := c.Query(key, func(ctx context.Context) (any, error) { return fn(ctx) })
	t, _ := st.Data.(T)
	return t, st
}
