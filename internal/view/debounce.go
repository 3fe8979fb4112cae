package view

import (
	"sync"
	"time"
)

// DefaultSearchDebounce is the quiet period before search input is committed.
const DefaultSearchDebounce = 300 * time.Millisecond

// Debouncer commits only the latest scheduled value once no new value has
// arrived for the quiet period. Scheduling replaces any pending commit.
// Commits never overlap and run in the order their values were scheduled.
type Debouncer[T any] struct {
	// commitMu is held for the whole of a commit and taken before mu.
	commitMu sync.Mutex

	mu      sync.Mutex
	delay   time.Duration
	commit  func(T)
	timer   *time.Timer
	pending T
	armed   bool
	seq     uint64
}

// NewDebouncer returns a debouncer that calls commit after delay.
func NewDebouncer[T any](delay time.Duration, commit func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, commit: commit}
}

// Schedule replaces the pending value and restarts the quiet period.
func (d *Debouncer[T]) Schedule(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = v
	d.armed = true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	d.mu.Lock()
	if !d.armed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.mu.Unlock()

	d.commit(v)
}

// Flush commits the pending value now. It reports whether one was pending.
// It waits for a commit already in progress. Calling it from commit deadlocks.
func (d *Debouncer[T]) Flush() bool {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	v := d.pending
	d.armed = false
	d.mu.Unlock()

	d.commit(v)
	return true
}

// Pending reports whether a commit is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Stop drops any pending commit.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	d.armed = false
}
