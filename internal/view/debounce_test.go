package view

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) commit(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncer_CommitsLatestOnly(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(20*time.Millisecond, rec.commit)

	d.Schedule("t")
	d.Schedule("th")
	d.Schedule("the")

	assert.Eventually(t, func() bool { return len(rec.got()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, []string{"the"}, rec.got())
	assert.False(t, d.Pending())
}

func TestDebouncer_Flush(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(time.Hour, rec.commit)

	assert.False(t, d.Flush())
	d.Schedule("dune")
	assert.True(t, d.Pending())
	assert.True(t, d.Flush())
	assert.Equal(t, []string{"dune"}, rec.got())
	assert.False(t, d.Flush())
}

func TestDebouncer_Stop(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(10*time.Millisecond, rec.commit)

	d.Schedule("gone")
	d.Stop()
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, rec.got())
}

func TestDebouncer_FeedsStore(t *testing.T) {
	store := NewStore(InitialState())
	store.Dispatch(SetPagination{Page: intPtr(1)})
	d := NewDebouncer(10*time.Millisecond, func(text string) { store.Dispatch(SetSearch{Text: text}) })

	d.Schedule("hob")
	d.Schedule("hobbit")

	assert.Eventually(t, func() bool { return store.State().Filters.Search == "hobbit" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, store.State().Pagination.Page)
}

func TestDebouncer_FlushWaitsForRunningCommit(t *testing.T) {
	rec := &recorder{}
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	d := NewDebouncer(5*time.Millisecond, func(v string) {
		if v == "th" {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
		rec.commit(v)
	})

	d.Schedule("th")
	<-entered

	d.Schedule("the")
	go d.Flush()
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, rec.got())

	close(release)
	assert.Eventually(t, func() bool { return len(rec.got()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"th", "the"}, rec.got())
	assert.False(t, d.Pending())
}
