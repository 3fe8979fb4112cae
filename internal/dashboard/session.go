// Package dashboard is the headless list screen: it joins the cached book
// list with the filter/sort/pagination state and a debounced search box.
package dashboard

import (
	"context"
	"sync"
	"time"

	"booklibrary/internal/book"
	"booklibrary/internal/library"
	"booklibrary/internal/view"
)

// PageView is everything a list screen renders.
type PageView struct {
	Items      []book.Book
	Total      int
	Page       int
	PageSize   int
	PageCount  int
	State      view.State
	Stats      book.Stats
	IsLoading  bool
	IsFetching bool
	Err        error
}

type Session struct {
	lib      *library.Library
	store    *view.Store
	debounce *view.Debouncer[string]

	mu     sync.Mutex
	input  string
	closed bool
}

type config struct {
	debounce time.Duration
	initial  view.State
}

type Option func(*config)

func WithDebounce(d time.Duration) Option {
	return func(c *config) { c.debounce = d }
}

func WithInitialState(s view.State) Option {
	return func(c *config) { c.initial = s }
}

func New(lib *library.Library, opts ...Option) *Session {
	cfg := config{debounce: view.DefaultSearchDebounce, initial: view.InitialState()}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{lib: lib, store: view.NewStore(cfg.initial), input: cfg.initial.Filters.Search}
	s.debounce = view.NewDebouncer(cfg.debounce, func(text string) {
		s.store.Dispatch(view.SetSearch{Text: text})
	})
	return s
}

// TypeSearch records raw search input. The filter follows once typing
// pauses for the debounce period.
func (s *Session) TypeSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.input = text
	s.debounce.Schedule(text)
}

// SearchInput is the text in the search box, committed or not.
func (s *Session) SearchInput() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// FlushSearch commits pending search input immediately.
func (s *Session) FlushSearch() bool {
	return s.debounce.Flush()
}

// Dispatch applies a state action. Resetting filters also clears the
// search box and drops pending input.
func (s *Session) Dispatch(a view.Action) view.State {
	switch a := a.(type) {
	case view.ResetFilters:
		s.debounce.Stop()
		s.setInput("")
	case view.SetSearch:
		s.debounce.Stop()
		s.setInput(a.Text)
	case view.SetFilters:
		if a.Search != nil {
			s.debounce.Stop()
			s.setInput(*a.Search)
		}
	}
	return s.store.Dispatch(a)
}

func (s *Session) setInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

func (s *Session) State() view.State {
	return s.store.State()
}

// Subscribe registers fn for every state transition.
func (s *Session) Subscribe(fn func(view.State)) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}

// View renders from whatever is cached without blocking, starting a fetch
// when the list is missing or stale.
func (s *Session) View() PageView {
	list := s.lib.Books()
	v := render(list.Records, s.store.State())
	v.IsLoading = list.IsLoading
	v.IsFetching = list.IsFetching
	v.Err = list.Err
	return v
}

// Page waits for the list and renders the current state over it.
func (s *Session) Page(ctx context.Context) (PageView, error) {
	records, err := s.lib.LoadBooks(ctx)
	if err != nil {
		return PageView{State: s.store.State(), Err: err}, err
	}
	return render(records, s.store.State()), nil
}

func render(records []book.Book, st view.State) PageView {
	res := view.Apply(records, st)
	return PageView{
		Items:     res.Items,
		Total:     res.Total,
		Page:      st.Pagination.Page,
		PageSize:  st.Pagination.PageSize,
		PageCount: view.PageCount(res.Total, st.Pagination.PageSize),
		State:     st,
		Stats:     book.Summarize(records),
	}
}

// Close cancels pending search input. Further typing is ignored.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.debounce.Stop()
}
