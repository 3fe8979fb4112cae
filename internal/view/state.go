// Package view holds the list filter/sort/pagination state machine and the
// pure pipeline that derives the visible page of books from it.
package view

import (
	"slices"
	"sync"

	"booklibrary/internal/book"
)

// SortKey names a sortable book field.
type SortKey string

const (
	SortTitle         SortKey = "title"
	SortAuthor        SortKey = "author"
	SortGenre         SortKey = "genre"
	SortPublishedYear SortKey = "publishedYear"
	SortStatus        SortKey = "status"
)

// Valid reports whether k is a sortable field.
func (k SortKey) Valid() bool {
	switch k {
	case SortTitle, SortAuthor, SortGenre, SortPublishedYear, SortStatus:
		return true
	}
	return false
}

// Direction is the sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// PageSizes are the allowed page sizes.
var PageSizes = []int{5, 10, 25, 50}

// DefaultPageSize is the page size of a fresh session.
const DefaultPageSize = 10

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// Filters narrows the record list. Empty fields match everything.
type Filters struct {
	Search string      `json:"search"`
	Genre  string      `json:"genre"`
	Status book.Status `json:"status"`
}

// Active reports whether any filter is set.
func (f Filters) Active() bool {
	return f.Search != "" || f.Genre != "" || f.Status != ""
}

// Pagination selects one page of the filtered list.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Sort orders the filtered list.
type Sort struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// State is the complete list view state.
type State struct {
	Filters    Filters    `json:"filters"`
	Pagination Pagination `json:"pagination"`
	Sort       Sort       `json:"sort"`
}

// InitialState is empty filters, first page of DefaultPageSize, title ascending.
func InitialState() State {
	return State{
		Pagination: Pagination{Page: 0, PageSize: DefaultPageSize},
		Sort:       Sort{Key: SortTitle, Direction: Asc},
	}
}

// Action is a named state transition. The set of actions is closed.
type Action interface {
	action()
}

type (
	SetSearch struct{ Text string }
	SetGenre  struct{ Genre string }
	SetStatus struct{ Status book.Status }

	// SetFilters replaces the non-nil filter fields at once.
	SetFilters struct {
		Search *string
		Genre  *string
		Status *book.Status
	}

	// SetPagination replaces the non-nil pagination fields.
	SetPagination struct {
		Page     *int
		PageSize *int
	}

	SetSort struct {
		Key       SortKey
		Direction Direction
	}

	// ToggleSort sorts by Key, flipping to descending when Key is already
	// the ascending sort key.
	ToggleSort struct{ Key SortKey }

	ResetFilters struct{}
)

func (SetSearch) action()     {}
func (SetGenre) action()      {}
func (SetStatus) action()     {}
func (SetFilters) action()    {}
func (SetPagination) action() {}
func (SetSort) action()       {}
func (ToggleSort) action()    {}
func (ResetFilters) action()  {}

// Reduce returns the state after applying a. It never mutates s.
// Every filter change moves back to the first page.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetSearch:
		s.Filters.Search = a.Text
		s.Pagination.Page = 0
	case SetGenre:
		s.Filters.Genre = a.Genre
		s.Pagination.Page = 0
	case SetStatus:
		s.Filters.Status = a.Status
		s.Pagination.Page = 0
	case SetFilters:
		if a.Search != nil {
			s.Filters.Search = *a.Search
		}
		if a.Genre != nil {
			s.Filters.Genre = *a.Genre
		}
		if a.Status != nil {
			s.Filters.Status = *a.Status
		}
		s.Pagination.Page = 0
	case SetPagination:
		if a.PageSize != nil && ValidPageSize(*a.PageSize) && *a.PageSize != s.Pagination.PageSize {
			s.Pagination.PageSize = *a.PageSize
			s.Pagination.Page = 0
		}
		if a.Page != nil {
			s.Pagination.Page = max(*a.Page, 0)
		}
	case SetSort:
		if !a.Key.Valid() {
			return s
		}
		dir := a.Direction
		if dir != Desc {
			dir = Asc
		}
		s.Sort = Sort{Key: a.Key, Direction: dir}
	case ToggleSort:
		if !a.Key.Valid() {
			return s
		}
		dir := Asc
		if s.Sort.Key == a.Key && s.Sort.Direction == Asc {
			dir = Desc
		}
		s.Sort = Sort{Key: a.Key, Direction: dir}
	case ResetFilters:
		s.Filters = Filters{}
		s.Pagination.Page = 0
	}
	return s
}

// Store serializes transitions over one State for the lifetime of a view session.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

// NewStore returns a store holding initial.
func NewStore(initial State) *Store {
	return &Store{state: initial, listeners: make(map[int]func(State))}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies a and notifies subscribers with the new state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Subscribe registers fn to run after every Dispatch.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
