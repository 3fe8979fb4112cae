package view

import (
	"cmp"
	"slices"
	"strings"

	"booklibrary/internal/book"
)

// Result is the derived view of a record list.
type Result struct {
	Items    []book.Book `json:"items"`
	Total    int         `json:"total"`
	Filtered []book.Book `json:"-"`
}

// Apply filters, sorts and paginates records according to s. The input
// slice is never modified.
func Apply(records []book.Book, s State) Result {
	filtered := SortBooks(Filter(records, s.Filters), s.Sort)
	return Result{
		Items:    Paginate(filtered, s.Pagination),
		Total:    len(filtered),
		Filtered: filtered,
	}
}

// Matches reports whether b passes every filter in f.
func Matches(b book.Book, f Filters) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(b.Title), term) && !strings.Contains(strings.ToLower(b.Author), term) {
			return false
		}
	}
	if f.Genre != "" && b.Genre != f.Genre {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}

// Filter returns the records matching f in their original order.
func Filter(records []book.Book, f Filters) []book.Book {
	out := make([]book.Book, 0, len(records))
	for _, b := range records {
		if Matches(b, f) {
			out = append(out, b)
		}
	}
	return out
}

// SortBooks returns a stably sorted copy of records.
func SortBooks(records []book.Book, s Sort) []book.Book {
	out := slices.Clone(records)
	if out == nil {
		out = []book.Book{}
	}
	compare := comparator(s.Key)
	if s.Direction == Desc {
		slices.SortStableFunc(out, func(a, b book.Book) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}

func comparator(key SortKey) func(a, b book.Book) int {
	text := func(field func(book.Book) string) func(a, b book.Book) int {
		return func(a, b book.Book) int {
			return strings.Compare(strings.ToLower(field(a)), strings.ToLower(field(b)))
		}
	}

	switch key {
	case SortAuthor:
		return text(func(b book.Book) string { return b.Author })
	case SortGenre:
		return text(func(b book.Book) string { return b.Genre })
	case SortStatus:
		return text(func(b book.Book) string { return string(b.Status) })
	case SortPublishedYear:
		return func(a, b book.Book) int { return cmp.Compare(a.PublishedYear, b.PublishedYear) }
	default:
		return text(func(b book.Book) string { return b.Title })
	}
}

// Paginate returns the page window of records. Out of range pages are empty.
func Paginate(records []book.Book, p Pagination) []book.Book {
	if p.PageSize <= 0 || p.Page < 0 {
		return []book.Book{}
	}
	start := p.Page * p.PageSize
	if start >= len(records) {
		return []book.Book{}
	}
	end := min(start+p.PageSize, len(records))
	return slices.Clone(records[start:end])
}

// PageCount is the number of pages needed for total records.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
