package book

import (
	"errors"
	"sort"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("invalid book fields")
)

// Status is the circulation state of a book.
type Status string

const (
	StatusAvailable Status = "Available"
	StatusIssued    Status = "Issued"
)

// Statuses lists every valid Status.
var Statuses = []Status{StatusAvailable, StatusIssued}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusIssued
}

var genres = []string{
	"Fiction",
	"Non-Fiction",
	"Mystery",
	"Romance",
	"Science Fiction",
	"Fantasy",
	"Biography",
	"History",
	"Self-Help",
	"Business",
	"Technology",
	"Health",
	"Travel",
	"Cookbooks",
	"Art",
	"Religion",
	"Philosophy",
	"Poetry",
	"Drama",
	"Children",
	"Young Adult",
	"Classic Literature",
	"Thriller",
	"Horror",
	"Adventure",
	"Comedy",
	"Crime",
	"Dystopian Fiction",
	"Coming-of-age",
	"Other",
}

var genreSet = func() map[string]bool {
	m := make(map[string]bool, len(genres))
	for _, g := range genres {
		m[g] = true
	}
	return m
}()

// Genres returns the genre catalog in sorted order.
func Genres() []string {
	out := append([]string(nil), genres...)
	sort.Strings(out)
	return out
}

// IsGenre reports whether g belongs to the genre catalog.
func IsGenre(g string) bool {
	return genreSet[g]
}

// Book represents a book record.
type Book struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"publishedYear"`
	Status        Status `json:"status"`
}

// Fields holds every book field except the identity. It is the body of a create.
type Fields struct {
	Title         string `json:"title" validate:"required,max=200"`
	Author        string `json:"author" validate:"required,min=2,max=100"`
	Genre         string `json:"genre" validate:"required,genre"`
	PublishedYear int    `json:"publishedYear" validate:"required,gte=1000,notfuture"`
	Status        Status `json:"status" validate:"required,status"`
}

// WithID builds the record stored for f under id.
func (f Fields) WithID(id string) Book {
	return Book{
		ID:            id,
		Title:         f.Title,
		Author:        f.Author,
		Genre:         f.Genre,
		PublishedYear: f.PublishedYear,
		Status:        f.Status,
	}
}

// Fields returns b without its identity.
func (b Book) Fields() Fields {
	return Fields{
		Title:         b.Title,
		Author:        b.Author,
		Genre:         b.Genre,
		PublishedYear: b.PublishedYear,
		Status:        b.Status,
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title         *string `json:"title,omitempty"`
	Author        *string `json:"author,omitempty"`
	Genre         *string `json:"genre,omitempty"`
	PublishedYear *int    `json:"publishedYear,omitempty"`
	Status        *Status `json:"status,omitempty"`
}

// PatchFrom returns a patch that replaces every field with f.
func PatchFrom(f Fields) Patch {
	return Patch{
		Title:         &f.Title,
		Author:        &f.Author,
		Genre:         &f.Genre,
		PublishedYear: &f.PublishedYear,
		Status:        &f.Status,
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Genre == nil && p.PublishedYear == nil && p.Status == nil
}

// Apply shallow-merges p into b. The identity never changes.
func (b Book) Apply(p Patch) Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.PublishedYear != nil {
		b.PublishedYear = *p.PublishedYear
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	return b
}

// Stats summarizes a collection of books.
type Stats struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Issued    int `json:"issued"`
	Genres    int `json:"genres"`
	Authors   int `json:"authors"`
}

// Summarize counts books by status and distinct genres and authors.
func Summarize(books []Book) Stats {
	genres := make(map[string]struct{})
	authors := make(map[string]struct{})
	s := Stats{Total: len(books)}
	for _, b := range books {
		switch b.Status {
		case StatusAvailable:
			s.Available++
		case StatusIssued:
			s.Issued++
		}
		genres[b.Genre] = struct{}{}
		authors[b.Author] = struct{}{}
	}
	s.Genres = len(genres)
	s.Authors = len(authors)
	return s
}
