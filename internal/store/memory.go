package store

import (
	"context"
	"sync"
	"time"

	"booklibrary/internal/book"

	"github.com/google/uuid"
)

// Latency is the simulated network delay of each MemoryRepo operation.
type Latency struct {
	List   time.Duration
	Get    time.Duration
	Create time.Duration
	Update time.Duration
	Delete time.Duration
}

// DefaultLatency returns delays long enough to make loading states visible.
func DefaultLatency() Latency {
	return Latency{
		List:   800 * time.Millisecond,
		Get:    500 * time.Millisecond,
		Create: 600 * time.Millisecond,
		Update: 600 * time.Millisecond,
		Delete: 500 * time.Millisecond,
	}
}

// MemoryRepo is an in-memory, insertion-ordered book.Repository that stands
// in for a remote service. Each operation is atomic; concurrent writers to
// the same record are last-write-wins.
type MemoryRepo struct {
	mu      sync.Mutex
	books   []book.Book
	latency Latency
	newID   func() string
}

var _ book.Repository = (*MemoryRepo)(nil)

// MemoryOption configures a MemoryRepo.
type MemoryOption func(*MemoryRepo)

// WithLatency overrides the simulated delays.
func WithLatency(l Latency) MemoryOption {
	return func(r *MemoryRepo) { r.latency = l }
}

// WithBooks replaces the initial sample catalog.
func WithBooks(books []book.Book) MemoryOption {
	return func(r *MemoryRepo) { r.books = append([]book.Book(nil), books...) }
}

// WithIDGenerator overrides identity assignment.
func WithIDGenerator(fn func() string) MemoryOption {
	return func(r *MemoryRepo) { r.newID = fn }
}

// NewMemoryRepo returns a store seeded with book.SampleBooks.
func NewMemoryRepo(opts ...MemoryOption) *MemoryRepo {
	r := &MemoryRepo{
		books:   book.SampleBooks(),
		latency: DefaultLatency(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryRepo) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *MemoryRepo) indexOf(id string) int {
	for i, b := range r.books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (r *MemoryRepo) List(ctx context.Context) ([]book.Book, error) {
	if err := r.wait(ctx, r.latency.List); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]book.Book{}, r.books...), nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (book.Book, error) {
	if err := r.wait(ctx, r.latency.Get); err != nil {
		return book.Book{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return book.Book{}, book.ErrNotFound
	}
	return r.books[i], nil
}

func (r *MemoryRepo) Create(ctx context.Context, f book.Fields) (book.Book, error) {
	if err := r.wait(ctx, r.latency.Create); err != nil {
		return book.Book{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.newID()
	for id == "" || r.indexOf(id) >= 0 {
		id = uuid.NewString()
	}
	b := f.WithID(id)
	r.books = append(r.books, b)
	return b, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, p book.Patch) (book.Book, error) {
	if err := r.wait(ctx, r.latency.Update); err != nil {
		return book.Book{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return book.Book{}, book.ErrNotFound
	}
	r.books[i] = r.books[i].Apply(p)
	return r.books[i], nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) (book.Book, error) {
	if err := r.wait(ctx, r.latency.Delete); err != nil {
		return book.Book{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return book.Book{}, book.ErrNotFound
	}
	removed := r.books[i]
	r.books = append(r.books[:i], r.books[i+1:]...)
	return removed, nil
}

// Len reports how many records are stored without simulating latency.
func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.books)
}
