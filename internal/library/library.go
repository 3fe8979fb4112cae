// Package library combines a book.Repository with the query cache: reads
// are cached per key and every mutation keeps the cache coherent.
package library

import (
	"context"
	"errors"
	"slices"
	"time"

	"booklibrary/internal/book"
	"booklibrary/internal/query"
	"booklibrary/internal/remote"

	"go.uber.org/zap"
)

func BooksKey() query.Key { return query.Key{Resource: "books"} }

func BookKey(id string) query.Key { return query.Key{Resource: "book", ID: id} }

// Retryable reports whether a failed read is worth retrying.
func Retryable(err error) bool {
	if errors.Is(err, book.ErrNotFound) || errors.Is(err, book.ErrValidation) {
		return false
	}
	var apiErr *remote.APIError
	return !errors.As(err, &apiErr)
}

// ListState is the non-blocking view of the book list.
type ListState struct {
	Records    []book.Book
	IsLoading  bool
	IsFetching bool
	Stale      bool
	Err        error
	FetchedAt  time.Time
}

// RecordState is the non-blocking view of one book.
type RecordState struct {
	Record     book.Book
	Found      bool
	IsLoading  bool
	IsFetching bool
	Err        error
}

type Library struct {
	repo   book.Repository
	cache  *query.Client
	notify Notifier
	logger *zap.Logger
}

type Option func(*Library)

// WithCache replaces the default cache. The caller owns its retry policy.
func WithCache(c *query.Client) Option {
	return func(l *Library) { l.cache = c }
}

func WithNotifier(n Notifier) Option {
	return func(l *Library) { l.notify = n }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(repo book.Repository, opts ...Option) *Library {
	l := &Library{repo: repo, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	if l.cache == nil {
		l.cache = query.New(query.WithRetryPolicy(Retryable), query.WithLogger(l.logger))
	}
	if l.notify == nil {
		l.notify = LogNotifier{Logger: l.logger}
	}
	return l
}

// Cache exposes the underlying query client.
func (l *Library) Cache() *query.Client { return l.cache }

func (l *Library) fetchList(ctx context.Context) (any, error) {
	return l.repo.List(ctx)
}

func (l *Library) fetchBook(id string) query.FetchFunc {
	return func(ctx context.Context) (any, error) {
		return l.repo.Get(ctx, id)
	}
}

// Books returns the cached list and starts a fetch when it is missing or stale.
func (l *Library) Books() ListState {
	st := l.cache.Query(BooksKey(), l.fetchList)
	records, _ := st.Data.([]book.Book)
	return ListState{
		Records:    slices.Clone(records),
		IsLoading:  st.IsLoading,
		IsFetching: st.IsFetching,
		Stale:      st.Stale,
		Err:        st.Err,
		FetchedAt:  st.FetchedAt,
	}
}

// LoadBooks waits for the book list.
func (l *Library) LoadBooks(ctx context.Context) ([]book.Book, error) {
	v, err := l.cache.Fetch(ctx, BooksKey(), l.fetchList)
	if err != nil {
		return nil, err
	}
	records, _ := v.([]book.Book)
	return slices.Clone(records), nil
}

// Book returns the cached record for id and starts a fetch when needed.
// An empty id is never fetched.
func (l *Library) Book(id string) RecordState {
	if id == "" {
		return RecordState{}
	}
	st := l.cache.Query(BookKey(id), l.fetchBook(id))
	b, ok := st.Data.(book.Book)
	return RecordState{
		Record:     b,
		Found:      ok && st.HasData,
		IsLoading:  st.IsLoading,
		IsFetching: st.IsFetching,
		Err:        st.Err,
	}
}

// LoadBook waits for the record with id.
func (l *Library) LoadBook(ctx context.Context, id string) (book.Book, error) {
	v, err := l.cache.Fetch(ctx, BookKey(id), l.fetchBook(id))
	if err != nil {
		return book.Book{}, err
	}
	b, _ := v.(book.Book)
	return b, nil
}

// Refresh forces the list to be refetched.
func (l *Library) Refresh() {
	l.cache.Refetch(BooksKey())
}

// CreateBook validates f, stores it and invalidates the list.
func (l *Library) CreateBook(ctx context.Context, f book.Fields) (book.Book, error) {
	if err := book.ValidateFields(f); err != nil {
		return book.Book{}, err
	}

	m := query.Mutation{Invalidate: []query.Key{BooksKey()}}
	res, err := l.cache.Mutate(ctx, m, func(ctx context.Context) (any, error) {
		return l.repo.Create(ctx, f)
	})
	if err != nil {
		l.notify.Notify(Outcome{Op: OpCreate, Err: err})
		return book.Book{}, err
	}

	created := res.(book.Book)
	l.notify.Notify(Outcome{Op: OpCreate, ID: created.ID})
	return created, nil
}

type updateConfig struct {
	optimistic bool
}

type UpdateOption func(*updateConfig)

// WithOptimistic shows the patched record in the cache before the store
// confirms it and rolls back if the write fails.
func WithOptimistic() UpdateOption {
	return func(c *updateConfig) { c.optimistic = true }
}

// UpdateBook validates the fields present in p, merges them into the
// stored record, caches the result and invalidates the list.
func (l *Library) UpdateBook(ctx context.Context, id string, p book.Patch, opts ...UpdateOption) (book.Book, error) {
	var cfg updateConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := book.ValidatePatch(p); err != nil {
		return book.Book{}, err
	}

	m := query.Mutation{
		Writes: func(res any) []query.Write {
			return []query.Write{{Key: BookKey(id), Value: res}}
		},
		Invalidate: []query.Key{BooksKey()},
	}
	if cfg.optimistic {
		m.Optimistic = []query.Optimistic{
			{Key: BookKey(id), Update: patchRecord(p)},
			{Key: BooksKey(), Update: patchList(id, p)},
		}
	}

	res, err := l.cache.Mutate(ctx, m, func(ctx context.Context) (any, error) {
		return l.repo.Update(ctx, id, p)
	})
	if err != nil {
		l.notify.Notify(Outcome{Op: OpUpdate, ID: id, Err: err})
		return book.Book{}, err
	}

	l.notify.Notify(Outcome{Op: OpUpdate, ID: id})
	return res.(book.Book), nil
}

func patchRecord(p book.Patch) func(any) any {
	return func(old any) any {
		b, ok := old.(book.Book)
		if !ok {
			return old
		}
		return b.Apply(p)
	}
}

func patchList(id string, p book.Patch) func(any) any {
	return func(old any) any {
		records, ok := old.([]book.Book)
		if !ok {
			return old
		}
		out := slices.Clone(records)
		for i := range out {
			if out[i].ID == id {
				out[i] = out[i].Apply(p)
			}
		}
		return out
	}
}

// DeleteBook removes the record, drops its cache entry and invalidates the list.
func (l *Library) DeleteBook(ctx context.Context, id string) (book.Book, error) {
	m := query.Mutation{
		Remove:     []query.Key{BookKey(id)},
		Invalidate: []query.Key{BooksKey()},
	}
	res, err := l.cache.Mutate(ctx, m, func(ctx context.Context) (any, error) {
		return l.repo.Delete(ctx, id)
	})
	if err != nil {
		l.notify.Notify(Outcome{Op: OpDelete, ID: id, Err: err})
		return book.Book{}, err
	}

	l.notify.Notify(Outcome{Op: OpDelete, ID: id})
	return res.(book.Book), nil
}

// Stats summarizes the cached list, loading it if necessary.
func (l *Library) Stats(ctx context.Context) (book.Stats, error) {
	records, err := l.LoadBooks(ctx)
	if err != nil {
		return book.Stats{}, err
	}
	return book.Summarize(records), nil
}
