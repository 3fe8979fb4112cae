package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booklibrary/internal/book"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var bookColumns = []any{"id", "title", "author", "genre", "published_year", "status"}

// BookPG is the Postgres implementation of book.Repository.
type BookPG struct {
	db      *pgxpool.Pool
	dialect goqu.DialectWrapper
	timeout time.Duration
}

var _ book.Repository = (*BookPG)(nil)

func NewBookPG(db *pgxpool.Pool, timeout time.Duration) *BookPG {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &BookPG{db: db, dialect: goqu.Dialect("postgres"), timeout: timeout}
}

func (r *BookPG) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanBook(row pgx.Row) (book.Book, error) {
	var b book.Book
	var status string
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.PublishedYear, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return book.Book{}, book.ErrNotFound
		}
		return book.Book{}, err
	}
	b.Status = book.Status(status)
	return b, nil
}

func (r *BookPG) List(ctx context.Context) ([]book.Book, error) {
	query, args, err := r.dialect.From("books").Select(bookColumns...).Order(goqu.C("seq").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []book.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BookPG) Get(ctx context.Context, id string) (book.Book, error) {
	query, args, err := r.dialect.From("books").Select(bookColumns...).Where(goqu.C("id").Eq(id)).Limit(1).Prepared(true).ToSQL()
	if err != nil {
		return book.Book{}, fmt.Errorf("build get query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, query, args...))
}

func (r *BookPG) Create(ctx context.Context, f book.Fields) (book.Book, error) {
	const sql = `
		INSERT INTO books (title, author, genre, published_year, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, title, author, genre, published_year, status`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, sql, f.Title, f.Author, f.Genre, f.PublishedYear, string(f.Status)))
}

func (r *BookPG) Update(ctx context.Context, id string, p book.Patch) (book.Book, error) {
	if p.IsEmpty() {
		return r.Get(ctx, id)
	}

	query, args, err := r.dialect.Update("books").
		Set(patchRecord(p)).
		Where(goqu.C("id").Eq(id)).
		Returning(bookColumns...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return book.Book{}, fmt.Errorf("build update query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, query, args...))
}

func (r *BookPG) Delete(ctx context.Context, id string) (book.Book, error) {
	query, args, err := r.dialect.Delete("books").
		Where(goqu.C("id").Eq(id)).
		Returning(bookColumns...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return book.Book{}, fmt.Errorf("build delete query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, query, args...))
}

// Ping checks database connectivity for the readiness check.
func (r *BookPG) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func patchRecord(p book.Patch) goqu.Record {
	rec := goqu.Record{"updated_at": goqu.L("NOW()")}
	if p.Title != nil {
		rec["title"] = *p.Title
	}
	if p.Author != nil {
		rec["author"] = *p.Author
	}
	if p.Genre != nil {
		rec["genre"] = *p.Genre
	}
	if p.PublishedYear != nil {
		rec["published_year"] = *p.PublishedYear
	}
	if p.Status != nil {
		rec["status"] = string(*p.Status)
	}
	return rec
}
