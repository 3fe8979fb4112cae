package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"booklibrary/internal/book"
	"booklibrary/internal/config"
	"booklibrary/internal/logx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var bookColumns = []string{"id", "title", "author", "genre", "published_year", "status"}

func main() {
	var (
		configFile = flag.String("config", "", "config file")
		truncate   = flag.Bool("truncate", false, "delete existing books first")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logx.New(cfg.Log)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.String("dsn", cfg.Database.RedactedDSN()), zap.Error(err))
	}
	defer pool.Close()

	n, err := seed(ctx, pool, book.SampleBooks(), *truncate)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM books").Scan(&total); err != nil {
		logger.Warn("count books", zap.Error(err))
	}
	logger.Info("seeded books", zap.Int64("inserted", n), zap.Int("total", total))
}

// seed bulk-loads books inside one transaction. Existing ids are skipped
// unless truncate is set.
func seed(ctx context.Context, pool *pgxpool.Pool, books []book.Book, truncate bool) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if truncate {
		if _, err := tx.Exec(ctx, "TRUNCATE books"); err != nil {
			return 0, fmt.Errorf("truncate: %w", err)
		}
	} else {
		books, err = missing(ctx, tx, books)
		if err != nil {
			return 0, err
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"books"}, bookColumns, pgx.CopyFromSlice(len(books), func(i int) ([]any, error) {
		return bookRow(books[i]), nil
	}))
	if err != nil {
		return 0, fmt.Errorf("copy books: %w", err)
	}
	return n, tx.Commit(ctx)
}

func missing(ctx context.Context, tx pgx.Tx, books []book.Book) ([]book.Book, error) {
	ids := make([]string, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	rows, err := tx.Query(ctx, "SELECT id FROM books WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("existing ids: %w", err)
	}
	existing, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("existing ids: %w", err)
	}
	return filterOut(books, existing), nil
}

func filterOut(books []book.Book, ids []string) []book.Book {
	skip := make(map[string]bool, len(ids))
	for _, id := range ids {
		skip[id] = true
	}
	out := make([]book.Book, 0, len(books))
	for _, b := range books {
		if !skip[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

func bookRow(b book.Book) []any {
	return []any{b.ID, b.Title, b.Author, b.Genre, b.PublishedYear, string(b.Status)}
}
