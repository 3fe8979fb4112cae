package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"booklibrary/internal/book"
	"booklibrary/internal/config"
	apphttp "booklibrary/internal/http"
	"booklibrary/internal/httpx"
	"booklibrary/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// backend is the record store the API serves.
type backend struct {
	repo  book.Repository
	ping  func(ctx context.Context) error
	close func()
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("create db pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database (%s): %w", cfg.Database.RedactedDSN(), err)
		}
		logger.Info("database connection OK", zap.String("dsn", cfg.Database.RedactedDSN()))
		repo := store.NewBookPG(pool, cfg.Database.QueryTimeout)
		return &backend{repo: repo, ping: repo.Ping, close: pool.Close}, nil
	default:
		latency := store.Latency{}
		if cfg.Store.SimulateLatency {
			latency = store.DefaultLatency()
		}
		repo := store.NewMemoryRepo(store.WithLatency(latency))
		logger.Info("using in-memory store", zap.Int("books", repo.Len()), zap.Bool("simulate_latency", cfg.Store.SimulateLatency))
		return &backend{
			repo:  repo,
			ping:  func(context.Context) error { return nil },
			close: func() {},
		}, nil
	}
}

// newRouter wires the book routes, health checks and middleware chain.
func newRouter(cfg config.ServerConfig, b *backend, limiter *httpx.RateLimitMiddleware, logger *zap.Logger) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := b.ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	apphttp.NewBookHandler(book.NewService(b.repo), logger).Register(router)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(logger),
		httpx.RecoveryMiddleware(logger),
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.CORSOrigins),
		limiter.Middleware,
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
	)
}
