package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booklibrary/internal/config"
	"booklibrary/internal/httpx"
	"booklibrary/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		CORSOrigins:    []string{"http://localhost:3000"},
		MaxBodyBytes:   1 << 10,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
}

func newTestRouter(t *testing.T, ping func(context.Context) error) http.Handler {
	t.Helper()
	b := &backend{
		repo:  store.NewMemoryRepo(store.WithLatency(store.Latency{})),
		ping:  ping,
		close: func() {},
	}
	limiter := httpx.NewRateLimitMiddleware(100, 100)
	t.Cleanup(limiter.Stop)
	return newRouter(testServerConfig(), b, limiter, zap.NewNop())
}

func okPing(context.Context) error { return nil }

func TestRouting(t *testing.T) {
	router := newTestRouter(t, okPing)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "health", method: http.MethodGet, path: "/healthz", want: http.StatusOK},
		{name: "ready", method: http.MethodGet, path: "/readyz", want: http.StatusOK},
		{name: "list", method: http.MethodGet, path: "/books", want: http.StatusOK},
		{name: "stats", method: http.MethodGet, path: "/books/stats", want: http.StatusOK},
		{name: "get", method: http.MethodGet, path: "/books/1", want: http.StatusOK},
		{name: "get missing", method: http.MethodGet, path: "/books/999", want: http.StatusNotFound},
		{name: "create invalid", method: http.MethodPost, path: "/books", body: `{}`, want: http.StatusBadRequest},
		{name: "body too large", method: http.MethodPost, path: "/books", body: strings.Repeat("x", 2048), want: http.StatusRequestEntityTooLarge},
		{name: "unknown route", method: http.MethodGet, path: "/users", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get(httpx.RequestIDHeader))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestRouting_ReadyzReportsStoreFailure(t *testing.T) {
	router := newTestRouter(t, func(context.Context) error { return errors.New("db down") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouting_CORSPreflight(t *testing.T) {
	router := newTestRouter(t, okPing)

	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenBackend_Memory(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: "memory"}}

	b, err := openBackend(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer b.close()

	books, err := b.repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 12)
	assert.NoError(t, b.ping(context.Background()))
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "backend", "addr"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}
