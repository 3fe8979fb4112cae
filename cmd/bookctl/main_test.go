package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booklibrary/internal/book"
	apphttp "booklibrary/internal/http"
	"booklibrary/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*httptest.Server, *store.MemoryRepo) {
	t.Helper()
	t.Chdir(t.TempDir())
	repo := store.NewMemoryRepo(store.WithLatency(store.Latency{}))
	mux := http.NewServeMux()
	apphttp.NewBookHandler(book.NewService(repo), nil).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, repo
}

func run(t *testing.T, baseURL string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--base-url", baseURL}, args...))
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func count(t *testing.T, repo *store.MemoryRepo) int {
	t.Helper()
	books, err := repo.List(context.Background())
	require.NoError(t, err)
	return len(books)
}

func TestList_Table(t *testing.T) {
	srv, _ := newServer(t)

	out, _, err := run(t, srv.URL, "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 12) // header, 10 rows, footer
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "1984")
	assert.Equal(t, "Page 1 of 2 (12 books)", lines[11])
}

func TestList_JSON(t *testing.T) {
	srv, _ := newServer(t)

	tests := []struct {
		name  string
		args  []string
		ids   []string
		total int
	}{
		{"fantasy by year", []string{"--genre", "Fantasy", "--sort", "publishedYear"}, []string{"9", "7", "6"}, 3},
		{"tolkien newest first", []string{"-s", "tolkien", "--sort", "publishedYear", "--order", "desc"}, []string{"7", "9"}, 2},
		{"third page of five", []string{"--sort", "title", "--page", "3", "--page-size", "5"}, []string{"7", "2"}, 12},
		{"no matches", []string{"-s", "zzz"}, []string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, srv.URL, append([]string{"-o", "json", "list"}, tt.args...)...)
			require.NoError(t, err)

			var pj pageJSON
			require.NoError(t, json.Unmarshal([]byte(out), &pj))
			ids := make([]string, 0, len(pj.Items))
			for _, b := range pj.Items {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, tt.total, pj.Total)
		})
	}
}

func TestList_InvalidFlags(t *testing.T) {
	srv, _ := newServer(t)

	for _, args := range [][]string{
		{"--page-size", "7"},
		{"--page", "0"},
		{"--sort", "isbn"},
		{"--order", "up"},
		{"--status", "Lost"},
		{"--genre", "Cooking"},
	} {
		_, _, err := run(t, srv.URL, append([]string{"list"}, args...)...)
		assert.Error(t, err, args)
	}
}

func TestGet(t *testing.T) {
	srv, _ := newServer(t)

	out, _, err := run(t, srv.URL, "get", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "The Hobbit")
	assert.Contains(t, out, "1937")

	_, _, err = run(t, srv.URL, "get", "missing")
	assert.True(t, errors.Is(err, book.ErrNotFound))
}

func TestCreate(t *testing.T) {
	srv, repo := newServer(t)

	out, errOut, err := run(t, srv.URL, "create",
		"--title", "Neuromancer", "--author", "William Gibson",
		"--genre", "Science Fiction", "--year", "1984")
	require.NoError(t, err)
	assert.Contains(t, out, "Neuromancer")
	assert.Contains(t, out, "Available")
	assert.Contains(t, errOut, "Book created successfully")
	assert.Equal(t, 13, count(t, repo))
}

func TestCreate_Invalid(t *testing.T) {
	srv, repo := newServer(t)

	_, errOut, err := run(t, srv.URL, "create", "--title", "X", "--author", "Y", "--genre", "Fantasy", "--year", "1984")
	var verr *book.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "author", verr.Fields[0].Field)
	assert.NotContains(t, errOut, "Book created")
	assert.Equal(t, 12, count(t, repo))
}

func TestUpdate(t *testing.T) {
	srv, repo := newServer(t)

	out, errOut, err := run(t, srv.URL, "update", "9", "--status", "Issued", "--optimistic")
	require.NoError(t, err)
	assert.Contains(t, out, "Issued")
	assert.Contains(t, errOut, "Book updated successfully")

	got, err := repo.Get(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, book.StatusIssued, got.Status)
	assert.Equal(t, "The Hobbit", got.Title)
}

func TestUpdate_Errors(t *testing.T) {
	srv, repo := newServer(t)

	_, _, err := run(t, srv.URL, "update", "9")
	assert.ErrorContains(t, err, "nothing to update")

	_, errOut, err := run(t, srv.URL, "update", "missing", "--title", "Nope")
	assert.True(t, errors.Is(err, book.ErrNotFound))
	assert.Contains(t, errOut, "Failed to update book")
	assert.Equal(t, 12, count(t, repo))
}

func TestDelete(t *testing.T) {
	srv, repo := newServer(t)

	out, _, err := run(t, srv.URL, "rm", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "The Hobbit")
	assert.Equal(t, 11, count(t, repo))

	_, err = repo.Get(context.Background(), "9")
	assert.ErrorIs(t, err, book.ErrNotFound)
}

func TestStats(t *testing.T) {
	srv, _ := newServer(t)

	out, _, err := run(t, srv.URL, "-o", "json", "stats")
	require.NoError(t, err)

	var s book.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, book.Stats{Total: 12, Available: 8, Issued: 4, Genres: 7, Authors: 11}, s)
}

func TestGenres(t *testing.T) {
	srv, _ := newServer(t)

	out, _, err := run(t, srv.URL, "genres")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, book.Genres(), lines)
}

func TestUnknownOutputFormat(t *testing.T) {
	srv, _ := newServer(t)

	_, _, err := run(t, srv.URL, "-o", "yaml", "stats")
	assert.ErrorContains(t, err, "unknown output format")
}
