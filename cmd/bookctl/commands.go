package main

import (
	"errors"
	"fmt"
	"strings"

	"booklibrary/internal/book"
	"booklibrary/internal/dashboard"
	"booklibrary/internal/library"
	"booklibrary/internal/view"

	"github.com/spf13/cobra"
)

type listFlags struct {
	search   string
	genre    string
	status   string
	sort     string
	order    string
	page     int
	pageSize int
}

// state folds the flags into a view state. page is 1-based on the command line.
func (f listFlags) state() (view.State, error) {
	var errs []error
	status := book.Status(f.status)
	if status != "" && !status.Valid() {
		errs = append(errs, fmt.Errorf("status must be %s or %s", book.StatusAvailable, book.StatusIssued))
	}
	if f.genre != "" && !book.IsGenre(f.genre) {
		errs = append(errs, fmt.Errorf("unknown genre %q", f.genre))
	}
	key := view.SortKey(f.sort)
	if !key.Valid() {
		errs = append(errs, errors.New("sort must be one of title, author, genre, publishedYear, status"))
	}
	dir := view.Direction(strings.ToLower(f.order))
	if dir != view.Asc && dir != view.Desc {
		errs = append(errs, errors.New("order must be asc or desc"))
	}
	if !view.ValidPageSize(f.pageSize) {
		errs = append(errs, errors.New("page-size must be one of 5, 10, 25, 50"))
	}
	if f.page < 1 {
		errs = append(errs, errors.New("page must be at least 1"))
	}
	if len(errs) > 0 {
		return view.State{}, errors.Join(errs...)
	}

	page := f.page - 1
	st := view.InitialState()
	st = view.Reduce(st, view.SetFilters{Search: &f.search, Genre: &f.genre, Status: &status})
	st = view.Reduce(st, view.SetSort{Key: key, Direction: dir})
	st = view.Reduce(st, view.SetPagination{PageSize: &f.pageSize})
	st = view.Reduce(st, view.SetPagination{Page: &page})
	return st, nil
}

func newListCmd(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books with filters, sorting and pagination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := f.state()
			if err != nil {
				return err
			}
			s := dashboard.New(a.lib, dashboard.WithInitialState(st))
			defer s.Close()

			pv, err := s.Page(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), pv)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.search, "search", "s", "", "match title or author")
	fl.StringVar(&f.genre, "genre", "", "only this genre")
	fl.StringVar(&f.status, "status", "", "Available or Issued")
	fl.StringVar(&f.sort, "sort", string(view.SortTitle), "sort key")
	fl.StringVar(&f.order, "order", string(view.Asc), "asc or desc")
	fl.IntVarP(&f.page, "page", "p", 1, "page number")
	fl.IntVar(&f.pageSize, "page-size", view.DefaultPageSize, "rows per page: 5, 10, 25 or 50")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.lib.LoadBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.renderBook(cmd.OutOrStdout(), b)
		},
	}
}

type bookFlags struct {
	title  string
	author string
	genre  string
	year   int
	status string
}

func (f *bookFlags) register(cmd *cobra.Command, defaultStatus string) {
	fl := cmd.Flags()
	fl.StringVar(&f.title, "title", "", "title")
	fl.StringVar(&f.author, "author", "", "author")
	fl.StringVar(&f.genre, "genre", "", "genre (see bookctl genres)")
	fl.IntVar(&f.year, "year", 0, "published year")
	fl.StringVar(&f.status, "status", defaultStatus, "Available or Issued")
}

func (f bookFlags) fields() book.Fields {
	return book.Fields{
		Title:         f.title,
		Author:        f.author,
		Genre:         f.genre,
		PublishedYear: f.year,
		Status:        book.Status(f.status),
	}
}

// patch includes only the flags set on the command line.
func (f bookFlags) patch(cmd *cobra.Command) book.Patch {
	var p book.Patch
	changed := cmd.Flags().Changed
	if changed("title") {
		p.Title = &f.title
	}
	if changed("author") {
		p.Author = &f.author
	}
	if changed("genre") {
		p.Genre = &f.genre
	}
	if changed("year") {
		p.PublishedYear = &f.year
	}
	if changed("status") {
		s := book.Status(f.status)
		p.Status = &s
	}
	return p
}

func newCreateCmd(a *app) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.lib.CreateBook(cmd.Context(), f.fields())
			if err != nil {
				return err
			}
			return a.renderBook(cmd.OutOrStdout(), b)
		},
	}
	f.register(cmd, string(book.StatusAvailable))
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		f          bookFlags
		optimistic bool
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := f.patch(cmd)
			if p.IsEmpty() {
				return errors.New("nothing to update: set at least one field flag")
			}
			var opts []library.UpdateOption
			if optimistic {
				opts = append(opts, library.WithOptimistic())
			}
			b, err := a.lib.UpdateBook(cmd.Context(), args[0], p, opts...)
			if err != nil {
				return err
			}
			return a.renderBook(cmd.OutOrStdout(), b)
		},
	}
	f.register(cmd, "")
	cmd.Flags().BoolVar(&optimistic, "optimistic", false, "apply to the cache before the server confirms")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Remove a book",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.lib.DeleteBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.renderBook(cmd.OutOrStdout(), b)
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.lib.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderStats(cmd.OutOrStdout(), s)
		},
	}
}

func newGenresCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "Print the genre catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.format == "json" {
				return writeJSON(cmd.OutOrStdout(), book.Genres())
			}
			for _, g := range book.Genres() {
				fmt.Fprintln(cmd.OutOrStdout(), g)
			}
			return nil
		},
	}
}
