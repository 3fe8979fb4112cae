package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"booklibrary/internal/book"
	"booklibrary/internal/dashboard"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type pageJSON struct {
	Items     []book.Book `json:"items"`
	Total     int         `json:"total"`
	Page      int         `json:"page"`
	PageSize  int         `json:"pageSize"`
	PageCount int         `json:"pageCount"`
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func (a *app) render(w io.Writer, pv dashboard.PageView) error {
	if a.format == "json" {
		items := pv.Items
		if items == nil {
			items = []book.Book{}
		}
		return writeJSON(w, pageJSON{
			Items:     items,
			Total:     pv.Total,
			Page:      pv.Page + 1,
			PageSize:  pv.PageSize,
			PageCount: pv.PageCount,
		})
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tYEAR\tSTATUS")
	for _, b := range pv.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", b.ID, b.Title, b.Author, b.Genre, b.PublishedYear, b.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if pv.Total == 0 {
		_, err := fmt.Fprintln(w, "No books found")
		return err
	}
	_, err := fmt.Fprintf(w, "Page %d of %d (%d books)\n", pv.Page+1, max(pv.PageCount, 1), pv.Total)
	return err
}

func (a *app) renderBook(w io.Writer, b book.Book) error {
	if a.format == "json" {
		return writeJSON(w, b)
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", b.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", b.Title)
	fmt.Fprintf(tw, "Author:\t%s\n", b.Author)
	fmt.Fprintf(tw, "Genre:\t%s\n", b.Genre)
	fmt.Fprintf(tw, "Published:\t%d\n", b.PublishedYear)
	fmt.Fprintf(tw, "Status:\t%s\n", b.Status)
	return tw.Flush()
}

func (a *app) renderStats(w io.Writer, s book.Stats) error {
	if a.format == "json" {
		return writeJSON(w, s)
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "Total:\t%d\n", s.Total)
	fmt.Fprintf(tw, "Available:\t%d\n", s.Available)
	fmt.Fprintf(tw, "Issued:\t%d\n", s.Issued)
	fmt.Fprintf(tw, "Genres:\t%d\n", s.Genres)
	fmt.Fprintf(tw, "Authors:\t%d\n", s.Authors)
	return tw.Flush()
}
