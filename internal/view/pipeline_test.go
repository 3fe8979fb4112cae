package view

import (
	"testing"

	"booklibrary/internal/book"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(books []book.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func ids(books []book.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestApply_FantasyByYear(t *testing.T) {
	s := Reduce(InitialState(), SetGenre{Genre: "Fantasy"})
	s = Reduce(s, SetSort{Key: SortPublishedYear, Direction: Asc})

	got := Apply(book.SampleBooks(), s)

	assert.Equal(t, 3, got.Total)
	assert.Equal(t, []string{
		"The Hobbit",
		"The Lord of the Rings",
		"Harry Potter and the Sorcerer's Stone",
	}, titles(got.Items))
}

func TestApply_SearchIsCaseInsensitive(t *testing.T) {
	s := Reduce(InitialState(), SetSearch{Text: "THE"})
	s = Reduce(s, SetPagination{PageSize: intPtr(50)})

	got := Apply(book.SampleBooks(), s)

	assert.ElementsMatch(t, []string{
		"The Great Gatsby",
		"The Catcher in the Rye",
		"Harry Potter and the Sorcerer's Stone",
		"The Lord of the Rings",
		"The Hobbit",
		"The Da Vinci Code",
	}, titles(got.Items))
	assert.Equal(t, 6, got.Total)
}

func TestApply_SearchMatchesAuthor(t *testing.T) {
	got := Apply(book.SampleBooks(), Reduce(InitialState(), SetSearch{Text: "tolkien"}))
	assert.Equal(t, []string{"The Hobbit", "The Lord of the Rings"}, titles(got.Items))
}

func TestApply_FiltersAreCombined(t *testing.T) {
	s := Reduce(InitialState(), SetFilters{
		Search: strPtr("the"),
		Genre:  strPtr("Fantasy"),
		Status: statusPtr(book.StatusAvailable),
	})
	assert.Equal(t, 3, Apply(book.SampleBooks(), s).Total)

	s = Reduce(s, SetStatus{Status: book.StatusIssued})
	got := Apply(book.SampleBooks(), s)
	assert.Equal(t, 0, got.Total)
	assert.Empty(t, got.Items)
	assert.NotNil(t, got.Items)
}

func TestFilter_Idempotent(t *testing.T) {
	testCases := []Filters{
		{},
		{Search: "the"},
		{Genre: "Thriller"},
		{Status: book.StatusIssued},
		{Search: "o", Status: book.StatusAvailable},
		{Search: "nothing matches this"},
	}

	for _, f := range testCases {
		once := Filter(book.SampleBooks(), f)
		twice := Filter(once, f)
		assert.Equal(t, once, twice)
	}
}

func TestSortBooks_Stable(t *testing.T) {
	records := book.SampleBooks()

	asc := SortBooks(records, Sort{Key: SortGenre, Direction: Asc})
	desc := SortBooks(records, Sort{Key: SortGenre, Direction: Desc})

	fantasy := func(books []book.Book) []string {
		return ids(Filter(books, Filters{Genre: "Fantasy"}))
	}
	assert.Equal(t, []string{"6", "7", "9"}, fantasy(asc))
	assert.Equal(t, []string{"6", "7", "9"}, fantasy(desc))

	byStatus := SortBooks(records, Sort{Key: SortStatus, Direction: Asc})
	assert.Equal(t, []string{"1", "3", "4", "6", "7", "9", "10", "12", "2", "5", "8", "11"}, ids(byStatus))
}

func TestSortBooks_Keys(t *testing.T) {
	records := book.SampleBooks()

	byYear := SortBooks(records, Sort{Key: SortPublishedYear, Direction: Desc})
	assert.Equal(t, 2012, byYear[0].PublishedYear)
	assert.Equal(t, 1813, byYear[len(byYear)-1].PublishedYear)

	byTitle := SortBooks(records, Sort{Key: SortTitle, Direction: Asc})
	assert.Equal(t, "1984", byTitle[0].Title)
	assert.Equal(t, "To Kill a Mockingbird", byTitle[len(byTitle)-1].Title)

	byAuthor := SortBooks(records, Sort{Key: SortAuthor, Direction: Asc})
	assert.Equal(t, "Aldous Huxley", byAuthor[0].Author)

	t.Run("case insensitive", func(t *testing.T) {
		mixed := []book.Book{{ID: "a", Title: "beta"}, {ID: "b", Title: "Alpha"}, {ID: "c", Title: "alpha"}}
		assert.Equal(t, []string{"b", "c", "a"}, ids(SortBooks(mixed, Sort{Key: SortTitle, Direction: Asc})))
	})

	t.Run("input untouched", func(t *testing.T) {
		assert.Equal(t, book.SampleBooks(), records)
	})
}

func TestPaginate(t *testing.T) {
	records := book.SampleBooks()

	for _, size := range PageSizes {
		pages := PageCount(len(records), size)
		for page := 0; page < pages; page++ {
			got := Paginate(records, Pagination{Page: page, PageSize: size})
			assert.LessOrEqual(t, len(got), size)
			if page < pages-1 {
				assert.Len(t, got, size)
			}
		}
	}

	last := Paginate(records, Pagination{Page: 1, PageSize: 10})
	require.Len(t, last, 2)
	assert.Equal(t, "11", last[0].ID)

	assert.Empty(t, Paginate(records, Pagination{Page: 5, PageSize: 10}))
	assert.Empty(t, Paginate(records, Pagination{Page: -1, PageSize: 10}))
	assert.Empty(t, Paginate(records, Pagination{Page: 0, PageSize: 0}))
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 2, PageCount(12, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 0, PageCount(5, 0))
}
