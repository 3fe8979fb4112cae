package book

// SampleBooks returns the demo catalog the in-memory store and the seed
// command start from. The slice is freshly allocated on every call.
func SampleBooks() []Book {
	return []Book{
		{ID: "1", Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Classic Literature", PublishedYear: 1925, Status: StatusAvailable},
		{ID: "2", Title: "To Kill a Mockingbird", Author: "Harper Lee", Genre: "Classic Literature", PublishedYear: 1960, Status: StatusIssued},
		{ID: "3", Title: "1984", Author: "George Orwell", Genre: "Dystopian Fiction", PublishedYear: 1949, Status: StatusAvailable},
		{ID: "4", Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", PublishedYear: 1813, Status: StatusAvailable},
		{ID: "5", Title: "The Catcher in the Rye", Author: "J.D. Salinger", Genre: "Coming-of-age", PublishedYear: 1951, Status: StatusIssued},
		{ID: "6", Title: "Harry Potter and the Sorcerer's Stone", Author: "J.K. Rowling", Genre: "Fantasy", PublishedYear: 1997, Status: StatusAvailable},
		{ID: "7", Title: "The Lord of the Rings", Author: "J.R.R. Tolkien", Genre: "Fantasy", PublishedYear: 1954, Status: StatusAvailable},
		{ID: "8", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", PublishedYear: 1965, Status: StatusIssued},
		{ID: "9", Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", PublishedYear: 1937, Status: StatusAvailable},
		{ID: "10", Title: "Brave New World", Author: "Aldous Huxley", Genre: "Dystopian Fiction", PublishedYear: 1932, Status: StatusAvailable},
		{ID: "11", Title: "The Da Vinci Code", Author: "Dan Brown", Genre: "Thriller", PublishedYear: 2003, Status: StatusIssued},
		{ID: "12", Title: "Gone Girl", Author: "Gillian Flynn", Genre: "Thriller", PublishedYear: 2012, Status: StatusAvailable},
	}
}
