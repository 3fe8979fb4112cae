package book

import (
	"context"
)

// Service provides book-related business logic on top of a Repository.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every book in store order.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	return s.repo.List(ctx)
}

// Get returns a book by its identity.
func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	return s.repo.Get(ctx, id)
}

// Create validates f and stores a new book.
func (s *Service) Create(ctx context.Context, f Fields) (Book, error) {
	if err := ValidateFields(f); err != nil {
		return Book{}, err
	}
	return s.repo.Create(ctx, f)
}

// Update validates the fields present in p and merges them into the stored book.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Book, error) {
	if err := ValidatePatch(p); err != nil {
		return Book{}, err
	}
	return s.repo.Update(ctx, id, p)
}

// Delete removes a book and returns it.
func (s *Service) Delete(ctx context.Context, id string) (Book, error) {
	return s.repo.Delete(ctx, id)
}

// Stats summarizes the whole collection.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(books), nil
}
