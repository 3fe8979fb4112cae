package book

import (
	"context"
)

// Repository defines the asynchronous CRUD contract every book backend
// satisfies, whether in-memory, Postgres or a remote REST endpoint.
type Repository interface {
	List(ctx context.Context) ([]Book, error)
	Get(ctx context.Context, id string) (Book, error)
	Create(ctx context.Context, f Fields) (Book, error)
	Update(ctx context.Context, id string, p Patch) (Book, error)
	Delete(ctx context.Context, id string) (Book, error)
}
