package repositories

import (
	"context"

	"github.com/osegonte/p9-commerce/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation
// used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// IsNotFound reports whether err carries repository not-found semantics.
func IsNotFound(err error) bool {
	repoErr, ok := err.(RepositoryError)
	return ok && repoErr.IsNotFound()
}

// ProductRepository persists catalog rows.
type ProductRepository interface {
	// ListInStock returns in-stock products, newest first. An empty category
	// means all categories.
	ListInStock(ctx context.Context, category string) ([]domain.Product, error)
	// ListAll returns every product regardless of stock state, newest first.
	// Used by the admin panel.
	ListAll(ctx context.Context) ([]domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// AdminRepository persists the admin allow-list.
type AdminRepository interface {
	// List returns allow-list rows oldest first.
	List(ctx context.Context) ([]domain.Admin, error)
	GetByEmail(ctx context.Context, email string) (domain.Admin, error)
	GetByID(ctx context.Context, id string) (domain.Admin, error)
	Create(ctx context.Context, admin domain.Admin) (domain.Admin, error)
	Delete(ctx context.Context, id string) error
}
