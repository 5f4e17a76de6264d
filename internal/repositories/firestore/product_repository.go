package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/osegonte/p9-commerce/internal/domain"
	pfirestore "github.com/osegonte/p9-commerce/internal/platform/firestore"
	"github.com/osegonte/p9-commerce/internal/repositories"
)

const productCollection = "products"

// ProductRepository persists catalog rows within Firestore.
type ProductRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		base: pfirestore.NewBaseRepository[productDocument](provider, productCollection),
	}, nil
}

// ListInStock returns in-stock products, newest first, optionally filtered by
// category.
func (r *ProductRepository) ListInStock(ctx context.Context, category string) ([]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}

	category = strings.TrimSpace(category)
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("inStock", "==", true)
		if category != "" {
			q = q.Where("category", "==", category)
		}
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	return decodeProducts(docs), nil
}

// ListAll returns every product regardless of stock state, newest first.
func (r *ProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	return decodeProducts(docs), nil
}

// GetBySlug loads the product with the given slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.Product{}, errors.New("product repository: slug is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", slug).Limit(1)
	})
	if err != nil {
		return domain.Product{}, err
	}
	if len(docs) == 0 {
		return domain.Product{}, errProductNotFound{slug: slug}
	}
	return decodeProduct(docs[0]), nil
}

// Upsert writes the product document keyed by its ID.
func (r *ProductRepository) Upsert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}

	doc := productDocument{
		Name:        strings.TrimSpace(product.Name),
		Description: product.Description,
		Price:       product.Price,
		Category:    strings.TrimSpace(product.Category),
		Images:      append([]string(nil), product.Images...),
		Sizes:       append([]string(nil), product.Sizes...),
		Slug:        strings.TrimSpace(product.Slug),
		InStock:     product.InStock,
		CreatedAt:   product.CreatedAt.UTC(),
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := r.base.Set(ctx, id, doc); err != nil {
		return domain.Product{}, err
	}

	saved := product
	saved.ID = id
	saved.Name = doc.Name
	saved.Category = doc.Category
	saved.Slug = doc.Slug
	saved.CreatedAt = doc.CreatedAt
	return saved, nil
}

// Delete removes the product document.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	return r.base.Delete(ctx, id)
}

func decodeProducts(docs []pfirestore.Document[productDocument]) []domain.Product {
	out := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeProduct(doc))
	}
	return out
}

func decodeProduct(doc pfirestore.Document[productDocument]) domain.Product {
	return domain.Product{
		ID:          doc.ID,
		Name:        doc.Data.Name,
		Description: doc.Data.Description,
		Price:       doc.Data.Price,
		Category:    doc.Data.Category,
		Images:      append([]string(nil), doc.Data.Images...),
		Sizes:       append([]string(nil), doc.Data.Sizes...),
		Slug:        doc.Data.Slug,
		InStock:     doc.Data.InStock,
		CreatedAt:   doc.Data.CreatedAt,
	}
}

type productDocument struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	Price       int64     `firestore:"price"`
	Category    string    `firestore:"category"`
	Images      []string  `firestore:"images,omitempty"`
	Sizes       []string  `firestore:"sizes,omitempty"`
	Slug        string    `firestore:"slug"`
	InStock     bool      `firestore:"inStock"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

// errProductNotFound satisfies repositories.RepositoryError for slug misses,
// which Firestore reports as an empty query rather than a NotFound status.
type errProductNotFound struct {
	slug string
}

func (e errProductNotFound) Error() string       { return "products.get: no product with slug " + e.slug }
func (e errProductNotFound) IsNotFound() bool    { return true }
func (e errProductNotFound) IsConflict() bool    { return false }
func (e errProductNotFound) IsUnavailable() bool { return false }

var _ repositories.ProductRepository = (*ProductRepository)(nil)
var _ repositories.RepositoryError = errProductNotFound{}
