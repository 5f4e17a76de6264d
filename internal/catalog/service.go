// Package catalog exposes the read side of the product catalog and the admin
// write operations behind it. Reads are a thin pass-through to the repository;
// writes normalise and validate form input before persisting.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/osegonte/p9-commerce/internal/domain"
	"github.com/osegonte/p9-commerce/internal/repositories"
)

var errCatalogRepositoryRequired = errors.New("catalog service: repository is required")

// ErrInvalidInput indicates the caller supplied invalid input.
var ErrInvalidInput = errors.New("catalog service: invalid input")

// ErrUnavailable indicates the backend could not fulfil the request.
var ErrUnavailable = errors.New("catalog service: unavailable")

// ErrProductNotFound indicates no product matches the given slug or ID.
var ErrProductNotFound = errors.New("catalog service: product not found")

// ServiceDeps wires the repository and ambient dependencies.
type ServiceDeps struct {
	Products    repositories.ProductRepository
	Clock       func() time.Time
	Logger      *zap.Logger
	IDGenerator func() string
}

// Service is the catalog query layer plus admin product CRUD.
type Service struct {
	products repositories.ProductRepository
	now      func() time.Time
	logger   *zap.Logger
	newID    func() string
}

// NewService constructs a Service enforcing dependency validation.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Products == nil {
		return nil, errCatalogRepositoryRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &Service{
		products: deps.Products,
		now:      func() time.Time { return clock().UTC() },
		logger:   logger,
		newID:    idGen,
	}, nil
}

// ProductsByCategory returns in-stock products for one of the fixed
// categories, newest first. The New Arrivals category spans all categories.
func (s *Service) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	category = strings.TrimSpace(category)
	if !domain.ValidCategory(category) {
		return nil, ErrInvalidInput
	}
	if category == domain.CategoryNewArrivals {
		return s.AllProducts(ctx)
	}

	products, err := s.products.ListInStock(ctx, category)
	if err != nil {
		return nil, s.translateRepoError(ctx, err)
	}
	return products, nil
}

// AllProducts returns every in-stock product, newest first.
func (s *Service) AllProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListInStock(ctx, "")
	if err != nil {
		return nil, s.translateRepoError(ctx, err)
	}
	return products, nil
}

// NewArrivals returns the newest in-stock products, capped at limit.
func (s *Service) NewArrivals(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := s.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

// ProductBySlug resolves a product detail page.
func (s *Service) ProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.Product{}, ErrInvalidInput
	}

	product, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return domain.Product{}, s.translateRepoError(ctx, err)
	}
	return product, nil
}

// AdminProducts lists every product for the back-office, newest first.
func (s *Service) AdminProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, s.translateRepoError(ctx, err)
	}
	return products, nil
}

// SaveProductCommand carries admin form input for create and update.
type SaveProductCommand struct {
	// ID is empty for a create.
	ID          string
	Name        string
	Description string
	Price       int64
	Category    string
	Sizes       []string
	// Image, when set, is appended as the product's primary image URL.
	Image   string
	InStock bool
}

// SaveProduct creates or updates a product. The slug is derived from the name.
func (s *Service) SaveProduct(ctx context.Context, cmd SaveProductCommand) (domain.Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Product{}, ErrInvalidInput
	}
	if cmd.Price < 0 {
		return domain.Product{}, ErrInvalidInput
	}
	category := strings.TrimSpace(cmd.Category)
	if !domain.ValidCategory(category) {
		return domain.Product{}, ErrInvalidInput
	}
	sizes, ok := normaliseSizes(cmd.Sizes)
	if !ok {
		return domain.Product{}, ErrInvalidInput
	}

	product := domain.Product{
		ID:          strings.TrimSpace(cmd.ID),
		Name:        name,
		Description: strings.TrimSpace(cmd.Description),
		Price:       cmd.Price,
		Category:    category,
		Sizes:       sizes,
		Slug:        Slugify(name),
		InStock:     cmd.InStock,
	}

	if product.ID == "" {
		product.ID = s.newID()
		product.CreatedAt = s.now()
	} else {
		existing, err := s.findByID(ctx, product.ID)
		if err != nil {
			return domain.Product{}, err
		}
		product.CreatedAt = existing.CreatedAt
		product.Images = existing.Images
	}

	if img := strings.TrimSpace(cmd.Image); img != "" {
		product.Images = append([]string{img}, product.Images...)
	}

	saved, err := s.products.Upsert(ctx, product)
	if err != nil {
		return domain.Product{}, s.translateRepoError(ctx, err)
	}

	s.logger.Info("product saved",
		zap.String("product_id", saved.ID),
		zap.String("slug", saved.Slug),
	)
	return saved, nil
}

// DeleteProduct removes a product by ID.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return s.translateRepoError(ctx, err)
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

func (s *Service) findByID(ctx context.Context, id string) (domain.Product, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return domain.Product{}, s.translateRepoError(ctx, err)
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, ErrProductNotFound
}

func (s *Service) translateRepoError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if repositories.IsNotFound(err) {
		return ErrProductNotFound
	}
	s.logger.Warn("catalog repository error", zap.Error(err))
	return ErrUnavailable
}

// normaliseSizes trims and de-duplicates, rejecting labels outside the fixed
// size run.
func normaliseSizes(sizes []string) ([]string, bool) {
	allowed := make(map[string]struct{})
	for _, s := range domain.ProductSizes() {
		allowed[s] = struct{}{}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, raw := range sizes {
		trimmed := strings.ToUpper(strings.TrimSpace(raw))
		if trimmed == "" {
			continue
		}
		if _, ok := allowed[trimmed]; !ok {
			return nil, false
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out, true
}
