package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/osegonte/p9-commerce/internal/domain"
)

type stubProductRepo struct {
	products []domain.Product
	listErr  error
	getErr   error

	upserted  *domain.Product
	upsertErr error
	deletedID string
	deleteErr error
}

func (s *stubProductRepo) ListInStock(ctx context.Context, category string) ([]domain.Product, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Product
	for _, p := range s.products {
		if !p.InStock {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]domain.Product(nil), s.products...), nil
}

func (s *stubProductRepo) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if s.getErr != nil {
		return domain.Product{}, s.getErr
	}
	for _, p := range s.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Product{}, notFoundErr{}
}

func (s *stubProductRepo) Upsert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if s.upsertErr != nil {
		return domain.Product{}, s.upsertErr
	}
	s.upserted = &product
	return product, nil
}

func (s *stubProductRepo) Delete(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedID = id
	return nil
}

type notFoundErr struct{}

func (notFoundErr) Error() string       { return "not found" }
func (notFoundErr) IsNotFound() bool    { return true }
func (notFoundErr) IsConflict() bool    { return false }
func (notFoundErr) IsUnavailable() bool { return false }

func newTestService(t *testing.T, repo *stubProductRepo) *Service {
	t.Helper()
	svc, err := NewService(ServiceDeps{
		Products:    repo,
		Clock:       func() time.Time { return time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC) },
		IDGenerator: func() string { return "fixed-id" },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		{ID: "p1", Name: "Box Hoodie", Slug: "box-hoodie", Category: domain.CategoryHoodies, Price: 30000, InStock: true},
		{ID: "p2", Name: "Logo Tee", Slug: "logo-tee", Category: domain.CategoryTees, Price: 12000, InStock: true},
		{ID: "p3", Name: "Old Cap", Slug: "old-cap", Category: domain.CategoryHeadwear, Price: 8000, InStock: false},
	}
}

func TestNewServiceRequiresRepository(t *testing.T) {
	if _, err := NewService(ServiceDeps{}); err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestProductsByCategory(t *testing.T) {
	repo := &stubProductRepo{products: sampleProducts()}
	svc := newTestService(t, repo)

	t.Run("filters by category", func(t *testing.T) {
		got, err := svc.ProductsByCategory(context.Background(), domain.CategoryHoodies)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].ID != "p1" {
			t.Fatalf("expected [p1], got %v", got)
		}
	})

	t.Run("new arrivals spans all categories", func(t *testing.T) {
		got, err := svc.ProductsByCategory(context.Background(), domain.CategoryNewArrivals)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 in-stock products, got %d", len(got))
		}
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		if _, err := svc.ProductsByCategory(context.Background(), "Gadgets"); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("repository failure maps to unavailable", func(t *testing.T) {
		failing := &stubProductRepo{listErr: errors.New("boom")}
		svc := newTestService(t, failing)
		if _, err := svc.ProductsByCategory(context.Background(), domain.CategoryTees); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
	})
}

func TestNewArrivalsLimit(t *testing.T) {
	repo := &stubProductRepo{products: sampleProducts()}
	svc := newTestService(t, repo)

	got, err := svc.NewArrivals(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("expected first product only, got %v", got)
	}
}

func TestProductBySlug(t *testing.T) {
	repo := &stubProductRepo{products: sampleProducts()}
	svc := newTestService(t, repo)

	t.Run("found", func(t *testing.T) {
		got, err := svc.ProductBySlug(context.Background(), "logo-tee")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "p2" {
			t.Fatalf("expected p2, got %q", got.ID)
		}
	})

	t.Run("missing slug maps to not found", func(t *testing.T) {
		if _, err := svc.ProductBySlug(context.Background(), "nope"); !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("blank slug rejected", func(t *testing.T) {
		if _, err := svc.ProductBySlug(context.Background(), "   "); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestSaveProduct(t *testing.T) {
	t.Run("create assigns id, slug and timestamp", func(t *testing.T) {
		repo := &stubProductRepo{}
		svc := newTestService(t, repo)

		saved, err := svc.SaveProduct(context.Background(), SaveProductCommand{
			Name:     "  Heavy Box Hoodie  ",
			Price:    35000,
			Category: domain.CategoryHoodies,
			Sizes:    []string{"m", "L", "m"},
			Image:    "https://cdn.example.com/img/1.jpg",
			InStock:  true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if saved.ID != "fixed-id" {
			t.Fatalf("expected generated id, got %q", saved.ID)
		}
		if saved.Slug != "heavy-box-hoodie" {
			t.Fatalf("expected slug %q, got %q", "heavy-box-hoodie", saved.Slug)
		}
		if len(saved.Sizes) != 2 || saved.Sizes[0] != "M" || saved.Sizes[1] != "L" {
			t.Fatalf("expected sizes [M L], got %v", saved.Sizes)
		}
		if saved.CreatedAt.IsZero() {
			t.Fatal("expected created timestamp")
		}
		if len(saved.Images) != 1 {
			t.Fatalf("expected one image, got %v", saved.Images)
		}
	})

	t.Run("update keeps creation time and images", func(t *testing.T) {
		created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		repo := &stubProductRepo{products: []domain.Product{{
			ID:        "p1",
			Name:      "Box Hoodie",
			Slug:      "box-hoodie",
			Category:  domain.CategoryHoodies,
			Images:    []string{"https://cdn.example.com/img/old.jpg"},
			CreatedAt: created,
			InStock:   true,
		}}}
		svc := newTestService(t, repo)

		saved, err := svc.SaveProduct(context.Background(), SaveProductCommand{
			ID:       "p1",
			Name:     "Box Hoodie II",
			Price:    32000,
			Category: domain.CategoryHoodies,
			InStock:  true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !saved.CreatedAt.Equal(created) {
			t.Fatalf("expected preserved created time, got %v", saved.CreatedAt)
		}
		if len(saved.Images) != 1 || saved.Images[0] != "https://cdn.example.com/img/old.jpg" {
			t.Fatalf("expected preserved images, got %v", saved.Images)
		}
		if saved.Slug != "box-hoodie-ii" {
			t.Fatalf("expected reslugged name, got %q", saved.Slug)
		}
	})

	t.Run("new image becomes primary", func(t *testing.T) {
		repo := &stubProductRepo{products: []domain.Product{{
			ID:       "p1",
			Name:     "Box Hoodie",
			Category: domain.CategoryHoodies,
			Images:   []string{"https://cdn.example.com/img/old.jpg"},
			InStock:  true,
		}}}
		svc := newTestService(t, repo)

		saved, err := svc.SaveProduct(context.Background(), SaveProductCommand{
			ID:       "p1",
			Name:     "Box Hoodie",
			Category: domain.CategoryHoodies,
			Image:    "https://cdn.example.com/img/new.jpg",
			InStock:  true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(saved.Images) != 2 || saved.Images[0] != "https://cdn.example.com/img/new.jpg" {
			t.Fatalf("expected new image first, got %v", saved.Images)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		repo := &stubProductRepo{}
		svc := newTestService(t, repo)

		cases := []SaveProductCommand{
			{Name: "", Category: domain.CategoryTees},
			{Name: "Tee", Price: -1, Category: domain.CategoryTees},
			{Name: "Tee", Category: "Nope"},
			{Name: "Tee", Category: domain.CategoryTees, Sizes: []string{"XXXL"}},
		}
		for _, cmd := range cases {
			if _, err := svc.SaveProduct(context.Background(), cmd); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput for %+v, got %v", cmd, err)
			}
		}
	})

	t.Run("update of unknown id fails", func(t *testing.T) {
		repo := &stubProductRepo{}
		svc := newTestService(t, repo)
		_, err := svc.SaveProduct(context.Background(), SaveProductCommand{
			ID:       "ghost",
			Name:     "Tee",
			Category: domain.CategoryTees,
		})
		if !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})
}

func TestDeleteProduct(t *testing.T) {
	repo := &stubProductRepo{}
	svc := newTestService(t, repo)

	if err := svc.DeleteProduct(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.deletedID != "p1" {
		t.Fatalf("expected delete of p1, got %q", repo.deletedID)
	}

	if err := svc.DeleteProduct(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Box Hoodie", "box-hoodie"},
		{"  Heavy  Tee ", "heavy--tee"},
		{"Édition Spéciale!", "dition-spciale"},
		{"UPPER-case 9", "upper-case-9"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
