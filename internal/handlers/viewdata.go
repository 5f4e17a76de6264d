package handlers

import (
	"html/template"

	"github.com/osegonte/p9-commerce/internal/catalog"
	"github.com/osegonte/p9-commerce/internal/content"
	"github.com/osegonte/p9-commerce/internal/domain"
)

// NavItem is one entry of the storefront navigation.
type NavItem struct {
	Label  string
	Path   string
	Active bool
}

// PageData carries the fields every page template needs.
type PageData struct {
	Title      string
	Path       string
	Site       content.Site
	Nav        []NavItem
	CartCount  int
	AdminEmail string
	Flash      string
}

// ProductView is a catalog row prepared for rendering.
type ProductView struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Category    string
	Image       string
	Slug        string
	Sizes       []string
	InStock     bool
}

// ProductDetailView adds the rendered description for the detail page.
type ProductDetailView struct {
	ProductView
	Description template.HTML
	Images      []string
}

// CategoryPath maps a category label to its storefront path.
func CategoryPath(label string) string {
	return "/" + catalog.Slugify(label)
}

func buildNav(active string) []NavItem {
	items := make([]NavItem, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		path := CategoryPath(c)
		items = append(items, NavItem{Label: c, Path: path, Active: path == active})
	}
	return items
}

func productView(p domain.Product) ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Image:       p.PrimaryImage(),
		Slug:        p.Slug,
		Sizes:       p.Sizes,
		InStock:     p.InStock,
	}
}

func productViews(products []domain.Product) []ProductView {
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, productView(p))
	}
	return out
}
