package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/osegonte/p9-commerce/internal/catalog"
	"github.com/osegonte/p9-commerce/internal/content"
	"github.com/osegonte/p9-commerce/internal/domain"
)

const homeStripSize = 8

// HomeData is the view model for the landing page.
type HomeData struct {
	PageData
	NewArrivals []ProductView
}

// Home renders the hero, category tiles, and the latest-drop strip.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	data := HomeData{PageData: h.pageData(w, r, "")}
	data.Title = data.Site.Brand

	products, err := h.catalog.NewArrivals(r.Context(), homeStripSize)
	if err != nil {
		// The landing page still renders without the strip.
		h.logger.Warn("home strip unavailable", zap.Error(err))
	}
	data.NewArrivals = productViews(products)

	h.renderer.Render(w, "home", data)
}

// CategoryData is the view model for category listings.
type CategoryData struct {
	PageData
	Category string
	Products []ProductView
}

// Category renders one category page. The route is registered per category so
// the label is passed in at wiring time.
func (h *Handlers) Category(label string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := CategoryData{
			PageData: h.pageData(w, r, label),
			Category: label,
		}

		products, err := h.catalog.ProductsByCategory(r.Context(), label)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		data.Products = productViews(products)

		h.renderer.Render(w, "category", data)
	}
}

// ProductData is the view model for the detail page.
type ProductData struct {
	PageData
	Product ProductDetailView
}

// Product renders a product detail page by slug.
func (h *Handlers) Product(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	product, err := h.catalog.ProductBySlug(r.Context(), slug)
	switch {
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, catalog.ErrInvalidInput):
		h.notFound(w, r)
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}

	data := ProductData{
		PageData: h.pageData(w, r, product.Name),
		Product: ProductDetailView{
			ProductView: productView(product),
			Description: RenderMarkdown(product.Description),
			Images:      product.Images,
		},
	}
	h.renderer.Render(w, "product", data)
}

// StaticPage renders a markdown page such as /about or /lookbook.
func (h *Handlers) StaticPage(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.content.Page(slug)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				h.notFound(w, r)
				return
			}
			h.serverError(w, r, err)
			return
		}

		data := struct {
			PageData
			Page content.Page
			Body any
		}{
			PageData: h.pageData(w, r, page.Title),
			Page:     page,
			Body:     RenderMarkdown(page.Body),
		}
		h.renderer.Render(w, "page", data)
	}
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(w, r, "Not found")
	h.renderer.RenderStatus(w, http.StatusNotFound, "not_found", data)
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	data := h.pageData(w, r, "Something went wrong")
	h.renderer.RenderStatus(w, http.StatusInternalServerError, "server_error", data)
}

// categoryRoutes pairs each category label with its path for router wiring.
func categoryRoutes() map[string]string {
	routes := make(map[string]string, len(domain.Categories()))
	for _, c := range domain.Categories() {
		routes[CategoryPath(c)] = c
	}
	return routes
}
